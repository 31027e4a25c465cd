package models

import (
	"testing"
	"time"
)

func validEventInput() EventInput {
	start := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	price := 15.0
	capacity := 120
	return EventInput{
		Title:        "Friday Jazz",
		Location:     "Witte de Withstraat 50",
		Category:     "Live Music & Concerts",
		StartingTime: &start,
		EndingTime:   &end,
		Price:        &price,
		Capacity:     &capacity,
	}
}

func TestEventInputValid(t *testing.T) {
	v := NewValidator()
	in := validEventInput()
	errs, err := Validate(v, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errs != nil {
		t.Fatalf("expected valid event, got %v", errs)
	}
}

func TestEventInputRules(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		mutate func(in *EventInput)
		field  string
		msg    string
	}{
		{"blank title", func(in *EventInput) { in.Title = "" }, "title", "can't be blank"},
		{"blank location", func(in *EventInput) { in.Location = "" }, "location", "can't be blank"},
		{"unknown category", func(in *EventInput) { in.Category = "Poetry" }, "category", "must be one of the predefined categories"},
		{"missing start", func(in *EventInput) { in.StartingTime = nil }, "starting_time", "can't be blank"},
		{"negative price", func(in *EventInput) { p := -1.0; in.Price = &p }, "price", "must be greater than or equal to 0"},
		{"missing price", func(in *EventInput) { in.Price = nil }, "price", "can't be blank"},
		{"zero capacity", func(in *EventInput) { c := 0; in.Capacity = &c }, "capacity", "must be greater than 0"},
		{"end before start", func(in *EventInput) {
			end := in.StartingTime.Add(-time.Hour)
			in.EndingTime = &end
		}, "ending_time", "must be after starting time"},
		{"end equals start", func(in *EventInput) {
			end := *in.StartingTime
			in.EndingTime = &end
		}, "ending_time", "must be after starting time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validEventInput()
			tc.mutate(&in)
			errs, err := Validate(v, in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !contains(errs[tc.field], tc.msg) {
				t.Fatalf("expected %q on %s, got %v", tc.msg, tc.field, errs)
			}
		})
	}
}

func TestEventInputFreePriceAndNoEnd(t *testing.T) {
	v := NewValidator()
	in := validEventInput()
	free := 0.0
	in.Price = &free
	in.EndingTime = nil
	if errs, _ := Validate(v, in); errs != nil {
		t.Fatalf("expected free open-ended event to be valid, got %v", errs)
	}
}

func TestAllCategoriesValid(t *testing.T) {
	if len(EventCategories) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(EventCategories))
	}
	for _, c := range EventCategories {
		if !IsValidCategory(c) {
			t.Fatalf("expected %q to be valid", c)
		}
	}
	if !IsValidCategory(DefaultCategory) {
		t.Fatalf("default category must be valid")
	}
}

func photos(n int, contentType string, size int64) []PhotoUpload {
	out := make([]PhotoUpload, n)
	for i := range out {
		out[i] = PhotoUpload{FileName: "p.jpg", ContentType: contentType, Size: size}
	}
	return out
}

func TestValidatePhotos(t *testing.T) {
	cases := []struct {
		name   string
		photos []PhotoUpload
		want   []string
	}{
		{"two jpegs", photos(2, "image/jpeg", 1024), nil},
		{"six gifs", photos(6, "image/gif", 1024), nil},
		{"none", nil, []string{"must have between 2 and 6 photos"}},
		{"one", photos(1, "image/png", 1024), []string{"must have between 2 and 6 photos"}},
		{"seven", photos(7, "image/png", 1024), []string{"must have between 2 and 6 photos"}},
		{"pdf", photos(2, "application/pdf", 1024), []string{"must be a JPEG, PNG, JPG, or GIF"}},
		{"too large", photos(3, "image/jpg", MaxPhotoBytes+1), []string{"must be less than 5MB each"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidatePhotos(tc.photos)
			if tc.want == nil {
				if errs != nil {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			got := errs["photos"]
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestValidatePhotosStopsAtFirstBadPhoto(t *testing.T) {
	in := []PhotoUpload{
		{ContentType: "image/png", Size: MaxPhotoBytes + 1},
		{ContentType: "text/plain", Size: 10},
	}
	errs := ValidatePhotos(in)
	if len(errs["photos"]) != 1 || errs["photos"][0] != "must be less than 5MB each" {
		t.Fatalf("expected only the size error, got %v", errs)
	}
}

func TestEventInputApplyTo(t *testing.T) {
	in := validEventInput()
	lat, lng := 51.9, 4.48
	in.Latitude, in.Longitude = &lat, &lng

	ev := &ScheduledEvent{}
	in.ApplyTo(ev)
	if ev.Title != "Friday Jazz" || ev.Price != 15 || ev.Capacity != 120 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if c := ev.Coordinates(); c == nil || c.Latitude != lat {
		t.Fatalf("expected coordinates, got %+v", c)
	}

	back := EventInputFromEvent(ev)
	if *back.Price != 15 || back.EndingTime == nil || !back.EndingTime.Equal(*in.EndingTime) {
		t.Fatalf("unexpected round trip %+v", back)
	}
}
