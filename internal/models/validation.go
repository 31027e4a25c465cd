package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		fe[field] = append(fe[field], msgs...)
	}
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, m := range fe[f] {
			parts = append(parts, f+" "+m)
		}
	}
	return strings.Join(parts, ", ")
}

// NewValidator returns a validator with the project's custom tags registered
// and field names reported by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("user_type", func(fl validator.FieldLevel) bool {
		return IsValidUserType(fl.Field().String())
	})
	_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
		return IsValidCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		dob, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return !dob.After(today())
	})
	_ = v.RegisterValidation("adult", func(fl validator.FieldLevel) bool {
		dob, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return AgeOn(dob, today()) >= MinimumAge
	})

	v.RegisterStructValidation(eventTimesValidation, EventInput{})
	return v
}

// today is replaced in tests that need a fixed calendar day.
var today = func() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func eventTimesValidation(sl validator.StructLevel) {
	in := sl.Current().Interface().(EventInput)
	if in.StartingTime == nil || in.EndingTime == nil {
		return
	}
	if !in.EndingTime.After(*in.StartingTime) {
		sl.ReportError(in.EndingTime, "ending_time", "EndingTime", "after_start", "")
	}
}

// Validate runs v against s and translates failures into FieldErrors. A nil
// return means s is valid.
func Validate(v *validator.Validate, s any) (FieldErrors, error) {
	err := v.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), messageFor(fe))
	}
	return out, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "required_if":
		if fe.Field() == "venue_name" {
			return "is required for venue owners"
		}
		return "can't be blank"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "eqfield":
		return "doesn't match " + fe.Param()
	case "email_format":
		return "must be a valid email address (e.g. user@example.com)"
	case "phone":
		return "must be a valid phone number"
	case "user_type":
		return "must be either 'user' or 'venue'"
	case "event_category":
		return "must be one of the predefined categories"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "notfuture":
		return "cannot be in the future"
	case "adult":
		return "user must be at least 18 years old"
	case "after_start":
		return "must be after starting time"
	default:
		return "is invalid"
	}
}
