package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"venuemap/internal/models"
)

func TestMeRequiresAuthenticatedUser(t *testing.T) {
	h := NewUserHandler(newFakeUsers(), newFakeVenues(), &fakePhotos{}, nil)

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Me(w, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "ghost"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user got %d", w.Code)
	}
}

func TestMeIncludesVenue(t *testing.T) {
	owner := testUser("u1", models.UserTypeVenueOwner)
	h := NewUserHandler(newFakeUsers(owner), newFakeVenues(&models.Venue{ID: 7, UserID: "u1", Name: "Paradiso"}), &fakePhotos{}, nil)

	w := httptest.NewRecorder()
	h.Me(w, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "u1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["venue_id"] != float64(7) || body["full_name"] != "Test User" || body["email"] != "u1@example.com" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUpdateMe(t *testing.T) {
	users := newFakeUsers(testUser("u1", models.UserTypeAttendee))
	h := NewUserHandler(users, newFakeVenues(), &fakePhotos{}, nil)

	b, _ := json.Marshal(map[string]any{"first_name": "Maria", "city": "Utrecht"})
	w := httptest.NewRecorder()
	h.UpdateMe(w, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/me", bytes.NewReader(b)), "u1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	if u := users.byID["u1"]; u.FirstName != "Maria" || u.City != "Utrecht" || u.LastName != "User" {
		t.Fatalf("unexpected stored user %+v", u)
	}

	b, _ = json.Marshal(map[string]any{"first_name": "M", "phone_number": "12"})
	w = httptest.NewRecorder()
	h.UpdateMe(w, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/me", bytes.NewReader(b)), "u1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
	fields := decodeBody(t, w)["fields"].(map[string]any)
	if _, ok := fields["first_name"]; !ok {
		t.Fatalf("expected first_name error, got %v", fields)
	}
	if _, ok := fields["phone_number"]; !ok {
		t.Fatalf("expected phone_number error, got %v", fields)
	}
}

func TestChangePassword(t *testing.T) {
	u := testUser("u1", models.UserTypeAttendee)
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	u.PasswordHash = string(hash)
	users := newFakeUsers(u)
	h := NewUserHandler(users, newFakeVenues(), &fakePhotos{}, nil)

	b, _ := json.Marshal(map[string]any{"old_password": "wrong", "new_password": "secret2"})
	w := httptest.NewRecorder()
	h.ChangePassword(w, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/me/password", bytes.NewReader(b)), "u1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}

	b, _ = json.Marshal(map[string]any{"old_password": "secret1", "new_password": "secret2"})
	w = httptest.NewRecorder()
	h.ChangePassword(w, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/me/password", bytes.NewReader(b)), "u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users.byID["u1"].PasswordHash), []byte("secret2")); err != nil {
		t.Fatalf("password not changed: %v", err)
	}
}

func TestDeleteMeDiscardsPhotos(t *testing.T) {
	users := newFakeUsers(testUser("u1", models.UserTypeVenueOwner))
	users.keys = []string{"events/a.jpg", "events/b.png"}
	photos := &fakePhotos{}
	h := NewUserHandler(users, newFakeVenues(), photos, nil)

	w := httptest.NewRecorder()
	h.DeleteMe(w, asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/me", nil), "u1"))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}
	if len(users.deleted) != 1 || users.deleted[0] != "u1" {
		t.Fatalf("expected user deleted, got %v", users.deleted)
	}
	if len(photos.discarded) != 2 {
		t.Fatalf("expected photos discarded, got %v", photos.discarded)
	}
}
