package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"venuemap/internal/middleware"
	"venuemap/internal/models"
	"venuemap/internal/repository"
)

type fakeUsers struct {
	mu       sync.Mutex
	byID     map[string]*models.User
	created  *models.Venue
	deleted  []string
	keys     []string
	failWith error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User, venue *models.Venue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.byID[u.ID] = u
	if venue != nil {
		venue.ID = 1
		venue.UserID = u.ID
		f.created = venue
	}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return f.keys, nil
}

type fakeVenues struct {
	byID    map[int64]*models.Venue
	nextID  int64
	removed []int64
	keys    []string
}

func newFakeVenues(venues ...*models.Venue) *fakeVenues {
	f := &fakeVenues{byID: map[int64]*models.Venue{}, nextID: 100}
	for _, v := range venues {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeVenues) Create(_ context.Context, v *models.Venue) error {
	for _, existing := range f.byID {
		if existing.UserID == v.UserID {
			return repository.ErrVenueExists
		}
	}
	f.nextID++
	v.ID = f.nextID
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVenues) GetByID(_ context.Context, id int64) (*models.Venue, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVenues) GetByUserID(_ context.Context, userID string) (*models.Venue, error) {
	for _, v := range f.byID {
		if v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeVenues) sorted() []*models.Venue {
	out := make([]*models.Venue, 0, len(f.byID))
	for _, v := range f.byID {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeVenues) List(_ context.Context, limit, offset int) ([]*models.Venue, error) {
	all := f.sorted()
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (f *fakeVenues) Count(context.Context) (int, error) { return len(f.byID), nil }

func (f *fakeVenues) Update(_ context.Context, v *models.Venue) error {
	if _, ok := f.byID[v.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *v
	f.byID[v.ID] = &cp
	return nil
}

func (f *fakeVenues) Delete(_ context.Context, id int64) ([]string, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	f.removed = append(f.removed, id)
	return f.keys, nil
}

type fakeEvents struct {
	byID       map[int64]*models.ScheduledEvent
	lastFilter repository.EventFilter
	replaced   bool
	oldKeys    []string
	failCreate error
}

func newFakeEvents(events ...*models.ScheduledEvent) *fakeEvents {
	f := &fakeEvents{byID: map[int64]*models.ScheduledEvent{}}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEvents) Create(_ context.Context, ev *models.ScheduledEvent) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	ev.ID = int64(len(f.byID) + 1)
	f.byID[ev.ID] = ev
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*models.ScheduledEvent, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEvents) List(_ context.Context, filter repository.EventFilter) ([]*models.ScheduledEvent, error) {
	f.lastFilter = filter
	var out []*models.ScheduledEvent
	for _, ev := range f.byID {
		if filter.VenueID != 0 && ev.VenueID != filter.VenueID {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEvents) Count(_ context.Context, filter repository.EventFilter) (int, error) {
	events, _ := f.List(context.Background(), filter)
	return len(events), nil
}

func (f *fakeEvents) Update(_ context.Context, ev *models.ScheduledEvent, replacePhotos bool) ([]string, error) {
	if _, ok := f.byID[ev.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	f.replaced = replacePhotos
	cp := *ev
	f.byID[ev.ID] = &cp
	if replacePhotos {
		return f.oldKeys, nil
	}
	return nil, nil
}

func (f *fakeEvents) Delete(_ context.Context, id int64) ([]string, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	return ev.PhotoKeys(), nil
}

func (f *fakeEvents) ListForGeocoding(context.Context, bool) ([]repository.GeocodeTarget, error) {
	return nil, errors.New("not used")
}

func (f *fakeEvents) UpdateCoordinates(context.Context, *models.ScheduledEvent) error {
	return errors.New("not used")
}

type fakeResets struct {
	tokens      map[string]*models.PasswordResetToken
	invalidated []string
	used        []string
}

func newFakeResets() *fakeResets {
	return &fakeResets{tokens: map[string]*models.PasswordResetToken{}}
}

func (f *fakeResets) Create(_ context.Context, t *models.PasswordResetToken) error {
	f.tokens[t.TokenHash] = t
	return nil
}

func (f *fakeResets) GetValidByTokenHash(_ context.Context, hash string, now time.Time) (*models.PasswordResetToken, error) {
	t, ok := f.tokens[hash]
	if !ok || !t.Usable(now) {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeResets) MarkUsed(_ context.Context, id string, at time.Time) error {
	for _, t := range f.tokens {
		if t.ID == id {
			t.UsedAt = &at
			f.used = append(f.used, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeResets) InvalidateForUser(_ context.Context, userID string, _ time.Time) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fakeLocator struct {
	at    *models.Coordinates
	calls int
}

func (l *fakeLocator) Apply(_ context.Context, ev *models.ScheduledEvent, _ *models.User) {
	l.calls++
	if ev.Coordinates() == nil {
		ev.SetCoordinates(l.at)
	}
	if ev.Coordinates() != nil {
		ev.Timezone = "Europe/Amsterdam"
	}
}

type fakePhotos struct {
	mu        sync.Mutex
	uploaded  int
	discarded []string
	failWith  error
}

func (p *fakePhotos) Upload(_ context.Context, uploads []models.PhotoUpload) ([]models.EventPhoto, error) {
	if p.failWith != nil {
		return nil, p.failWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventPhoto, len(uploads))
	for i, up := range uploads {
		p.uploaded++
		out[i] = models.EventPhoto{
			ID:          up.FileName,
			FileName:    up.FileName,
			ContentType: up.ContentType,
			Size:        up.Size,
			ObjectKey:   "events/" + up.FileName,
			URL:         "https://cdn.test/events/" + up.FileName,
			Position:    i,
		}
	}
	return out, nil
}

func (p *fakePhotos) Discard(_ context.Context, keys []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discarded = append(p.discarded, keys...)
}

func asUser(r *http.Request, id string) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), id, ""))
}

func ptr[T any](v T) *T { return &v }

func testUser(id string, kind models.UserType) *models.User {
	return &models.User{
		ID:          id,
		Email:       id + "@example.com",
		FirstName:   "Test",
		LastName:    "User",
		UserType:    kind,
		PhoneNumber: "+31 6 1234 5678",
		Address:     "Coolsingel 40, Rotterdam",
		DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}
