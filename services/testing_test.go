package services

import (
	"context"
	"errors"
	"sync"

	"github.com/PrayerWall/geocoding"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

func anaSession() models.Session {
	return models.NewSession(models.Identity{ID: "u1", DisplayName: "Ana", PhoneNumber: "+628123", Email: "ana@example.com"})
}

func budiSession() models.Session {
	return models.NewSession(models.Identity{ID: "u2", DisplayName: "Budi"})
}

type fakeGeocoder struct {
	address geocoding.Address
	err     error
}

func (f fakeGeocoder) Reverse(ctx context.Context, latitude, longitude float64) (geocoding.Address, error) {
	return f.address, f.err
}

type recordingSaver struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingSaver) SaveDetectedLocation(ctx context.Context, userID, detected string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID+"="+detected)
	return r.err
}

func (r *recordingSaver) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// failingStore fails every call with err.
type failingStore struct {
	store.DocumentStore
	err error
}

func (f failingStore) GetUser(ctx context.Context, id string) (models.UserProfile, bool, error) {
	return models.UserProfile{}, false, f.err
}

func (f failingStore) CreatePrayer(ctx context.Context, prayer models.Prayer) (string, error) {
	return "", f.err
}

func (f failingStore) QueryPrayers(ctx context.Context, filter models.PrayerFilter) ([]models.Prayer, error) {
	return nil, f.err
}

// lookupFailingStore fails GetUser for one user id.
type lookupFailingStore struct {
	*store.MemoryStore
	failFor string
}

func (l lookupFailingStore) GetUser(ctx context.Context, id string) (models.UserProfile, bool, error) {
	if id == l.failFor {
		return models.UserProfile{}, false, errBackend
	}
	return l.MemoryStore.GetUser(ctx, id)
}

var errBackend = errors.New("backend down")
