// Package store persists user profiles and prayers. FirestoreStore is the
// production backend; PostgresStore and MemoryStore implement the same
// contract for self-hosted deployments and tests.
package store

import (
	"context"
	"errors"

	"github.com/PrayerWall/models"
)

const (
	UsersCollection      = "users"
	PrayersCollection    = "prayers"
	PushTokensCollection = "pushTokens"
)

// ErrNotFound is returned by mutations that target a missing record.
var ErrNotFound = errors.New("store: record not found")

// DocumentStore is the persistence contract the services depend on.
// Get methods report absence with a false boolean rather than an error.
type DocumentStore interface {
	GetUser(ctx context.Context, id string) (models.UserProfile, bool, error)
	CreateUser(ctx context.Context, profile models.UserProfile) error
	UpdateUser(ctx context.Context, id string, update models.UserProfileUpdate) error

	GetPrayer(ctx context.Context, id string) (models.Prayer, bool, error)
	CreatePrayer(ctx context.Context, prayer models.Prayer) (string, error)
	UpdatePrayer(ctx context.Context, id string, update models.PrayerUpdate) error
	DeletePrayer(ctx context.Context, id string) error
	QueryPrayers(ctx context.Context, filter models.PrayerFilter) ([]models.Prayer, error)

	// IncrementPrayedFor adds one to the persisted counter and returns the
	// new value. Implementations must not lose concurrent increments.
	IncrementPrayedFor(ctx context.Context, id string) (int, error)

	SavePushToken(ctx context.Context, token models.PushToken) error
	ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error)
}
