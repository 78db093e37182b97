package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PrayerWall/models"
)

// FirestoreStore persists records in the users, prayers and pushTokens
// collections using the field names the web client reads.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (models.UserProfile, bool, error) {
	snap, err := s.client.Collection(UsersCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return models.UserProfile{}, false, nil
	}
	if err != nil {
		return models.UserProfile{}, false, fmt.Errorf("store: get user %s: %w", id, err)
	}
	return decodeUser(snap.Ref.ID, snap.Data()), true, nil
}

// CreateUser uses a create-only write; losing a race to another first
// login is not an error.
func (s *FirestoreStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	_, err := s.client.Collection(UsersCollection).Doc(profile.User_Profile_ID).Create(ctx, encodeUser(profile))
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: create user %s: %w", profile.User_Profile_ID, err)
	}
	return nil
}

func (s *FirestoreStore) UpdateUser(ctx context.Context, id string, update models.UserProfileUpdate) error {
	var updates []firestore.Update
	if update.Display_Name != nil {
		updates = append(updates, firestore.Update{Path: "displayName", Value: *update.Display_Name})
	}
	if update.Whatsapp_Number != nil {
		updates = append(updates, firestore.Update{Path: "whatsappNumber", Value: *update.Whatsapp_Number})
	}
	if update.Home_Location != nil {
		updates = append(updates, firestore.Update{Path: "homeLocation", Value: *update.Home_Location})
	}
	if update.Detected_Location != nil {
		updates = append(updates, firestore.Update{Path: "detectedLocation", Value: *update.Detected_Location})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := s.client.Collection(UsersCollection).Doc(id).Update(ctx, updates)
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: update user %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) GetPrayer(ctx context.Context, id string) (models.Prayer, bool, error) {
	snap, err := s.client.Collection(PrayersCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return models.Prayer{}, false, nil
	}
	if err != nil {
		return models.Prayer{}, false, fmt.Errorf("store: get prayer %s: %w", id, err)
	}
	return decodePrayer(snap.Ref.ID, snap.Data()), true, nil
}

func (s *FirestoreStore) CreatePrayer(ctx context.Context, prayer models.Prayer) (string, error) {
	ref, _, err := s.client.Collection(PrayersCollection).Add(ctx, encodePrayer(prayer))
	if err != nil {
		return "", fmt.Errorf("store: create prayer: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) UpdatePrayer(ctx context.Context, id string, update models.PrayerUpdate) error {
	var updates []firestore.Update
	if update.Date_Created != nil {
		updates = append(updates, firestore.Update{Path: "dateCreated", Value: update.Date_Created.UTC()})
	}
	if update.Date_Answered != nil {
		updates = append(updates, firestore.Update{Path: "dateAnswered", Value: update.Date_Answered.UTC()})
	}
	if update.God_Answer != nil {
		updates = append(updates, firestore.Update{Path: "godAnswer", Value: *update.God_Answer})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := s.client.Collection(PrayersCollection).Doc(id).Update(ctx, updates)
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: update prayer %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) DeletePrayer(ctx context.Context, id string) error {
	_, err := s.client.Collection(PrayersCollection).Doc(id).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete prayer %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) QueryPrayers(ctx context.Context, filter models.PrayerFilter) ([]models.Prayer, error) {
	query := s.client.Collection(PrayersCollection).Query
	if filter.Requester_ID != "" {
		query = query.Where("requesterId", "==", filter.Requester_ID)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("store: query prayers: %w", err)
	}

	prayers := make([]models.Prayer, 0, len(snaps))
	for _, snap := range snaps {
		prayers = append(prayers, decodePrayer(snap.Ref.ID, snap.Data()))
	}
	return prayers, nil
}

// IncrementPrayedFor reads and writes the counter inside one transaction;
// Firestore retries the function when another writer got there first.
func (s *FirestoreStore) IncrementPrayedFor(ctx context.Context, id string) (int, error) {
	ref := s.client.Collection(PrayersCollection).Doc(id)

	var count int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		current, _ := intField(snap.Data(), "prayedForCount")
		count = current + 1
		return tx.Update(ref, []firestore.Update{{Path: "prayedForCount", Value: count}})
	})
	if isNotFound(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: increment prayer %s: %w", id, err)
	}
	return count, nil
}

func (s *FirestoreStore) SavePushToken(ctx context.Context, token models.PushToken) error {
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = time.Now().UTC()
	}

	_, err := s.client.Collection(PushTokensCollection).Doc(token.PushToken).Set(ctx, token)
	if err != nil {
		return fmt.Errorf("store: save push token: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error) {
	snaps, err := s.client.Collection(PushTokensCollection).
		Where("userId", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("store: list push tokens for %s: %w", userID, err)
	}

	tokens := make([]models.PushToken, 0, len(snaps))
	for _, snap := range snaps {
		var token models.PushToken
		if err := snap.DataTo(&token); err != nil {
			return nil, errors.Join(fmt.Errorf("store: decode push token %s", snap.Ref.ID), err)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
