package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/PrayerWall/models"
)

const (
	userProfileTable = "user_profile"
	prayerTable      = "prayer"
	pushTokenTable   = "user_push_tokens"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_profile (
		user_profile_id     TEXT PRIMARY KEY,
		google_display_name TEXT NOT NULL DEFAULT '',
		google_phone        TEXT NOT NULL DEFAULT '',
		display_name        TEXT NOT NULL DEFAULT '',
		whatsapp_number     TEXT NOT NULL DEFAULT '',
		home_location       TEXT NOT NULL DEFAULT '',
		detected_location   TEXT NOT NULL DEFAULT '',
		email               TEXT NOT NULL DEFAULT '',
		photo_url           TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS prayer (
		prayer_id        TEXT PRIMARY KEY,
		requester_id     TEXT NOT NULL REFERENCES user_profile (user_profile_id),
		request_text     TEXT NOT NULL CHECK (request_text <> ''),
		prayer_type      TEXT NOT NULL CHECK (prayer_type IN ('healing', 'guidance', 'thanksgiving', 'other')),
		date_created     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		prayed_for_count INTEGER NOT NULL DEFAULT 0 CHECK (prayed_for_count >= 0),
		date_answered    TIMESTAMPTZ,
		god_answer       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS prayer_requester_id_idx ON prayer (requester_id)`,
	`CREATE TABLE IF NOT EXISTS user_push_tokens (
		push_token      TEXT PRIMARY KEY,
		user_profile_id TEXT NOT NULL REFERENCES user_profile (user_profile_id),
		platform        TEXT NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// PostgresStore maps the document contract onto three tables.
type PostgresStore struct {
	db *goqu.Database
}

func NewPostgresStore(db *goqu.Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (models.UserProfile, bool, error) {
	var profile models.UserProfile
	found, err := s.db.From(userProfileTable).
		Where(goqu.C("user_profile_id").Eq(id)).
		ScanStructContext(ctx, &profile)
	if err != nil {
		return models.UserProfile{}, false, fmt.Errorf("store: get user %s: %w", id, err)
	}
	return profile, found, nil
}

// CreateUser never overwrites an existing row, so concurrent first logins
// keep the provenance fields of whichever insert won.
func (s *PostgresStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	insert := s.db.Insert(userProfileTable).
		Rows(profile).
		OnConflict(goqu.DoNothing())

	if _, err := insert.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("store: create user %s: %w", profile.User_Profile_ID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id string, update models.UserProfileUpdate) error {
	record := goqu.Record{}
	if update.Display_Name != nil {
		record["display_name"] = *update.Display_Name
	}
	if update.Whatsapp_Number != nil {
		record["whatsapp_number"] = *update.Whatsapp_Number
	}
	if update.Home_Location != nil {
		record["home_location"] = *update.Home_Location
	}
	if update.Detected_Location != nil {
		record["detected_location"] = *update.Detected_Location
	}
	if len(record) == 0 {
		return nil
	}

	result, err := s.db.Update(userProfileTable).
		Set(record).
		Where(goqu.C("user_profile_id").Eq(id)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("store: update user %s: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetPrayer(ctx context.Context, id string) (models.Prayer, bool, error) {
	var prayer models.Prayer
	found, err := s.db.From(prayerTable).
		Where(goqu.C("prayer_id").Eq(id)).
		ScanStructContext(ctx, &prayer)
	if err != nil {
		return models.Prayer{}, false, fmt.Errorf("store: get prayer %s: %w", id, err)
	}
	return prayer, found, nil
}

func (s *PostgresStore) CreatePrayer(ctx context.Context, prayer models.Prayer) (string, error) {
	prayer.Prayer_ID = uuid.NewString()

	if _, err := s.db.Insert(prayerTable).Rows(prayer).Executor().ExecContext(ctx); err != nil {
		return "", fmt.Errorf("store: create prayer: %w", err)
	}
	return prayer.Prayer_ID, nil
}

func (s *PostgresStore) UpdatePrayer(ctx context.Context, id string, update models.PrayerUpdate) error {
	record := goqu.Record{}
	if update.Date_Created != nil {
		record["date_created"] = *update.Date_Created
	}
	if update.Date_Answered != nil {
		record["date_answered"] = *update.Date_Answered
	}
	if update.God_Answer != nil {
		record["god_answer"] = *update.God_Answer
	}
	if len(record) == 0 {
		return nil
	}

	result, err := s.db.Update(prayerTable).
		Set(record).
		Where(goqu.C("prayer_id").Eq(id)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("store: update prayer %s: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePrayer(ctx context.Context, id string) error {
	result, err := s.db.Delete(prayerTable).
		Where(goqu.C("prayer_id").Eq(id)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("store: delete prayer %s: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) QueryPrayers(ctx context.Context, filter models.PrayerFilter) ([]models.Prayer, error) {
	query := s.db.From(prayerTable)
	if filter.Requester_ID != "" {
		query = query.Where(goqu.C("requester_id").Eq(filter.Requester_ID))
	}

	var prayers []models.Prayer
	if err := query.Order(goqu.C("date_created").Desc()).ScanStructsContext(ctx, &prayers); err != nil {
		return nil, fmt.Errorf("store: query prayers: %w", err)
	}
	return prayers, nil
}

// IncrementPrayedFor lets the database compute the new value so concurrent
// callers never overwrite each other.
func (s *PostgresStore) IncrementPrayedFor(ctx context.Context, id string) (int, error) {
	update := s.db.Update(prayerTable).
		Set(goqu.Record{"prayed_for_count": goqu.L("prayed_for_count + 1")}).
		Where(goqu.C("prayer_id").Eq(id)).
		Returning("prayed_for_count")

	var count int
	found, err := update.Executor().ScanValContext(ctx, &count)
	if err != nil {
		return 0, fmt.Errorf("store: increment prayer %s: %w", id, err)
	}
	if !found {
		return 0, ErrNotFound
	}
	return count, nil
}

func (s *PostgresStore) SavePushToken(ctx context.Context, token models.PushToken) error {
	insert := s.db.Insert(pushTokenTable).
		Rows(goqu.Record{
			"push_token":      token.PushToken,
			"user_profile_id": token.UserProfileID,
			"platform":        token.Platform,
			"updated_at":      goqu.L("NOW()"),
		}).
		OnConflict(goqu.DoUpdate("push_token", goqu.Record{
			"user_profile_id": token.UserProfileID,
			"platform":        token.Platform,
			"updated_at":      goqu.L("NOW()"),
		}))

	if _, err := insert.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("store: save push token: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := s.db.From(pushTokenTable).
		Where(goqu.C("user_profile_id").Eq(userID)).
		ScanStructsContext(ctx, &tokens)
	if err != nil {
		return nil, fmt.Errorf("store: list push tokens for %s: %w", userID, err)
	}
	return tokens, nil
}
