package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/PrayerWall/models"
)

func TestMemoryStoreIncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.CreatePrayer(ctx, models.Prayer{
		Requester_ID:     "u1",
		Request_Text:     "Healing for my mother",
		Prayer_Type:      models.PrayerTypeHealing,
		Prayed_For_Count: 3,
	})
	require.NoError(t, err)

	const callers = 64
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			_, err := s.IncrementPrayedFor(ctx, id)
			return err
		})
	}
	require.NoError(t, g.Wait())

	prayer, found, err := s.GetPrayer(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3+callers, prayer.Prayed_For_Count)
}

func TestMemoryStoreMissingRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.IncrementPrayedFor(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeletePrayer(ctx, "missing"), ErrNotFound)

	now := time.Now()
	assert.ErrorIs(t, s.UpdatePrayer(ctx, "missing", models.PrayerUpdate{Date_Answered: &now}), ErrNotFound)

	name := "Ana"
	assert.ErrorIs(t, s.UpdateUser(ctx, "missing", models.UserProfileUpdate{Display_Name: &name}), ErrNotFound)

	_, found, err := s.GetUser(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreUpdateKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	answeredAt := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	answer := "He provided"
	id, err := s.CreatePrayer(ctx, models.Prayer{
		Requester_ID:  "u1",
		Request_Text:  "A job",
		Prayer_Type:   models.PrayerTypeGuidance,
		Date_Answered: &answeredAt,
		God_Answer:    &answer,
	})
	require.NoError(t, err)

	edited := "He provided, twice"
	require.NoError(t, s.UpdatePrayer(ctx, id, models.PrayerUpdate{God_Answer: &edited}))

	prayer, _, err := s.GetPrayer(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, prayer.Date_Answered)
	assert.Equal(t, answeredAt, *prayer.Date_Answered)
	assert.Equal(t, edited, *prayer.God_Answer)

	// mutating the returned copy must not leak into the store
	*prayer.God_Answer = "tampered"
	again, _, err := s.GetPrayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, edited, *again.God_Answer)
}

func TestMemoryStoreQueryFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, requester := range []string{"u1", "u2", "u1"} {
		_, err := s.CreatePrayer(ctx, models.Prayer{Requester_ID: requester, Request_Text: "x", Prayer_Type: models.PrayerTypeOther})
		require.NoError(t, err)
	}

	mine, err := s.QueryPrayers(ctx, models.PrayerFilter{Requester_ID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := s.QueryPrayers(ctx, models.PrayerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStorePushTokensUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SavePushToken(ctx, models.PushToken{UserProfileID: "u1", PushToken: "tok", Platform: "ios"}))
	require.NoError(t, s.SavePushToken(ctx, models.PushToken{UserProfileID: "u1", PushToken: "tok", Platform: "android"}))

	tokens, err := s.ListPushTokens(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "android", tokens[0].Platform)
}
