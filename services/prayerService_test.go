package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PrayerWall/dates"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	counts []int
}

func (r *recordingNotifier) PrayedFor(prayer models.Prayer, actor models.Session, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, count)
}

func newPrayerService(t *testing.T) (*PrayerService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewPrayerService(s, nil, zap.NewNop()), s
}

func createPrayer(t *testing.T, svc *PrayerService, session models.Session, text string) models.Prayer {
	t.Helper()
	prayer, err := svc.Create(context.Background(), session, models.PrayerCreate{Request_Text: text, Prayer_Type: "healing"})
	require.NoError(t, err)
	return prayer
}

func TestCreatePrayer(t *testing.T) {
	svc, s := newPrayerService(t)
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	prayer, err := svc.Create(context.Background(), anaSession(), models.PrayerCreate{
		Request_Text: "  Healing for my mother ",
		Prayer_Type:  "healing",
	})
	require.NoError(t, err)

	stored, found, err := s.GetPrayer(context.Background(), prayer.Prayer_ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u1", stored.Requester_ID)
	assert.Equal(t, "Healing for my mother", stored.Request_Text)
	assert.Equal(t, models.PrayerTypeHealing, stored.Prayer_Type)
	assert.Equal(t, 0, stored.Prayed_For_Count)
	assert.Nil(t, stored.Date_Answered)
	assert.Nil(t, stored.God_Answer)
	assert.Equal(t, fixed, stored.Date_Created)
}

func TestCreatePrayerRejected(t *testing.T) {
	tests := []struct {
		name      string
		session   models.Session
		draft     models.PrayerCreate
		wantErr   error
		wantField string
	}{
		{"empty text", anaSession(), models.PrayerCreate{Request_Text: "", Prayer_Type: "healing"}, ErrValidation, "requestText"},
		{"whitespace text", anaSession(), models.PrayerCreate{Request_Text: "   ", Prayer_Type: "healing"}, ErrValidation, "requestText"},
		{"unknown type", anaSession(), models.PrayerCreate{Request_Text: "x", Prayer_Type: "miracle"}, ErrValidation, "prayerType"},
		{"anonymous", models.Session{}, models.PrayerCreate{Request_Text: "x", Prayer_Type: "other"}, ErrAuthRequired, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newPrayerService(t)

			_, err := svc.Create(context.Background(), tt.session, tt.draft)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantField != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}

			all, err := s.QueryPrayers(context.Background(), models.PrayerFilter{})
			require.NoError(t, err)
			assert.Empty(t, all, "nothing is persisted")
		})
	}
}

func TestCreatePrayerStoreFailure(t *testing.T) {
	svc := NewPrayerService(failingStore{err: errBackend}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), anaSession(), models.PrayerCreate{Request_Text: "x", Prayer_Type: "other"})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errBackend)
}

func TestIncrementPrayedFor(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewPrayerService(s, notifier, zap.NewNop())

	id, err := s.CreatePrayer(ctx, models.Prayer{Requester_ID: "u1", Request_Text: "x", Prayer_Type: models.PrayerTypeOther, Prayed_For_Count: 3})
	require.NoError(t, err)

	// Two members tapping at the same time both count.
	var g errgroup.Group
	for _, session := range []models.Session{anaSession(), budiSession()} {
		g.Go(func() error {
			_, err := svc.IncrementPrayedFor(ctx, session, id)
			return err
		})
	}
	require.NoError(t, g.Wait())

	prayer, err := svc.Get(ctx, anaSession(), id)
	require.NoError(t, err)
	assert.Equal(t, 5, prayer.Prayed_For_Count)
	assert.ElementsMatch(t, []int{4, 5}, notifier.counts)
}

func TestIncrementPrayedForErrors(t *testing.T) {
	svc, _ := newPrayerService(t)

	_, err := svc.IncrementPrayedFor(context.Background(), anaSession(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.IncrementPrayedFor(context.Background(), models.Session{}, "missing")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestMarkAnswered(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)
	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	prayer := createPrayer(t, svc, anaSession(), "A job")

	answered, err := svc.MarkAnswered(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswer{})
	require.NoError(t, err)
	require.NotNil(t, answered.Date_Answered)
	assert.Equal(t, first, *answered.Date_Answered)
	assert.Nil(t, answered.God_Answer)

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	again, err := svc.MarkAnswered(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswer{})
	require.NoError(t, err)
	assert.Equal(t, first, *again.Date_Answered, "answering twice keeps the first date")

	_, err = svc.MarkAnswered(ctx, budiSession(), prayer.Prayer_ID, models.PrayerAnswer{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMarkAnsweredWithText(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)
	answeredAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return answeredAt }

	prayer := createPrayer(t, svc, anaSession(), "A job")

	_, err := svc.MarkAnswered(ctx, budiSession(), prayer.Prayer_ID, models.PrayerAnswer{God_Answer: strPtr("not mine")})
	require.ErrorIs(t, err, ErrForbidden)
	stored, err := svc.Get(ctx, anaSession(), prayer.Prayer_ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAnswered(), "a rejected answer writes nothing")
	assert.Nil(t, stored.God_Answer)

	answered, err := svc.MarkAnswered(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswer{God_Answer: strPtr("  Got the offer ")})
	require.NoError(t, err)
	require.NotNil(t, answered.God_Answer)
	assert.Equal(t, "Got the offer", *answered.God_Answer)
	assert.Equal(t, answeredAt, *answered.Date_Answered)

	stored, err = svc.Get(ctx, anaSession(), prayer.Prayer_ID)
	require.NoError(t, err)
	require.NotNil(t, stored.God_Answer)
	assert.Equal(t, "Got the offer", *stored.God_Answer)
	assert.Equal(t, answeredAt, *stored.Date_Answered)

	svc.now = func() time.Time { return answeredAt.Add(24 * time.Hour) }
	again, err := svc.MarkAnswered(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswer{God_Answer: strPtr("Started Monday")})
	require.NoError(t, err)
	assert.Equal(t, "Started Monday", *again.God_Answer)
	assert.Equal(t, answeredAt, *again.Date_Answered, "the first answer date is kept")
}

func TestWallWithFailedNameLookup(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewPrayerService(s, nil, zap.NewNop())
	_, err := NewProfileService(s, zap.NewNop()).LoadOrCreate(ctx, anaSession())
	require.NoError(t, err)
	createPrayer(t, svc, anaSession(), "mine")
	createPrayer(t, svc, budiSession(), "theirs")

	svc.store = lookupFailingStore{MemoryStore: s, failFor: "u2"}

	wall, err := svc.Wall(ctx, anaSession())
	require.NoError(t, err)
	require.Len(t, wall, 2)

	names := map[string]string{}
	for _, v := range wall {
		names[v.Requester_ID] = v.Requester_Name
	}
	assert.Equal(t, map[string]string{"u1": "Ana", "u2": ""}, names)
}

func TestUpdateAnswerEditsOneFieldAtATime(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)

	prayer := createPrayer(t, svc, anaSession(), "A job")
	_, err := svc.MarkAnswered(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswer{})
	require.NoError(t, err)

	_, err = svc.UpdateAnswer(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswerUpdate{Date_Answered: strPtr("2024-01-02")})
	require.NoError(t, err)

	updated, err := svc.UpdateAnswer(ctx, anaSession(), prayer.Prayer_ID, models.PrayerAnswerUpdate{God_Answer: strPtr("He provided")})
	require.NoError(t, err)
	assert.Equal(t, "He provided", *updated.God_Answer)
	assert.Equal(t, "2024-01-02", dates.FormatDate(updated.Date_Answered))

	stored, err := svc.Get(ctx, anaSession(), prayer.Prayer_ID)
	require.NoError(t, err)
	assert.Equal(t, "He provided", *stored.God_Answer)
	assert.Equal(t, "2024-01-02", dates.FormatDate(stored.Date_Answered), "editing the answer keeps the date")
}

func TestUpdateAnswerRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)

	open := createPrayer(t, svc, anaSession(), "Open")
	answered := createPrayer(t, svc, anaSession(), "Answered")
	_, err := svc.MarkAnswered(ctx, anaSession(), answered.Prayer_ID, models.PrayerAnswer{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		session models.Session
		id      string
		edit    models.PrayerAnswerUpdate
		wantErr error
	}{
		{"open prayer", anaSession(), open.Prayer_ID, models.PrayerAnswerUpdate{God_Answer: strPtr("x")}, ErrValidation},
		{"bad date", anaSession(), answered.Prayer_ID, models.PrayerAnswerUpdate{Date_Answered: strPtr("2024-13-45")}, ErrValidation},
		{"not the owner", budiSession(), answered.Prayer_ID, models.PrayerAnswerUpdate{God_Answer: strPtr("x")}, ErrForbidden},
		{"missing", anaSession(), "missing", models.PrayerAnswerUpdate{God_Answer: strPtr("x")}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateAnswer(ctx, tt.session, tt.id, tt.edit)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := svc.Get(ctx, anaSession(), answered.Prayer_ID)
	require.NoError(t, err)
	assert.Nil(t, stored.God_Answer, "rejected edits write nothing")
}

func TestUpdateCreatedDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)
	prayer := createPrayer(t, svc, anaSession(), "x")

	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"valid date", "2023-12-25", nil},
		{"empty", "", ErrValidation},
		{"wrong layout", "25/12/2023", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.UpdateCreatedDate(ctx, anaSession(), prayer.Prayer_ID, tt.date)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), updated.Date_Created)
		})
	}

	stored, err := svc.Get(ctx, anaSession(), prayer.Prayer_ID)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-25", dates.FormatDate(stored.Date_Created))
}

func TestDeletePrayer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPrayerService(t)
	prayer := createPrayer(t, svc, anaSession(), "x")

	assert.ErrorIs(t, svc.Delete(ctx, budiSession(), prayer.Prayer_ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, anaSession(), prayer.Prayer_ID))

	_, err := svc.Get(ctx, anaSession(), prayer.Prayer_ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, anaSession(), prayer.Prayer_ID), ErrNotFound)
}

func TestJournalAndWall(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	profiles := NewProfileService(s, zap.NewNop())
	svc := NewPrayerService(s, nil, zap.NewNop())

	for _, session := range []models.Session{anaSession(), budiSession()} {
		_, err := profiles.LoadOrCreate(ctx, session)
		require.NoError(t, err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		session models.Session
		text    string
	}{
		{anaSession(), "oldest"},
		{budiSession(), "middle"},
		{anaSession(), "newest"},
	} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		createPrayer(t, svc, tc.session, tc.text)
	}

	journal, err := svc.Journal(ctx, anaSession())
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, "newest", journal[0].Request_Text)
	assert.Equal(t, "oldest", journal[1].Request_Text)
	assert.Equal(t, "2024-01-01", journal[0].Date_Created_String)
	assert.Equal(t, dates.Placeholder, journal[0].Date_Answered_String)
	assert.Equal(t, models.PrayerTypeHealing.Color(), journal[0].Prayer_Type_Color)

	wall, err := svc.Wall(ctx, budiSession())
	require.NoError(t, err)
	require.Len(t, wall, 3)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, []string{wall[0].Request_Text, wall[1].Request_Text, wall[2].Request_Text})
	assert.Equal(t, "Ana", wall[0].Requester_Name)
	assert.Equal(t, "Budi", wall[1].Requester_Name)

	_, err = svc.Wall(ctx, models.Session{})
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestWallStoreFailure(t *testing.T) {
	svc := NewPrayerService(failingStore{err: errBackend}, nil, zap.NewNop())

	_, err := svc.Wall(context.Background(), anaSession())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestNewPrayerView(t *testing.T) {
	answeredAt := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	view := NewPrayerView(models.Prayer{
		Prayer_Type:   models.PrayerTypeThanksgiving,
		Date_Created:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Date_Answered: &answeredAt,
	})

	assert.True(t, view.Answered)
	assert.Equal(t, "2024-02-01", view.Date_Created_String)
	assert.Equal(t, "2024-02-03", view.Date_Answered_String)
	require.NotNil(t, view.Date_Answered_Pair)
	assert.Equal(t, answeredAt.Unix(), view.Date_Answered_Pair.Seconds)
	assert.Equal(t, "#32CD32", view.Prayer_Type_Color)
}
