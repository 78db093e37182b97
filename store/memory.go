package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/PrayerWall/models"
)

// MemoryStore keeps everything in process. Used for local development and
// tests; data does not survive a restart.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]models.UserProfile
	prayers    map[string]models.Prayer
	pushTokens map[string]models.PushToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.UserProfile),
		prayers:    make(map[string]models.Prayer),
		pushTokens: make(map[string]models.PushToken),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (models.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[id]
	return profile, ok, ctx.Err()
}

func (s *MemoryStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[profile.User_Profile_ID]; !exists {
		s.users[profile.User_Profile_ID] = profile
	}
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, update models.UserProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	s.users[id] = update.Apply(profile)
	return nil
}

func (s *MemoryStore) GetPrayer(ctx context.Context, id string) (models.Prayer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prayer, ok := s.prayers[id]
	return clonePrayer(prayer), ok, ctx.Err()
}

func (s *MemoryStore) CreatePrayer(ctx context.Context, prayer models.Prayer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prayer.Prayer_ID = uuid.NewString()
	s.prayers[prayer.Prayer_ID] = clonePrayer(prayer)
	return prayer.Prayer_ID, nil
}

func (s *MemoryStore) UpdatePrayer(ctx context.Context, id string, update models.PrayerUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prayer, ok := s.prayers[id]
	if !ok {
		return ErrNotFound
	}

	if update.Date_Created != nil {
		prayer.Date_Created = *update.Date_Created
	}
	if update.Date_Answered != nil {
		answered := *update.Date_Answered
		prayer.Date_Answered = &answered
	}
	if update.God_Answer != nil {
		answer := *update.God_Answer
		prayer.God_Answer = &answer
	}

	s.prayers[id] = prayer
	return nil
}

func (s *MemoryStore) DeletePrayer(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prayers[id]; !ok {
		return ErrNotFound
	}
	delete(s.prayers, id)
	return nil
}

func (s *MemoryStore) QueryPrayers(ctx context.Context, filter models.PrayerFilter) ([]models.Prayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prayers := make([]models.Prayer, 0, len(s.prayers))
	for _, p := range s.prayers {
		if filter.Requester_ID != "" && p.Requester_ID != filter.Requester_ID {
			continue
		}
		prayers = append(prayers, clonePrayer(p))
	}

	// map iteration order is random; keep reads stable
	sort.Slice(prayers, func(i, j int) bool { return prayers[i].Prayer_ID < prayers[j].Prayer_ID })
	return prayers, nil
}

func (s *MemoryStore) IncrementPrayedFor(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prayer, ok := s.prayers[id]
	if !ok {
		return 0, ErrNotFound
	}
	prayer.Prayed_For_Count++
	s.prayers[id] = prayer
	return prayer.Prayed_For_Count, nil
}

func (s *MemoryStore) SavePushToken(ctx context.Context, token models.PushToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushTokens[token.PushToken] = token
	return nil
}

func (s *MemoryStore) ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var tokens []models.PushToken
	for _, t := range s.pushTokens {
		if t.UserProfileID == userID {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].PushToken < tokens[j].PushToken })
	return tokens, nil
}

// clonePrayer detaches the pointer fields so callers cannot mutate stored state.
func clonePrayer(p models.Prayer) models.Prayer {
	if p.Date_Answered != nil {
		answered := *p.Date_Answered
		p.Date_Answered = &answered
	}
	if p.God_Answer != nil {
		answer := *p.God_Answer
		p.God_Answer = &answer
	}
	return p
}
