package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PrayerWall/dates"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

// wallLookupLimit bounds concurrent requester lookups when building the wall.
const wallLookupLimit = 8

// PrayerView is a prayer as rendered to clients.
type PrayerView struct {
	models.Prayer
	Date_Created_Pair    dates.SecondsPair  `json:"dateCreatedSeconds"`
	Date_Answered_Pair   *dates.SecondsPair `json:"dateAnsweredSeconds"`
	Date_Created_String  string             `json:"dateCreatedString"`
	Date_Answered_String string             `json:"dateAnsweredString"`
	Prayer_Type_Color    string             `json:"prayerTypeColor"`
	Requester_Name       string             `json:"requesterName,omitempty"`
	Answered             bool               `json:"answered"`
}

func NewPrayerView(p models.Prayer) PrayerView {
	view := PrayerView{
		Prayer:               p,
		Date_Created_Pair:    dates.ToSecondsPair(p.Date_Created),
		Date_Created_String:  dates.FormatDate(p.Date_Created),
		Date_Answered_String: dates.FormatDate(p.Date_Answered),
		Prayer_Type_Color:    p.Prayer_Type.Color(),
		Answered:             p.IsAnswered(),
	}
	if p.Date_Answered != nil {
		pair := dates.ToSecondsPair(*p.Date_Answered)
		view.Date_Answered_Pair = &pair
	}
	return view
}

// PrayedForNotifier is told when a member prays for someone's request.
type PrayedForNotifier interface {
	PrayedFor(prayer models.Prayer, actor models.Session, count int)
}

type PrayerService struct {
	store    store.DocumentStore
	notifier PrayedForNotifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPrayerService(s store.DocumentStore, notifier PrayedForNotifier, logger *zap.Logger) *PrayerService {
	return &PrayerService{
		store:    s,
		notifier: notifier,
		log:      logger.Named("prayers"),
		now:      time.Now,
	}
}

func (s *PrayerService) Create(ctx context.Context, session models.Session, draft models.PrayerCreate) (models.Prayer, error) {
	if !session.Authenticated() {
		return models.Prayer{}, ErrAuthRequired
	}

	text := strings.TrimSpace(draft.Request_Text)
	if text == "" {
		return models.Prayer{}, invalid("requestText", "prayer request cannot be empty")
	}
	prayerType, ok := models.ParsePrayerType(draft.Prayer_Type)
	if !ok {
		return models.Prayer{}, invalid("prayerType", "must be one of "+models.PrayerTypeNames())
	}

	prayer := models.Prayer{
		Requester_ID:     session.UserID(),
		Request_Text:     text,
		Prayer_Type:      prayerType,
		Date_Created:     s.now().UTC(),
		Prayed_For_Count: 0,
	}

	id, err := s.store.CreatePrayer(ctx, prayer)
	if err != nil {
		s.log.Error("create prayer", zap.String("user_id", prayer.Requester_ID), zap.Error(err))
		return models.Prayer{}, persistence("create prayer", err)
	}
	prayer.Prayer_ID = id

	s.log.Info("prayer created", zap.String("prayer_id", id), zap.String("user_id", prayer.Requester_ID))
	return prayer, nil
}

// Get is a fresh read; there is no local copy to go stale.
func (s *PrayerService) Get(ctx context.Context, session models.Session, id string) (models.Prayer, error) {
	if !session.Authenticated() {
		return models.Prayer{}, ErrAuthRequired
	}
	return s.load(ctx, id)
}

func (s *PrayerService) load(ctx context.Context, id string) (models.Prayer, error) {
	prayer, found, err := s.store.GetPrayer(ctx, id)
	if err != nil {
		s.log.Error("load prayer", zap.String("prayer_id", id), zap.Error(err))
		return models.Prayer{}, persistence("load prayer", err)
	}
	if !found {
		return models.Prayer{}, ErrNotFound
	}
	return prayer, nil
}

func (s *PrayerService) loadOwned(ctx context.Context, session models.Session, id string) (models.Prayer, error) {
	if !session.Authenticated() {
		return models.Prayer{}, ErrAuthRequired
	}
	prayer, err := s.load(ctx, id)
	if err != nil {
		return models.Prayer{}, err
	}
	if prayer.Requester_ID != session.UserID() {
		return models.Prayer{}, ErrForbidden
	}
	return prayer, nil
}

func (s *PrayerService) update(ctx context.Context, id string, update models.PrayerUpdate) error {
	err := s.store.UpdatePrayer(ctx, id, update)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error("update prayer", zap.String("prayer_id", id), zap.Error(err))
		return persistence("update prayer", err)
	}
	return nil
}

// MarkAnswered moves an open prayer to the answered state, recording the
// answer text in the same write when one is given. Answering twice keeps the
// first date; a text sent with the repeat replaces the stored one.
func (s *PrayerService) MarkAnswered(ctx context.Context, session models.Session, id string, answer models.PrayerAnswer) (models.Prayer, error) {
	prayer, err := s.loadOwned(ctx, session, id)
	if err != nil {
		return models.Prayer{}, err
	}

	var update models.PrayerUpdate
	if answer.God_Answer != nil {
		text := strings.TrimSpace(*answer.God_Answer)
		update.God_Answer = &text
	}
	if !prayer.IsAnswered() {
		answeredAt := s.now().UTC()
		update.Date_Answered = &answeredAt
	}
	if update.IsEmpty() {
		return prayer, nil
	}

	if err := s.update(ctx, id, update); err != nil {
		return models.Prayer{}, err
	}

	if update.Date_Answered != nil {
		prayer.Date_Answered = update.Date_Answered
	}
	if update.God_Answer != nil {
		prayer.God_Answer = update.God_Answer
	}
	return prayer, nil
}

// UpdateAnswer edits the answer text and/or the answer date of an answered
// prayer. Each field is written only when present.
func (s *PrayerService) UpdateAnswer(ctx context.Context, session models.Session, id string, edit models.PrayerAnswerUpdate) (models.Prayer, error) {
	prayer, err := s.loadOwned(ctx, session, id)
	if err != nil {
		return models.Prayer{}, err
	}
	if !prayer.IsAnswered() {
		return models.Prayer{}, invalid("dateAnswered", "prayer has not been marked answered")
	}

	var update models.PrayerUpdate
	if edit.God_Answer != nil {
		answer := strings.TrimSpace(*edit.God_Answer)
		update.God_Answer = &answer
	}
	if edit.Date_Answered != nil {
		answeredAt, err := dates.ParseDate(*edit.Date_Answered)
		if err != nil {
			s.log.Warn("rejected answer date", zap.String("prayer_id", id), zap.Error(err))
			return models.Prayer{}, invalid("dateAnswered", err.Error())
		}
		update.Date_Answered = &answeredAt
	}
	if update.IsEmpty() {
		return prayer, nil
	}

	if err := s.update(ctx, id, update); err != nil {
		return models.Prayer{}, err
	}

	if update.God_Answer != nil {
		prayer.God_Answer = update.God_Answer
	}
	if update.Date_Answered != nil {
		prayer.Date_Answered = update.Date_Answered
	}
	return prayer, nil
}

func (s *PrayerService) UpdateCreatedDate(ctx context.Context, session models.Session, id, date string) (models.Prayer, error) {
	prayer, err := s.loadOwned(ctx, session, id)
	if err != nil {
		return models.Prayer{}, err
	}

	created, err := dates.ParseDate(date)
	if err != nil {
		s.log.Warn("rejected created date", zap.String("prayer_id", id), zap.Error(err))
		return models.Prayer{}, invalid("dateCreated", err.Error())
	}

	if err := s.update(ctx, id, models.PrayerUpdate{Date_Created: &created}); err != nil {
		return models.Prayer{}, err
	}

	prayer.Date_Created = created
	return prayer, nil
}

func (s *PrayerService) Delete(ctx context.Context, session models.Session, id string) error {
	if _, err := s.loadOwned(ctx, session, id); err != nil {
		return err
	}

	err := s.store.DeletePrayer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error("delete prayer", zap.String("prayer_id", id), zap.Error(err))
		return persistence("delete prayer", err)
	}

	s.log.Info("prayer deleted", zap.String("prayer_id", id))
	return nil
}

// IncrementPrayedFor records that the session's user prayed for the request.
// Any signed-in member may do this, including the requester.
func (s *PrayerService) IncrementPrayedFor(ctx context.Context, session models.Session, id string) (int, error) {
	if !session.Authenticated() {
		return 0, ErrAuthRequired
	}

	count, err := s.store.IncrementPrayedFor(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		s.log.Error("increment prayed for", zap.String("prayer_id", id), zap.Error(err))
		return 0, persistence("increment prayed for", err)
	}

	if s.notifier != nil {
		if prayer, found, err := s.store.GetPrayer(ctx, id); err == nil && found {
			s.notifier.PrayedFor(prayer, session, count)
		}
	}

	return count, nil
}

// Journal lists the session user's own prayers, newest first.
func (s *PrayerService) Journal(ctx context.Context, session models.Session) ([]PrayerView, error) {
	if !session.Authenticated() {
		return nil, ErrAuthRequired
	}

	prayers, err := s.store.QueryPrayers(ctx, models.PrayerFilter{Requester_ID: session.UserID()})
	if err != nil {
		s.log.Error("query journal", zap.String("user_id", session.UserID()), zap.Error(err))
		return nil, persistence("query journal", err)
	}

	sortNewestFirst(prayers)
	views := make([]PrayerView, len(prayers))
	for i, p := range prayers {
		views[i] = NewPrayerView(p)
	}
	return views, nil
}

// Wall lists every prayer, newest first, with the requester's display name.
func (s *PrayerService) Wall(ctx context.Context, session models.Session) ([]PrayerView, error) {
	if !session.Authenticated() {
		return nil, ErrAuthRequired
	}

	prayers, err := s.store.QueryPrayers(ctx, models.PrayerFilter{})
	if err != nil {
		s.log.Error("query wall", zap.Error(err))
		return nil, persistence("query wall", err)
	}
	sortNewestFirst(prayers)

	names := s.requesterNames(ctx, prayers)

	views := make([]PrayerView, len(prayers))
	for i, p := range prayers {
		views[i] = NewPrayerView(p)
		views[i].Requester_Name = names[p.Requester_ID]
	}
	return views, nil
}

func (s *PrayerService) requesterNames(ctx context.Context, prayers []models.Prayer) map[string]string {
	ids := make([]string, 0, len(prayers))
	seen := make(map[string]bool, len(prayers))
	for _, p := range prayers {
		if !seen[p.Requester_ID] {
			seen[p.Requester_ID] = true
			ids = append(ids, p.Requester_ID)
		}
	}

	// A failed lookup leaves that name blank instead of failing the wall.
	names := make([]string, len(ids))
	var g errgroup.Group
	g.SetLimit(wallLookupLimit)
	for i, id := range ids {
		g.Go(func() error {
			profile, found, err := s.store.GetUser(ctx, id)
			if err != nil {
				s.log.Warn("load requester name", zap.String("user_id", id), zap.Error(err))
				return nil
			}
			if found {
				names[i] = profile.Display_Name
			}
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]string, len(ids))
	for i, id := range ids {
		byID[id] = names[i]
	}
	return byID
}

func sortNewestFirst(prayers []models.Prayer) {
	sort.SliceStable(prayers, func(i, j int) bool {
		return prayers[i].Date_Created.After(prayers[j].Date_Created)
	})
}
