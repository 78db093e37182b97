package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

type ProfileService struct {
	store store.DocumentStore
	log   *zap.Logger
}

func NewProfileService(s store.DocumentStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: s, log: logger.Named("profiles")}
}

// LoadOrCreate returns the profile of the session's user, creating it from
// the identity on first sign-in. Existing profiles are never rewritten.
func (s *ProfileService) LoadOrCreate(ctx context.Context, session models.Session) (models.UserProfile, error) {
	if !session.Authenticated() {
		return models.UserProfile{}, ErrAuthRequired
	}
	id := session.UserID()

	profile, found, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.log.Error("load profile", zap.String("user_id", id), zap.Error(err))
		return models.UserProfile{}, persistence("load profile", err)
	}
	if found {
		return profile, nil
	}

	identity := session.Identity
	profile = models.UserProfile{
		User_Profile_ID:     id,
		Google_Display_Name: identity.DisplayName,
		Google_Phone:        identity.PhoneNumber,
		Display_Name:        identity.DisplayName,
		Whatsapp_Number:     identity.PhoneNumber,
		Email:               identity.Email,
		Photo_URL:           identity.PhotoURL,
	}
	if err := s.store.CreateUser(ctx, profile); err != nil {
		s.log.Error("create profile", zap.String("user_id", id), zap.Error(err))
		return models.UserProfile{}, persistence("create profile", err)
	}

	// Another sign-in may have created the record first; return what was stored.
	stored, found, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.UserProfile{}, persistence("load profile", err)
	}
	if !found {
		return profile, nil
	}

	s.log.Info("created profile", zap.String("user_id", id))
	return stored, nil
}

// Save writes the editable fields that are set on update.
func (s *ProfileService) Save(ctx context.Context, session models.Session, update models.UserProfileUpdate) (models.UserProfile, error) {
	if !session.Authenticated() {
		return models.UserProfile{}, ErrAuthRequired
	}
	id := session.UserID()

	if update.Home_Location != nil {
		trimmed := strings.TrimSpace(*update.Home_Location)
		update.Home_Location = &trimmed
	}
	if update.Display_Name != nil {
		trimmed := strings.TrimSpace(*update.Display_Name)
		update.Display_Name = &trimmed
	}
	if update.Whatsapp_Number != nil {
		trimmed := strings.TrimSpace(*update.Whatsapp_Number)
		update.Whatsapp_Number = &trimmed
	}

	if !update.IsEmpty() {
		if err := s.store.UpdateUser(ctx, id, update); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.UserProfile{}, ErrNotFound
			}
			s.log.Error("save profile", zap.String("user_id", id), zap.Error(err))
			return models.UserProfile{}, persistence("save profile", err)
		}
	}

	profile, found, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.UserProfile{}, persistence("load profile", err)
	}
	if !found {
		return models.UserProfile{}, ErrNotFound
	}
	return profile, nil
}

// SaveDetectedLocation records the location resolved from device coordinates.
func (s *ProfileService) SaveDetectedLocation(ctx context.Context, userID, detected string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrAuthRequired
	}

	err := s.store.UpdateUser(ctx, userID, models.UserProfileUpdate{Detected_Location: &detected})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return persistence("save detected location", err)
	}
	return nil
}
