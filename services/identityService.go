package services

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
)

// IdentityVerifier exchanges an identity provider token for the identity it
// was issued to.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (models.Identity, error)
}

// FirebaseIdentityVerifier verifies Firebase Authentication ID tokens.
type FirebaseIdentityVerifier struct {
	client *auth.Client
	log    *zap.Logger
}

func NewFirebaseIdentityVerifier(client *auth.Client, logger *zap.Logger) *FirebaseIdentityVerifier {
	return &FirebaseIdentityVerifier{client: client, log: logger.Named("identity")}
}

func (v *FirebaseIdentityVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	if idToken == "" {
		return models.Identity{}, ErrAuthRequired
	}

	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		v.log.Warn("rejected id token", zap.Error(err))
		return models.Identity{}, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}

	return IdentityFromClaims(token.UID, token.Claims), nil
}

// IdentityFromClaims maps the standard Firebase token claims onto an
// Identity. Missing claims become empty strings.
func IdentityFromClaims(uid string, claims map[string]interface{}) models.Identity {
	claim := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}

	return models.Identity{
		ID:          uid,
		DisplayName: claim("name"),
		PhoneNumber: claim("phone_number"),
		PhotoURL:    claim("picture"),
		Email:       claim("email"),
	}
}

// ErrNoIdentityProvider is returned at sign-in when the server runs without
// Firebase, which is only allowed on the memory backend.
var ErrNoIdentityProvider = fmt.Errorf("%w: no identity provider configured", ErrUnavailable)

// DisabledIdentityVerifier rejects every sign-in.
type DisabledIdentityVerifier struct{}

func (DisabledIdentityVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	return models.Identity{}, ErrNoIdentityProvider
}
