package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PrayerWall/geocoding"
	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/regions"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

var testSecret = []byte("controllers-test-secret")

// StubIdentityVerifier accepts tokens listed in Identities.
type StubIdentityVerifier struct {
	Identities map[string]models.Identity
}

func (s StubIdentityVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	identity, ok := s.Identities[idToken]
	if !ok {
		return models.Identity{}, services.ErrAuthRequired
	}
	return identity, nil
}

// StubGeocoder returns Address, or Err when set.
type StubGeocoder struct {
	Address geocoding.Address
	Err     error
}

func (s StubGeocoder) Reverse(ctx context.Context, latitude, longitude float64) (geocoding.Address, error) {
	return s.Address, s.Err
}

// SetupTestHandler wires a Handler over an in-memory store. The cleanup
// waits for background location writes.
func SetupTestHandler(t *testing.T, geocoder geocoding.Geocoder) (*Handler, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	s := store.NewMemoryStore()
	profiles := services.NewProfileService(s, logger)
	locations := services.NewLocationResolver(geocoder, regions.Default(), profiles, logger)
	t.Cleanup(locations.Wait)

	h := &Handler{
		Profiles:  profiles,
		Prayers:   services.NewPrayerService(s, nil, logger),
		Locations: locations,
		Identity: StubIdentityVerifier{Identities: map[string]models.Identity{
			"ana-id-token":  MockIdentity(),
			"budi-id-token": MockOtherIdentity(),
		}},
		Catalog:    regions.Default(),
		Store:      s,
		Secret:     testSecret,
		SessionTTL: time.Hour,
		Log:        logger,
	}
	return h, s
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// SetAuthenticatedUser stores the session the way CheckAuth does.
func SetAuthenticatedUser(c *gin.Context, identity models.Identity) {
	c.Set(middlewares.SessionKey, models.NewSession(identity))
}

// DoRequest sends a JSON request through router, signed in as identity
// unless identity is nil.
func DoRequest(t *testing.T, router http.Handler, method, path string, body any, identity *models.Identity) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		token, _, err := middlewares.IssueSessionToken(testSecret, *identity, time.Hour)
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
