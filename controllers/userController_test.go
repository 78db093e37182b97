package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/geocoding"
	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/regions"
	"github.com/PrayerWall/services"
)

func TestUserLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectToken    bool
	}{
		{
			name:           "valid identity token",
			body:           gin.H{"idToken": "ana-id-token"},
			expectedStatus: http.StatusOK,
			expectToken:    true,
		},
		{
			name:           "unknown identity token",
			body:           gin.H{"idToken": "forged"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing identity token",
			body:           gin.H{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s := SetupTestHandler(t, StubGeocoder{})
			router := NewRouter(h)

			w := DoRequest(t, router, http.MethodPost, "/login", tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if !tt.expectToken {
				return
			}

			var response struct {
				Token string             `json:"token"`
				User  models.UserProfile `json:"user"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "u1", response.User.User_Profile_ID)
			assert.Equal(t, "Ana", response.User.Google_Display_Name)

			session, err := middlewares.ParseSessionToken(testSecret, response.Token)
			require.NoError(t, err)
			assert.Equal(t, "u1", session.UserID())

			_, found, err := s.GetUser(context.Background(), "u1")
			require.NoError(t, err)
			assert.True(t, found, "first login creates the profile")
		})
	}
}

func TestUserLoginWithoutIdentityProvider(t *testing.T) {
	h, _ := SetupTestHandler(t, StubGeocoder{})
	h.Identity = services.DisabledIdentityVerifier{}
	router := NewRouter(h)

	w := DoRequest(t, router, http.MethodPost, "/login", gin.H{"idToken": "ana-id-token"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	h, _ := SetupTestHandler(t, StubGeocoder{})
	router := NewRouter(h)

	for _, path := range []string{"/users/me", "/users/me/prayers", "/prayers"} {
		w := DoRequest(t, router, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestGetAndUpdateCurrentUser(t *testing.T) {
	h, _ := SetupTestHandler(t, StubGeocoder{})
	router := NewRouter(h)
	ana := MockIdentity()

	w := DoRequest(t, router, http.MethodGet, "/users/me", nil, &ana)
	require.Equal(t, http.StatusOK, w.Code)

	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Ana", profile.Display_Name)
	assert.Equal(t, "+628123456789", profile.Whatsapp_Number)

	w = DoRequest(t, router, http.MethodPatch, "/users/me", gin.H{
		"homeLocation":      "Surabaya, Jawa Timur",
		"googleDisplayName": "ignored",
		"detectedLocation":  "ignored",
	}, &ana)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		User models.UserProfile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Surabaya, Jawa Timur", response.User.Home_Location)
	assert.Equal(t, "Ana", response.User.Google_Display_Name, "provenance fields are not editable")
	assert.Empty(t, response.User.Detected_Location, "detected location is not client editable")
}

func TestDetectUserLocation(t *testing.T) {
	tests := []struct {
		name           string
		geocoder       StubGeocoder
		body           any
		expectedStatus int
		wantDetected   string
		wantAdvisory   bool
	}{
		{
			name:           "detected and persisted",
			geocoder:       StubGeocoder{Address: geocoding.Address{City: "Surabaya", State: "East Java"}},
			body:           gin.H{"latitude": -7.25, "longitude": 112.75},
			expectedStatus: http.StatusOK,
			wantDetected:   "Surabaya, Jawa Timur",
		},
		{
			name:           "permission denied",
			geocoder:       StubGeocoder{},
			body:           gin.H{},
			expectedStatus: http.StatusOK,
			wantAdvisory:   true,
		},
		{
			name:           "geocoder failure",
			geocoder:       StubGeocoder{Err: geocoding.ErrNoAddress},
			body:           gin.H{"latitude": 1.0, "longitude": 2.0},
			expectedStatus: http.StatusOK,
			wantAdvisory:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s := SetupTestHandler(t, tt.geocoder)
			router := NewRouter(h)
			ana := MockIdentity()

			_, err := h.Profiles.LoadOrCreate(context.Background(), models.NewSession(ana))
			require.NoError(t, err)

			w := DoRequest(t, router, http.MethodPost, "/users/me/location", tt.body, &ana)
			require.Equal(t, tt.expectedStatus, w.Code)

			var response struct {
				Detected string           `json:"detected"`
				Message  string           `json:"message"`
				Options  []regions.Option `json:"options"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Options)

			if tt.wantAdvisory {
				assert.NotEmpty(t, response.Message)
				assert.Empty(t, response.Detected)
				return
			}

			assert.Equal(t, tt.wantDetected, response.Detected)
			h.Locations.Wait()
			profile, _, err := s.GetUser(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDetected, profile.Detected_Location)
		})
	}
}

func TestStorePushToken(t *testing.T) {
	h, s := SetupTestHandler(t, StubGeocoder{})
	router := NewRouter(h)
	ana := MockIdentity()

	w := DoRequest(t, router, http.MethodPost, "/users/push-token", gin.H{"pushToken": "tok", "platform": "ios"}, &ana)
	require.Equal(t, http.StatusOK, w.Code)

	tokens, err := s.ListPushTokens(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "ios", tokens[0].Platform)

	w = DoRequest(t, router, http.MethodPost, "/users/push-token", gin.H{"pushToken": "tok", "platform": "windows"}, &ana)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLocationOptions(t *testing.T) {
	h, _ := SetupTestHandler(t, StubGeocoder{})

	c, w := SetupTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/regions/options?detected=Surabaya,%20Jawa%20Timur", nil)
	h.GetLocationOptions(c)

	require.Equal(t, http.StatusOK, w.Code)
	var options []regions.Option
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	require.NotEmpty(t, options)
	assert.Equal(t, "📍 Surabaya, Jawa Timur (Detected)", options[0].Label)
}

func TestUserLogout(t *testing.T) {
	h, _ := SetupTestHandler(t, StubGeocoder{})

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockIdentity())
	h.UserLogout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
}
