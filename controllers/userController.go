package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

// UserLogin exchanges an identity provider token for a session token and
// makes sure the user has a profile.
func (h *Handler) UserLogin(c *gin.Context) {
	var login models.LoginRequest
	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	identity, err := h.Identity.Verify(c, login.ID_Token)
	if errors.Is(err, services.ErrUnavailable) {
		h.respondError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid identity token"})
		return
	}

	session := models.NewSession(identity)
	profile, err := h.Profiles.LoadOrCreate(c, session)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresAt, err := middlewares.IssueSessionToken(h.Secret, identity, h.SessionTTL)
	if err != nil {
		h.Log.Error("issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.Log.Info("user signed in", zap.String("user_id", identity.ID))
	c.JSON(http.StatusOK, gin.H{
		"message":   "User logged in successfully.",
		"token":     token,
		"expiresAt": expiresAt.UTC(),
		"user":      profile,
	})
}

// UserLogout exists for symmetry with login; session tokens are discarded
// by the client.
func (h *Handler) UserLogout(c *gin.Context) {
	session := middlewares.CurrentSession(c)
	h.Log.Info("user signed out", zap.String("user_id", session.UserID()))
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	profile, err := h.Profiles.LoadOrCreate(c, middlewares.CurrentSession(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	var update models.UserProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	profile, err := h.Profiles.Save(c, middlewares.CurrentSession(c), update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully.", "user": profile})
}

// DetectUserLocation resolves device coordinates. When location access was
// denied or detection fails the response still succeeds and carries the
// manual-selection options with an advisory message.
func (h *Handler) DetectUserLocation(c *gin.Context) {
	var req models.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var coords *services.Coordinates
	if req.Latitude != nil && req.Longitude != nil {
		coords = &services.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	session := middlewares.CurrentSession(c)
	result, err := h.Locations.Resolve(c.Request.Context(), session.UserID(), coords)
	if services.IsUnavailable(err) {
		c.JSON(http.StatusOK, gin.H{
			"detected": "",
			"message":  "Location detection is not available. Please select your city manually.",
			"options":  h.Catalog.LocationOptions(""),
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) StorePushToken(c *gin.Context) {
	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session := middlewares.CurrentSession(c)
	token := models.PushToken{
		UserProfileID: session.UserID(),
		PushToken:     req.PushToken,
		Platform:      req.Platform,
	}
	if err := h.Store.SavePushToken(c, token); err != nil {
		h.Log.Error("save push token", zap.String("user_id", session.UserID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token stored successfully"})
}

// GetUserPrayers is the journal: the signed-in user's own prayers.
func (h *Handler) GetUserPrayers(c *gin.Context) {
	journal, err := h.Prayers.Journal(c, middlewares.CurrentSession(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, journal)
}

func (h *Handler) GetLocationOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.LocationOptions(c.Query("detected")))
}
