package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PrayerWall/regions"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

// Handler carries the services the HTTP handlers call into.
type Handler struct {
	Profiles  *services.ProfileService
	Prayers   *services.PrayerService
	Locations *services.LocationResolver
	Identity  services.IdentityVerifier
	Catalog   *regions.Catalog
	Store     store.DocumentStore

	Secret     []byte
	SessionTTL time.Duration
	Log        *zap.Logger
}

// respondError maps service errors onto status codes. Validation errors
// carry the offending field.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the requester can change this prayer"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable", "details": err.Error()})
	default:
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
