package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/middlewares"
)

// NewRouter registers every route. gin.Default adds the access log and
// panic recovery.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	getKey := func(c *gin.Context) string {
		if gin.Mode() == gin.DebugMode {
			return c.FullPath()
		}
		return c.ClientIP()
	}

	router.POST("/login", middlewares.RateLimitMiddleware(2, 2, getKey), h.UserLogin)
	router.GET("/ping", middlewares.RateLimitMiddleware(2, 2, getKey), Ping)
	router.GET("/regions/options", middlewares.RateLimitMiddleware(5, 5, getKey), h.GetLocationOptions)

	auth := router.Group("/")
	auth.Use(middlewares.CheckAuth(h.Secret))
	auth.Use(middlewares.RateLimitMiddleware(10, 10, middlewares.SessionOrIPKey))
	{
		auth.POST("/logout", h.UserLogout)

		// user routes
		auth.GET("/users/me", h.GetCurrentUser)
		auth.PATCH("/users/me", h.UpdateCurrentUser)
		auth.POST("/users/me/location", middlewares.RateLimitMiddleware(1, 1, middlewares.SessionOrIPKey), h.DetectUserLocation)
		auth.GET("/users/me/prayers", h.GetUserPrayers)
		auth.POST("/users/push-token", h.StorePushToken)

		// prayer routes
		auth.POST("/prayers", h.CreatePrayer)
		auth.GET("/prayers", h.GetWall)
		auth.GET("/prayers/:prayer_id", h.GetPrayer)
		auth.DELETE("/prayers/:prayer_id", h.DeletePrayer)
		auth.POST("/prayers/:prayer_id/prayed-for", h.PrayedFor)
		auth.POST("/prayers/:prayer_id/answer", h.MarkPrayerAnswered)
		auth.PATCH("/prayers/:prayer_id/answer", h.UpdatePrayerAnswer)
		auth.PATCH("/prayers/:prayer_id/date-created", h.UpdatePrayerDateCreated)
	}

	return router
}
