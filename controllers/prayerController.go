package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

func (h *Handler) CreatePrayer(c *gin.Context) {
	var draft models.PrayerCreate
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := h.Prayers.Create(c, middlewares.CurrentSession(c), draft)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Prayer created successfully.",
		"prayer":  services.NewPrayerView(prayer),
	})
}

// GetWall lists every prayer for the community wall.
func (h *Handler) GetWall(c *gin.Context) {
	wall, err := h.Prayers.Wall(c, middlewares.CurrentSession(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wall)
}

func (h *Handler) GetPrayer(c *gin.Context) {
	prayer, err := h.Prayers.Get(c, middlewares.CurrentSession(c), c.Param("prayer_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewPrayerView(prayer))
}

func (h *Handler) PrayedFor(c *gin.Context) {
	prayerID := c.Param("prayer_id")

	count, err := h.Prayers.IncrementPrayedFor(c, middlewares.CurrentSession(c), prayerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prayerId": prayerID, "prayedForCount": count})
}

// MarkPrayerAnswered accepts an empty body or {"godAnswer": "..."}.
func (h *Handler) MarkPrayerAnswered(c *gin.Context) {
	var answer models.PrayerAnswer
	if err := c.ShouldBindJSON(&answer); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := h.Prayers.MarkAnswered(c, middlewares.CurrentSession(c), c.Param("prayer_id"), answer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewPrayerView(prayer))
}

func (h *Handler) UpdatePrayerAnswer(c *gin.Context) {
	var edit models.PrayerAnswerUpdate
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := h.Prayers.UpdateAnswer(c, middlewares.CurrentSession(c), c.Param("prayer_id"), edit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewPrayerView(prayer))
}

func (h *Handler) UpdatePrayerDateCreated(c *gin.Context) {
	var edit models.PrayerDateUpdate
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := h.Prayers.UpdateCreatedDate(c, middlewares.CurrentSession(c), c.Param("prayer_id"), edit.Date_Created)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewPrayerView(prayer))
}

func (h *Handler) DeletePrayer(c *gin.Context) {
	if err := h.Prayers.Delete(c, middlewares.CurrentSession(c), c.Param("prayer_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prayer deleted successfully."})
}
