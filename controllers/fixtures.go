package controllers

import (
	"time"

	"github.com/PrayerWall/models"
)

// Test fixture data for use in tests

func MockIdentity() models.Identity {
	return models.Identity{
		ID:          "u1",
		DisplayName: "Ana",
		PhoneNumber: "+628123456789",
		Email:       "ana@example.com",
	}
}

func MockOtherIdentity() models.Identity {
	return models.Identity{ID: "u2", DisplayName: "Budi"}
}

// MockPrayer creates an open prayer owned by MockIdentity.
func MockPrayer() models.Prayer {
	return models.Prayer{
		Requester_ID:     "u1",
		Request_Text:     "Healing for my mother",
		Prayer_Type:      models.PrayerTypeHealing,
		Date_Created:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Prayed_For_Count: 3,
	}
}

// MockAnsweredPrayer creates an answered prayer owned by MockIdentity.
func MockAnsweredPrayer() models.Prayer {
	answeredAt := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	answer := "She recovered"
	p := MockPrayer()
	p.Date_Answered = &answeredAt
	p.God_Answer = &answer
	return p
}
