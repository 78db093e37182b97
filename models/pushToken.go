package models

import "time"

type PushToken struct {
	UserProfileID string    `json:"userProfileId" db:"user_profile_id" firestore:"userId"`
	PushToken     string    `json:"pushToken" db:"push_token" firestore:"pushToken"`
	Platform      string    `json:"platform" db:"platform" firestore:"platform"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at" firestore:"updatedAt"`
}

type PushTokenRequest struct {
	PushToken string `json:"pushToken" binding:"required"`
	Platform  string `json:"platform" binding:"required,oneof=ios android"`
}
