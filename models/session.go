package models

import (
	"strings"
	"time"
)

// Identity is what the identity provider tells us about a signed-in user.
// Only ID is guaranteed.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Session is passed explicitly to every operation that needs to know who is
// acting. The zero value is an anonymous session.
type Session struct {
	Identity  Identity
	ExpiresAt time.Time
}

func NewSession(identity Identity) Session {
	return Session{Identity: identity}
}

func (s Session) UserID() string {
	return strings.TrimSpace(s.Identity.ID)
}

func (s Session) Authenticated() bool {
	return s.UserID() != ""
}

type LoginRequest struct {
	ID_Token string `json:"idToken" binding:"required"`
}

// LocationRequest carries device coordinates. Both are nil when the user
// denied location access.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
