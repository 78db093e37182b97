package middlewares

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/PrayerWall/models"
)

// SessionKey is the gin context key holding the models.Session of an
// authenticated request.
const SessionKey = "session"

var ErrInvalidToken = errors.New("invalid or expired token")

// IssueSessionToken signs an HS256 token carrying the identity.
func IssueSessionToken(secret []byte, identity models.Identity, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"id":  identity.ID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	if identity.DisplayName != "" {
		claims["name"] = identity.DisplayName
	}
	if identity.PhoneNumber != "" {
		claims["phone_number"] = identity.PhoneNumber
	}
	if identity.PhotoURL != "" {
		claims["picture"] = identity.PhotoURL
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates signature and expiry and rebuilds the session.
func ParseSessionToken(secret []byte, tokenString string) (models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return models.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Session{}, ErrInvalidToken
	}
	// jwt/v4 accepts tokens without exp; sessions must always expire.
	exp, ok := claims["exp"].(float64)
	if !ok {
		return models.Session{}, ErrInvalidToken
	}

	claim := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}

	session := models.NewSession(models.Identity{
		ID:          claim("id"),
		DisplayName: claim("name"),
		PhoneNumber: claim("phone_number"),
		PhotoURL:    claim("picture"),
		Email:       claim("email"),
	})
	session.ExpiresAt = time.Unix(int64(exp), 0)

	if !session.Authenticated() {
		return models.Session{}, ErrInvalidToken
	}
	return session, nil
}
