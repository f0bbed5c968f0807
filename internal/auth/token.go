package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any missing, malformed, expired or
// otherwise unverifiable credential.
var ErrUnauthorized = errors.New("unauthorized")

// TokenManager issues and verifies the signed session credential shared by
// the HTTP API and the WebSocket handshake.
type TokenManager struct {
	secret     []byte
	expiry     time.Duration
	cookieName string
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, expiry time.Duration, cookieName string) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		expiry:     expiry,
		cookieName: cookieName,
	}
}

// CookieName returns the name of the session cookie
func (t *TokenManager) CookieName() string {
	return t.cookieName
}

// Issue creates a signed token for the given user ID
func (t *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(t.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token string and returns the user ID it carries
func (t *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		// Fall back to the subject claim
		if sub, ok := claims["sub"].(string); ok {
			return sub, nil
		}
		return "", ErrUnauthorized
	}
	return userID, nil
}

// FromRequest extracts the credential from a request: the session cookie,
// the Authorization header, or a token query parameter, in that order.
func (t *TokenManager) FromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(t.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearer(header)
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrUnauthorized
}

func extractBearer(header string) (string, error) {
	parts := strings.Split(header, " ")
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		if !strings.EqualFold(parts[0], "bearer") {
			return "", ErrUnauthorized
		}
		return parts[1], nil
	default:
		return "", ErrUnauthorized
	}
}
