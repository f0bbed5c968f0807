package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueVerify(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour, "chatts-token")

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenManager_VerifyRejectsBadTokens(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour, "chatts-token")

	_, err := tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// signed with a different secret
	other := NewTokenManager("other-secret", time.Hour, "chatts-token")
	forged, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(forged)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_VerifyRejectsExpired(t *testing.T) {
	tokens := NewTokenManager("test-secret", -time.Minute, "chatts-token")

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_FromRequest(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour, "chatts-token")

	// cookie
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "chatts-token", Value: "cookie-token"})
	token, err := tokens.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)

	// bearer header
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	token, err = tokens.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "header-token", token)

	// query parameter
	r = httptest.NewRequest(http.MethodGet, "/?token=query-token", nil)
	token, err = tokens.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "query-token", token)

	// cookie wins over the others
	r = httptest.NewRequest(http.MethodGet, "/?token=query-token", nil)
	r.AddCookie(&http.Cookie{Name: "chatts-token", Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")
	token, err = tokens.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)

	// nothing at all
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = tokens.FromRequest(r)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPassword_HashCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
