package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshawy/bookhive-auth/internal/model"
)

func testAccount() *model.Account {
	return &model.Account{
		ID:    "acc-1",
		Email: "u@test.com",
		Roles: []string{"User", "Admin"},
	}
}

func TestNewAccessToken_RoundTrip(t *testing.T) {
	before := time.Now().UTC()
	tok, err := NewAccessToken("secret", "bookhive-auth", "bookhive", testAccount(), 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	// Expiry sits strictly after issuance and no later than issuance + TTL.
	assert.True(t, tok.Exp.After(before))
	assert.False(t, tok.Exp.After(before.Add(16*time.Minute)))

	claims, err := ParseAccessToken("secret", "bookhive-auth", "bookhive", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "u@test.com", claims.Email)
	assert.Equal(t, []string{"User", "Admin"}, claims.Roles)
	assert.NotEmpty(t, claims.ID, "jti claim must be set")
}

func TestParseAccessToken_Rejections(t *testing.T) {
	tok, err := NewAccessToken("secret", "iss", "aud", testAccount(), 15)
	require.NoError(t, err)

	cases := []struct {
		name                  string
		secret, iss, aud, raw string
	}{
		{"wrong secret", "other", "iss", "aud", tok.Token},
		{"wrong issuer", "secret", "someone-else", "aud", tok.Token},
		{"wrong audience", "secret", "iss", "other-aud", tok.Token},
		{"garbage", "secret", "iss", "aud", "not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.iss, tc.aud, tc.raw)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	tok, err := NewAccessToken("secret", "iss", "aud", testAccount(), -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", "iss", "aud", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(a.Raw)
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotEqual(t, a.Raw, b.Raw, "refresh tokens must be unique")
	assert.True(t, a.Exp.After(time.Now().UTC().Add(6*24*time.Hour)))
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-a")
	h2 := HashRefreshRaw("token-a")
	h3 := HashRefreshRaw("token-b")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // sha256 hex
}
