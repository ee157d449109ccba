package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for refresh tokens
	"encoding/base64"
	"encoding/hex" // hex encoding for digest output
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // jti claim values

	"github.com/mshawy/bookhive-auth/internal/model"
)

// ErrTokenInvalid is returned for any access token that fails
// signature, expiry, issuer or audience checks. Callers never learn
// which check failed.
var ErrTokenInvalid = errors.New("token invalid")

// AccessClaims is the claims bundle carried by every access token.
// The set of fields is fixed and type-checked; roles are the only
// extensible part. Standard claims (sub, iss, aud, exp, iat, jti)
// live in the embedded RegisteredClaims.
type AccessClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its
// expiry. Access tokens are short‑lived and presented in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived opaque token. The Raw field is
// returned to the client exactly once; only its SHA‑256 hash is
// persisted on the account row.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for an account. The
// claims carry the account id as subject, the email, one entry per
// role and a fresh jti for uniqueness/auditing. Issuer and audience
// come from configuration, never from the request.
func NewAccessToken(secret, issuer, audience string, a *model.Account, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Email: a.Email,
		Roles: a.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, expiry, issuer and audience of
// a raw access token and returns its claims. Any failure collapses to
// ErrTokenInvalid.
func ParseAccessToken(secret, issuer, audience, raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm family.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// NewRefreshToken returns a cryptographically random opaque token and
// its expiration time. The raw value is 64 random bytes encoded as
// standard base64; ttlDays controls how long it stays valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: base64.StdEncoding.EncodeToString(buf),
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as
// a hex string. Only the hash is stored, so a leaked accounts table
// cannot be replayed as a session.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
