package utils

// account_tokens.go mints and validates the single-use tokens tied to
// an account: the email-confirmation token handed out at registration
// and the password-reset token redeemed during an OTP-backed reset.
// Neither token is stored anywhere. Each is an HS256 JWT signed with a
// key derived from the service secret and the account's current
// security stamp, so rotating the stamp (which every successful
// confirm/reset does) invalidates every token issued before it.

import (
	"crypto/sha256"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purposes bound into the purpose claim. A confirmation token can
// never be replayed as a reset token and vice versa.
const (
	PurposeConfirmEmail  = "email_confirm"
	PurposePasswordReset = "password_reset"
)

type accountTokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// accountTokenKey derives the per-account signing key. Binding the
// security stamp into the key is what makes these tokens single-use.
func accountTokenKey(secret, securityStamp string) []byte {
	sum := sha256.Sum256([]byte(secret + ":" + securityStamp))
	return sum[:]
}

// NewAccountToken mints a purpose-bound token for the account with the
// given id and current security stamp, valid for ttl.
func NewAccountToken(secret, securityStamp, purpose, accountID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := accountTokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(accountTokenKey(secret, securityStamp))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccountToken checks signature, expiry, purpose and subject
// of a raw account token against the account's current security
// stamp. All failures collapse to ErrTokenInvalid so callers cannot
// tell a forged token from an expired or consumed one.
func ValidateAccountToken(secret, securityStamp, purpose, accountID, raw string) error {
	claims := &accountTokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return accountTokenKey(secret, securityStamp), nil
	})
	if err != nil || !tok.Valid {
		return ErrTokenInvalid
	}
	if claims.Purpose != purpose || claims.Subject != accountID {
		return ErrTokenInvalid
	}
	return nil
}
