// Package otp implements the expiring one-time-code store used by the
// password-reset flow. Codes live in Redis so every process instance
// sees the same state; expiry is native Redis TTL, no sweeper needed.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix scopes reset codes inside the shared Redis namespace.
const keyPrefix = "otp:pwreset:"

// ErrNotFound is returned by Get when no live code exists for the
// address. An expired code is indistinguishable from one never set.
var ErrNotFound = errors.New("otp not found")

// Store is a thin wrapper over a Redis client. At most one live code
// exists per address; Set unconditionally overwrites and resets the
// TTL, so concurrent forgot-password calls are last-writer-wins.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps an existing Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(address string) string {
	return keyPrefix + address
}

// Set writes a code for the address with the given TTL, overwriting
// any prior code and restarting its clock.
func (s *Store) Set(ctx context.Context, address, code string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key(address), code, ttl).Err(); err != nil {
		return fmt.Errorf("otp set: %w", err)
	}
	return nil
}

// Get returns the live code for the address without consuming it.
// Absence (never set, expired, or already removed) yields ErrNotFound.
func (s *Store) Get(ctx context.Context, address string) (string, error) {
	v, err := s.rdb.Get(ctx, key(address)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("otp get: %w", err)
	}
	return v, nil
}

// Remove deletes the code for the address. Deleting an absent key is
// not an error; the call is idempotent.
func (s *Store) Remove(ctx context.Context, address string) error {
	if err := s.rdb.Del(ctx, key(address)).Err(); err != nil {
		return fmt.Errorf("otp remove: %w", err)
	}
	return nil
}

// GenerateCode returns a uniform random four-digit code in the range
// 1000–9999. The narrow space is acceptable only because codes are
// short-lived and deleted on first successful use.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
