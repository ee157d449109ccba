package service

import (
	"context"
	"fmt"

	"github.com/mshawy/bookhive-auth/internal/config"
	"github.com/mshawy/bookhive-auth/internal/model"
	"github.com/mshawy/bookhive-auth/internal/utils"
)

// TokenPair bundles a short-lived signed access token and a
// long-lived opaque refresh token, each with its expiry.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// TokenIssuer mints session token pairs. Issuing a session mutates
// shared state: the account's stored refresh-token hash is
// overwritten, so concurrent logins for one account are
// last-writer-wins and only the newest refresh token stays valid.
//
// There is no redemption operation. The service issues a refresh
// token on every login but defines no endpoint that exchanges it for
// a new access token; see DESIGN.md for the reasoning.
type TokenIssuer struct {
	cfg   config.Config
	store AccountStore
}

// NewTokenIssuer builds an issuer from immutable configuration and
// the account store.
func NewTokenIssuer(cfg config.Config, store AccountStore) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, store: store}
}

// IssueSession signs an access token for the account, generates a
// fresh refresh token, persists the refresh token's hash and expiry
// on the account row and returns both tokens.
func (t *TokenIssuer) IssueSession(ctx context.Context, a *model.Account) (*TokenPair, error) {
	access, err := utils.NewAccessToken(t.cfg.JWTSecret, t.cfg.JWTIssuer, t.cfg.JWTAudience, a, t.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(t.cfg.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := t.store.UpdateRefreshToken(ctx, a.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
