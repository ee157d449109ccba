package service

import (
	"context"
	"time"

	"github.com/mshawy/bookhive-auth/internal/model"
)

// AccountStore is the persistence contract the auth service depends
// on. repository.AccountRepo satisfies it in production; tests plug
// in fakes. Lookup misses are reported as repository.ErrNotFound and
// uniqueness violations as repository.ErrEmailExists /
// repository.ErrUsernameExists.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	UpdateRefreshToken(ctx context.Context, id, tokenHash string, exp time.Time) error
	ConfirmEmail(ctx context.Context, id, newStamp string) error
	UpdatePassword(ctx context.Context, id, passwordHash, newStamp string) error
	List(ctx context.Context) ([]*model.Account, error)
}
