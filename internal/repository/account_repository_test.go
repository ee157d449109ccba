package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshawy/bookhive-auth/internal/model"
)

var accountCols = []string{
	"id", "email", "username", "first_name", "last_name", "password_hash",
	"email_confirmed", "security_stamp", "roles", "refresh_token_hash",
	"refresh_token_expiry", "avatar_url", "bio", "location", "age", "gender",
	"preferred_topic", "created_at", "updated_at",
}

func accountRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).AddRow(
		"acc-1", "a@x.com", "alice", "Alice", "Liddell", "$2a$04$hash",
		true, "stamp-1", "User,Admin", nil,
		nil, nil, nil, nil, nil, nil,
		nil, now, now,
	)
}

func TestCreate_MapsDuplicateErrors(t *testing.T) {
	cases := []struct {
		name   string
		dbErr  error
		expect error
	}{
		{"duplicate email", errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'accounts.uq_accounts_email'"), ErrEmailExists},
		{"duplicate username", errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'accounts.uq_accounts_username'"), ErrUsernameExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
				WillReturnError(tc.dbErr)

			r := NewAccountRepo(db)
			err = r.Create(context.Background(), &model.Account{
				ID: "acc-1", Email: "a@x.com", Username: "alice",
				SecurityStamp: "stamp-1", Roles: []string{"User"},
			})
			assert.ErrorIs(t, err, tc.expect)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreate_NormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("acc-1", "a@x.com", "alice", "", "", nil, false, "stamp-1",
			"User", nil, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewAccountRepo(db)
	a := &model.Account{
		ID: "acc-1", Email: "  A@X.com ", Username: "alice",
		SecurityStamp: "stamp-1", Roles: []string{"User"},
	}
	require.NoError(t, r.Create(context.Background(), a))
	assert.Equal(t, "a@x.com", a.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NormalizesAndScans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email=?")).
		WithArgs("a@x.com").
		WillReturnRows(accountRow(now))

	r := NewAccountRepo(db)
	a, err := r.FindByEmail(context.Background(), "  A@X.COM ")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.ID)
	assert.Equal(t, []string{"User", "Admin"}, a.Roles)
	require.NotNil(t, a.PasswordHash)
	assert.Equal(t, "$2a$04$hash", *a.PasswordHash)
	assert.Nil(t, a.RefreshTokenHash)
	assert.True(t, a.EmailConfirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email=?")).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(accountCols))

	r := NewAccountRepo(db)
	_, err = r.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	exp := time.Now().UTC().Add(7 * 24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET refresh_token_hash=?, refresh_token_expiry=?")).
		WithArgs("deadbeef", exp, "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewAccountRepo(db)
	require.NoError(t, r.UpdateRefreshToken(context.Background(), "acc-1", "deadbeef", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmEmail_RotatesStamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET email_confirmed=1, security_stamp=?")).
		WithArgs("stamp-2", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewAccountRepo(db)
	require.NoError(t, r.ConfirmEmail(context.Background(), "acc-1", "stamp-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
