package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mshawy/bookhive-auth/internal/model"
)

const accountColumns = "id,email,username,first_name,last_name,password_hash,email_confirmed,security_stamp,roles,refresh_token_hash,refresh_token_expiry,avatar_url,bio,location,age,gender,preferred_topic,created_at,updated_at"

// AccountRepo persists accounts in the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts a new account. The unique indexes on email and
// username provide the atomic uniqueness check; a MySQL 1062
// duplicate-key error is mapped to the sentinel naming the index that
// rejected the row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (id, email, username, first_name, last_name, password_hash, email_confirmed, security_stamp, roles, avatar_url, bio, location, age, gender, preferred_topic) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		a.ID, a.Email, a.Username, a.FirstName, a.LastName, a.PasswordHash,
		a.EmailConfirmed, a.SecurityStamp, model.JoinRoles(a.Roles),
		a.AvatarURL, a.Bio, a.Location, a.Age, a.Gender, a.PreferredTopic)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") {
			if strings.Contains(low, "username") {
				return ErrUsernameExists
			}
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// FindByEmail fetches an account by normalized email.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email)
	return scanAccount(row)
}

// FindByUsername fetches an account by username.
func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username=? LIMIT 1", username)
	return scanAccount(row)
}

// FindByID fetches an account by id.
func (r *AccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	return scanAccount(row)
}

// UpdateRefreshToken overwrites the account's stored refresh token
// hash and expiry. Last writer wins: a concurrent login for the same
// account simply replaces the previous session's token.
func (r *AccountRepo) UpdateRefreshToken(ctx context.Context, id, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET refresh_token_hash=?, refresh_token_expiry=?, updated_at=NOW() WHERE id=?",
		tokenHash, exp, id)
	return err
}

// ConfirmEmail flips email_confirmed and rotates the security stamp
// in one statement, so the confirmation token that triggered the flip
// can never be redeemed twice.
func (r *AccountRepo) ConfirmEmail(ctx context.Context, id, newStamp string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET email_confirmed=1, security_stamp=?, updated_at=NOW() WHERE id=?",
		newStamp, id)
	return err
}

// UpdatePassword stores a new password hash and rotates the security
// stamp, invalidating any outstanding reset or confirmation token.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id, passwordHash, newStamp string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=?, security_stamp=?, updated_at=NOW() WHERE id=?",
		passwordHash, newStamp, id)
	return err
}

// List returns all accounts ordered by creation time. Used by the
// admin listing endpoint only.
func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a       model.Account
		pwHash  sql.NullString
		roles   string
		rtHash  sql.NullString
		rtExp   sql.NullTime
		avatar  sql.NullString
		bio     sql.NullString
		loc     sql.NullString
		age     sql.NullInt64
		gender  sql.NullString
		topic   sql.NullString
	)
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName,
		&pwHash, &a.EmailConfirmed, &a.SecurityStamp, &roles,
		&rtHash, &rtExp, &avatar, &bio, &loc, &age, &gender, &topic,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Roles = model.SplitRoles(roles)
	if pwHash.Valid {
		a.PasswordHash = &pwHash.String
	}
	if rtHash.Valid {
		a.RefreshTokenHash = &rtHash.String
	}
	if rtExp.Valid {
		t := rtExp.Time
		a.RefreshTokenExpiry = &t
	}
	if avatar.Valid {
		a.AvatarURL = &avatar.String
	}
	if bio.Valid {
		a.Bio = &bio.String
	}
	if loc.Valid {
		a.Location = &loc.String
	}
	if age.Valid {
		n := int(age.Int64)
		a.Age = &n
	}
	if gender.Valid {
		a.Gender = &gender.String
	}
	if topic.Valid {
		a.PreferredTopic = &topic.String
	}
	return &a, nil
}
