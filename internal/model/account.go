package model

import (
	"strings"
	"time"
)

// RoleUser is assigned to every account at registration time.
// RoleAdmin gates the administrative listing endpoints.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// Account represents an identity record as stored in the `accounts`
// table. Each field corresponds to a column. The json tags are
// omitted because these structs are used internally by the
// repository layer; handlers define separate response types.
//
// PasswordHash is a pointer because accounts provisioned through
// federated login carry no local password until one is set.
// SecurityStamp is rotated whenever a credential-affecting change
// happens (email confirmation, password reset); confirmation and
// reset tokens are keyed on it, so rotating the stamp invalidates
// every previously issued token for the account.
//
// Fields:
//  ID                 – primary key (UUID string, immutable).
//  Email              – unique email address, stored lowercase.
//  Username           – unique login name.
//  FirstName          – given name.
//  LastName           – family name.
//  PasswordHash       – bcrypt hash (nullable for federated accounts).
//  EmailConfirmed     – whether the address has been verified; gates login.
//  SecurityStamp      – random value keying single-use tokens.
//  Roles              – role names, comma-joined in the roles column.
//  RefreshTokenHash   – SHA-256 hex digest of the live refresh token (nullable).
//  RefreshTokenExpiry – expiry of the live refresh token (nullable).
//  AvatarURL          – profile picture URL (nullable).
//  Bio                – free-form profile text (nullable).
//  Location           – country/locale hint (nullable).
//  Age                – profile attribute for downstream features (nullable).
//  Gender             – profile attribute for downstream features (nullable).
//  PreferredTopic     – profile attribute for downstream features (nullable).
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type Account struct {
	ID                 string     // accounts.id
	Email              string     // accounts.email
	Username           string     // accounts.username
	FirstName          string     // accounts.first_name
	LastName           string     // accounts.last_name
	PasswordHash       *string    // accounts.password_hash (nullable)
	EmailConfirmed     bool       // accounts.email_confirmed
	SecurityStamp      string     // accounts.security_stamp
	Roles              []string   // accounts.roles (comma-joined)
	RefreshTokenHash   *string    // accounts.refresh_token_hash (nullable)
	RefreshTokenExpiry *time.Time // accounts.refresh_token_expiry (nullable)
	AvatarURL          *string    // accounts.avatar_url (nullable)
	Bio                *string    // accounts.bio (nullable)
	Location           *string    // accounts.location (nullable)
	Age                *int       // accounts.age (nullable)
	Gender             *string    // accounts.gender (nullable)
	PreferredTopic     *string    // accounts.preferred_topic (nullable)
	CreatedAt          time.Time  // accounts.created_at
	UpdatedAt          time.Time  // accounts.updated_at
}

// HasRole reports whether the account holds the named role.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// JoinRoles flattens a role list into the comma-joined form stored in
// the roles column.
func JoinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

// SplitRoles parses the comma-joined roles column back into a slice.
// An empty column yields an empty slice rather than [""].
func SplitRoles(col string) []string {
	if col == "" {
		return nil
	}
	parts := strings.Split(col, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
