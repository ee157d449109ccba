// Package repository defines error types that are reused across the
// persistence layer. These sentinel values allow higher layers such
// as the auth service to distinguish between different failure
// scenarios without inspecting driver-specific error strings. For
// example, ErrEmailExists and ErrUsernameExists signal which unique
// index rejected an insert, while ErrNotFound replaces sql.ErrNoRows
// at the package boundary.
package repository

import "errors"

// ErrNotFound is returned when no account matches the lookup key.
var ErrNotFound = errors.New("account not found")

// ErrEmailExists is returned when an insert collides with the unique
// index on the normalized email column.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when an insert collides with the
// unique index on the username column.
var ErrUsernameExists = errors.New("username already exists")
