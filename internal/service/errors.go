package service

import "errors"

// Sentinel errors returned by the auth service. Handlers translate
// these into HTTP statuses; anything not in this list is an
// unexpected dependency fault and surfaces as a generic server error.
var (
	// ErrEmailTaken is returned when registering with an email that
	// already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when the requested username is in use.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordPolicy is returned when a password fails the complexity gate.
	ErrPasswordPolicy = errors.New("password does not meet policy")
	// ErrUserNotFound is returned when no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailNotConfirmed blocks login until the address is verified.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrInvalidCredentials is returned on a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConfirmInvalid covers both "no such account" and "bad or
	// expired confirmation token". The two are deliberately not
	// distinguished so the endpoint cannot be used to enumerate
	// registered addresses.
	ErrConfirmInvalid = errors.New("account missing or token invalid")
	// ErrOtpExpired is returned when no live code exists for the address.
	ErrOtpExpired = errors.New("otp expired or not found")
	// ErrOtpMismatch is returned when a live code exists but differs.
	ErrOtpMismatch = errors.New("otp mismatch")
	// ErrDeliveryFailed reports that the confirmation email could not
	// be handed off. The account it refers to was still created.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrFederatedDisabled is returned when the provider adapter has
	// no credentials configured.
	ErrFederatedDisabled = errors.New("federated login not configured")
)
