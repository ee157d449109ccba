// Package service contains the authentication use cases: account
// registration with email verification, password login, the
// OTP-backed password-reset flow and just-in-time provisioning from
// federated sign-in. All control logic and account state transitions
// live here; handlers only bind requests and map sentinel errors to
// HTTP statuses.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mshawy/bookhive-auth/internal/config"
	"github.com/mshawy/bookhive-auth/internal/federated"
	"github.com/mshawy/bookhive-auth/internal/model"
	"github.com/mshawy/bookhive-auth/internal/notification"
	"github.com/mshawy/bookhive-auth/internal/otp"
	"github.com/mshawy/bookhive-auth/internal/repository"
	"github.com/mshawy/bookhive-auth/internal/utils"
)

// AuthService composes the account store, OTP store, token issuer and
// notification gateway into the auth use cases.
type AuthService struct {
	cfg    config.Config
	store  AccountStore
	otps   *otp.Store
	issuer *TokenIssuer
	mail   notification.Gateway
}

// NewAuthService wires the service from its collaborators. The
// configuration struct is treated as immutable after construction.
func NewAuthService(cfg config.Config, store AccountStore, otps *otp.Store, issuer *TokenIssuer, mail notification.Gateway) *AuthService {
	return &AuthService{cfg: cfg, store: store, otps: otps, issuer: issuer, mail: mail}
}

// RegisterInput carries everything a registration request provides.
// The profile fields are stored opaquely for downstream features.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string

	Age            *int
	Gender         *string
	Location       *string
	Bio            *string
	PreferredTopic *string
}

// RegistrationResult is returned on successful registration. The
// confirmation token is also embedded in the email that was
// dispatched; it is returned here so a caller can re-send the link
// through a side channel.
type RegistrationResult struct {
	AccountID         string
	ConfirmationToken string
	ConfirmationExp   time.Time
}

// LoginResult bundles the authenticated account and its session tokens.
type LoginResult struct {
	Account *model.Account
	Tokens  *TokenPair
}

// Register creates a PendingConfirmation account and dispatches the
// confirmation link. Account creation and email delivery are not
// transactional: if dispatch fails the account stands and
// ErrDeliveryFailed is returned alongside the result, so the owner
// can re-trigger confirmation through a side channel.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegistrationResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup by username: %w", err)
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !utils.PasswordMeetsPolicy(in.Password, s.cfg.PasswordMinLen) {
		return nil, ErrPasswordPolicy
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &model.Account{
		ID:             uuid.NewString(),
		Email:          email,
		Username:       username,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		PasswordHash:   &hash,
		EmailConfirmed: false,
		SecurityStamp:  uuid.NewString(),
		Roles:          []string{model.RoleUser},
		Age:            in.Age,
		Gender:         in.Gender,
		Location:       in.Location,
		Bio:            in.Bio,
		PreferredTopic: in.PreferredTopic,
	}
	if err := s.store.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	token, exp, err := utils.NewAccountToken(s.cfg.JWTSecret, a.SecurityStamp, utils.PurposeConfirmEmail, a.ID, s.cfg.ConfirmTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("mint confirmation token: %w", err)
	}
	res := &RegistrationResult{AccountID: a.ID, ConfirmationToken: token, ConfirmationExp: exp}

	link := fmt.Sprintf("%s/v1/auth/confirm-email?token=%s&email=%s",
		strings.TrimRight(s.cfg.PublicBaseURL, "/"), url.QueryEscape(token), url.QueryEscape(email))
	msg := notification.EmailMessage{
		To:      []string{email},
		Subject: "Confirm Your Email",
		Body: fmt.Sprintf("<p>Hello %s %s,</p><p>Thank you for registering. Please confirm your email:</p><p><a href='%s'>Confirm Email</a></p>",
			a.FirstName, a.LastName, link),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		// The account was created; only the delivery failed.
		log.Printf("auth: confirmation email to %s failed: %v", email, err)
		return res, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return res, nil
}

// ConfirmEmail validates a confirmation token against the account's
// current security stamp and flips the account to Active. The stamp
// is rotated together with the flip, so re-submitting the same token
// afterwards fails. Missing account and invalid token collapse into
// the one ErrConfirmInvalid outcome on purpose.
func (s *AuthService) ConfirmEmail(ctx context.Context, token, email string) error {
	a, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrConfirmInvalid
		}
		return fmt.Errorf("lookup by email: %w", err)
	}
	if err := utils.ValidateAccountToken(s.cfg.JWTSecret, a.SecurityStamp, utils.PurposeConfirmEmail, a.ID, token); err != nil {
		return ErrConfirmInvalid
	}
	if err := s.store.ConfirmEmail(ctx, a.ID, uuid.NewString()); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

// Login verifies the password for an Active account and issues a
// session. The checks are ordered and terminal: unknown email,
// unconfirmed email, then bad password. Accounts provisioned through
// federated login carry no password hash and always fail the
// password check.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	a, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if !a.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}
	if a.PasswordHash == nil || !utils.VerifyPassword(*a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	pair, err := s.issuer.IssueSession(ctx, a)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: a, Tokens: pair}, nil
}

// ForgotPassword writes a fresh OTP for the address, replacing any
// prior code and restarting the TTL, then dispatches it. A delivery
// failure is logged and swallowed: the caller still gets success.
// This mirrors the per-operation policy of the registration path,
// where delivery failures are surfaced instead.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup by email: %w", err)
	}
	code, err := otp.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otps.Set(ctx, email, code, s.cfg.OtpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	msg := notification.EmailMessage{
		To:      []string{a.Email},
		Subject: "Password Reset OTP",
		Body:    fmt.Sprintf("Your OTP is: %s", code),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Printf("auth: otp email to %s failed: %v", email, err)
	}
	return nil
}

// VerifyOtp checks a submitted code against the live one without
// consuming it, letting a client validate before committing to the
// reset step.
func (s *AuthService) VerifyOtp(ctx context.Context, email, code string) error {
	stored, err := s.otps.Get(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return ErrOtpExpired
		}
		return fmt.Errorf("read otp: %w", err)
	}
	if stored != code {
		return ErrOtpMismatch
	}
	return nil
}

// ResetPassword re-validates the OTP (the authoritative check), then
// mints and immediately redeems a password-reset token against the
// account's security stamp, storing the new hash and rotating the
// stamp in one update. The OTP is deleted last; a crash before the
// delete leaves a stale code that simply expires.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword, confirmPassword string) error {
	email = normalizeEmail(email)
	if err := s.VerifyOtp(ctx, email, code); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if !utils.PasswordMeetsPolicy(newPassword, s.cfg.PasswordMinLen) {
		return ErrPasswordPolicy
	}
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup by email: %w", err)
	}

	token, _, err := utils.NewAccountToken(s.cfg.JWTSecret, a.SecurityStamp, utils.PurposePasswordReset, a.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("mint reset token: %w", err)
	}
	if err := utils.ValidateAccountToken(s.cfg.JWTSecret, a.SecurityStamp, utils.PurposePasswordReset, a.ID, token); err != nil {
		return fmt.Errorf("redeem reset token: %w", err)
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, a.ID, hash, uuid.NewString()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.otps.Remove(ctx, email); err != nil {
		// Not atomic with the password change; the stale code expires on its own.
		log.Printf("auth: otp cleanup for %s failed: %v", email, err)
	}
	return nil
}

// FederatedLogin signs in a provider-verified identity, provisioning
// an account on first sight. Provisioned accounts are Active
// immediately (the provider already verified the email), use the
// email as username and carry no local password. Password
// verification is skipped entirely; the session tail is the same as
// Login's.
func (s *AuthService) FederatedLogin(ctx context.Context, id federated.Identity) (*LoginResult, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, federated.ErrNoEmail
	}
	a, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		a, err = s.provisionFederated(ctx, email, id)
	}
	if err != nil {
		return nil, err
	}
	pair, err := s.issuer.IssueSession(ctx, a)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: a, Tokens: pair}, nil
}

func (s *AuthService) provisionFederated(ctx context.Context, email string, id federated.Identity) (*model.Account, error) {
	first, last := splitDisplayName(id.Name)
	a := &model.Account{
		ID:             uuid.NewString(),
		Email:          email,
		Username:       email,
		FirstName:      first,
		LastName:       last,
		EmailConfirmed: true,
		SecurityStamp:  uuid.NewString(),
		Roles:          []string{model.RoleUser},
	}
	if id.Picture != "" {
		a.AvatarURL = &id.Picture
	}
	if id.Locale != "" {
		a.Location = &id.Locale
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost a provisioning race; the winner's account serves.
			return s.store.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("provision federated account: %w", err)
	}
	return a, nil
}

// ListAccounts returns every account for the admin listing endpoint.
func (s *AuthService) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.store.List(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitDisplayName maps a provider display name onto the first/last
// name pair: first token becomes the first name, the remainder the
// last name, with placeholders when the provider sent nothing.
func splitDisplayName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "Google", "User"
	case 1:
		return fields[0], "User"
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
