package handler

import (
	"context"  // provides context with cancellation for service calls
	"errors"   // sentinel error matching
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for service calls

	"github.com/google/uuid"       // random state values for the OAuth flow
	"github.com/labstack/echo/v4"  // Echo framework for HTTP routing
	"github.com/redis/go-redis/v9" // short-lived OAuth state keys

	"github.com/mshawy/bookhive-auth/internal/config"    // app configuration
	"github.com/mshawy/bookhive-auth/internal/federated" // Google sign-in adapter
	"github.com/mshawy/bookhive-auth/internal/model"
	"github.com/mshawy/bookhive-auth/internal/service" // auth use cases
)

// oauthStateTTL bounds how long a started Google sign-in may take
// before the callback is rejected.
const oauthStateTTL = 10 * time.Minute

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Auth   *service.AuthService
	Google *federated.GoogleAdapter
	Rdb    *redis.Client
}

func NewAuthHandler(cfg config.Config, a *service.AuthService, g *federated.GoogleAdapter, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: a, Google: g, Rdb: rdb}
}

// ----- DTOs -----

type registerReq struct {
	FirstName       string  `json:"first_name" form:"first_name"`
	LastName        string  `json:"last_name" form:"last_name"`
	Username        string  `json:"username" form:"username"`
	Email           string  `json:"email" form:"email"`
	Password        string  `json:"password" form:"password"`
	ConfirmPassword string  `json:"confirm_password" form:"confirm_password"`
	Age             *int    `json:"age" form:"age"`
	Gender          *string `json:"gender" form:"gender"`
	Location        *string `json:"location" form:"location"`
	Bio             *string `json:"bio" form:"bio"`
	PreferredTopic  *string `json:"preferred_topic" form:"preferred_topic"`
}
type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}
type forgotReq struct {
	Email string `json:"email" form:"email"`
}
type verifyOtpReq struct {
	Email string `json:"email" form:"email"`
	Otp   string `json:"otp" form:"otp"`
}
type resetPasswordReq struct {
	Email              string `json:"email" form:"email"`
	Otp                string `json:"otp" form:"otp"`
	NewPassword        string `json:"new_password" form:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password" form:"confirm_new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(a *model.Account) userPart {
	return userPart{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Roles:     a.Roles,
	}
}

func toAuthResp(res *service.LoginResult) authResp {
	return authResp{
		User:    toUserPart(res.Account),
		Access:  tokenPart{Token: res.Tokens.Access.Token, Expires: res.Tokens.Access.Exp},
		Refresh: tokenPart{Token: res.Tokens.Refresh.Raw, Expires: res.Tokens.Refresh.Exp}, // raw back to client
	}
}

// Register: create a pending account and return its confirmation token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Age:             req.Age,
		Gender:          req.Gender,
		Location:        req.Location,
		Bio:             req.Bio,
		PreferredTopic:  req.PreferredTopic,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordPolicy):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDeliveryFailed):
		// The account exists; only the confirmation email failed.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation email could not be sent"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":            "account created, please confirm your email",
		"confirmation_token": res.ConfirmationToken,
		"expires":            res.ConfirmationExp,
	})
}

// ConfirmEmail: consume a confirmation token. Missing account and bad
// token share one generic failure so the endpoint cannot be used to
// probe which addresses are registered.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	token := c.QueryParam("token")
	email := c.QueryParam("email")
	if token == "" || email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.ConfirmEmail(ctx, token, email); err != nil {
		if errors.Is(err, service.ErrConfirmInvalid) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account doesn't exist or token invalid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm email failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified successfully"})
}

// Login: verify credentials and return a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrEmailNotConfirmed):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "please confirm your email to login"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// ForgotPassword: issue a reset OTP for the address. The success
// response does not depend on email delivery.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.ForgotPassword(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "forgot password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "otp sent"})
}

// VerifyOtp: pure read-check of a live code, no state change.
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Otp == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.VerifyOtp(ctx, req.Email, req.Otp)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrOtpExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "otp expired or not found"})
	case errors.Is(err, service.ErrOtpMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid otp"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify otp failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "otp verified"})
}

// ResetPassword: redeem the OTP and set a new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Otp == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.ResetPassword(ctx, req.Email, req.Otp, req.NewPassword, req.ConfirmNewPassword)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrOtpExpired),
		errors.Is(err, service.ErrOtpMismatch),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordPolicy),
		errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successfully"})
}

// GoogleLogin: start the provider flow. The state value lives in
// Redis for a bounded window so any instance can serve the callback.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if !h.Google.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "google login not configured"})
	}
	state := uuid.NewString()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rdb.Set(ctx, stateKey(state), "1", oauthStateTTL).Err(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "start login failed"})
	}
	return c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// GoogleCallback: finish the provider flow and sign the identity in,
// provisioning an account on first sight.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if !h.Google.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "google login not configured"})
	}
	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state/code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// GetDel makes each state single-use.
	if err := h.Rdb.GetDel(ctx, stateKey(state)).Err(); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown or expired state"})
	}

	id, err := h.Google.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, federated.ErrNoEmail) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "google account does not provide a verified email"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "google authentication failed"})
	}

	res, err := h.Auth.FederatedLogin(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "federated login failed"})
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"account_id": c.Get("account_id"),
		"email":      c.Get("email"),
		"roles":      c.Get("roles"),
	})
}

// ListUsers: admin-only listing of all accounts.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accounts, err := h.Auth.ListAccounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userPart, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toUserPart(a))
	}
	return c.JSON(http.StatusOK, out)
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
