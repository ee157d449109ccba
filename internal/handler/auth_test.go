package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mshawy/bookhive-auth/internal/config"
	"github.com/mshawy/bookhive-auth/internal/federated"
	"github.com/mshawy/bookhive-auth/internal/model"
	"github.com/mshawy/bookhive-auth/internal/notification"
	"github.com/mshawy/bookhive-auth/internal/otp"
	"github.com/mshawy/bookhive-auth/internal/repository"
	"github.com/mshawy/bookhive-auth/internal/service"
)

// memStore is a minimal in-memory AccountStore for handler tests;
// the full store behavior is covered in the service and repository
// packages.
type memStore struct {
	byID map[string]*model.Account
}

func newMemStore() *memStore { return &memStore{byID: map[string]*model.Account{}} }

func (m *memStore) Create(_ context.Context, a *model.Account) error {
	for _, ex := range m.byID {
		if ex.Email == a.Email {
			return repository.ErrEmailExists
		}
		if ex.Username == a.Username {
			return repository.ErrUsernameExists
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, a := range m.byID {
		if a.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindByUsername(_ context.Context, username string) (*model.Account, error) {
	for _, a := range m.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id string) (*model.Account, error) {
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) UpdateRefreshToken(_ context.Context, id, hash string, exp time.Time) error {
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.RefreshTokenHash, a.RefreshTokenExpiry = &hash, &exp
	return nil
}

func (m *memStore) ConfirmEmail(_ context.Context, id, stamp string) error {
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.EmailConfirmed, a.SecurityStamp = true, stamp
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id, hash, stamp string) error {
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash, a.SecurityStamp = &hash, stamp
	return nil
}

func (m *memStore) List(_ context.Context) ([]*model.Account, error) {
	out := make([]*model.Account, 0, len(m.byID))
	for _, a := range m.byID {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

type nopGateway struct{}

func (nopGateway) Send(context.Context, notification.EmailMessage) error { return nil }

func newTestHandler(t *testing.T, googleEnabled bool) (*AuthHandler, *memStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Config{
		JWTSecret:       "handler-secret",
		JWTIssuer:       "bookhive-auth",
		JWTAudience:     "bookhive",
		AccessTTLMin:    15,
		RefreshTTLDays:  7,
		BcryptCost:      bcrypt.MinCost,
		PasswordMinLen:  8,
		OtpTTL:          5 * time.Minute,
		ConfirmTokenTTL: time.Hour,
		ResetTokenTTL:   15 * time.Minute,
		PublicBaseURL:   "http://localhost:8080",
	}
	store := newMemStore()
	svc := service.NewAuthService(cfg, store, otp.NewStore(rdb), service.NewTokenIssuer(cfg, store), nopGateway{})

	var g *federated.GoogleAdapter
	if googleEnabled {
		g = federated.NewGoogleAdapter("cid", "csecret", "http://localhost/v1/auth/google/callback")
	} else {
		g = federated.NewGoogleAdapter("", "", "")
	}
	return NewAuthHandler(cfg, svc, g, rdb), store
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

const registerBody = `{"first_name":"Alice","last_name":"Liddell","username":"alice","email":"u@test.com","password":"Aa1!aaaa","confirm_password":"Aa1!aaaa"}`

func TestRegisterEndpoint(t *testing.T) {
	h, store := newTestHandler(t, false)

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", `{"email":"u@test.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["confirmation_token"])

	// Same payload again: the duplicate maps to 400.
	rec = doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", registerBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a, err := store.FindByEmail(context.Background(), "u@test.com")
	require.NoError(t, err)
	assert.False(t, a.EmailConfirmed)
}

func TestConfirmEmailEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	token, _ := body["confirmation_token"].(string)
	require.NotEmpty(t, token)

	e := echo.New()
	confirm := func(tok, email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/confirm-email?token="+tok+"&email="+email, nil)
		rec := httptest.NewRecorder()
		require.NoError(t, h.ConfirmEmail(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusOK, confirm(token, "u@test.com").Code)
	// Replay and unknown address fail with the same generic status.
	assert.Equal(t, http.StatusInternalServerError, confirm(token, "u@test.com").Code)
	assert.Equal(t, http.StatusInternalServerError, confirm(token, "ghost@test.com").Code)
}

func TestLoginEndpoint(t *testing.T) {
	h, store := newTestHandler(t, false)

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)

	login := func(email, password string) *httptest.ResponseRecorder {
		return doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
			`{"email":"`+email+`","password":"`+password+`"}`)
	}

	assert.Equal(t, http.StatusUnauthorized, login("ghost@test.com", "Aa1!aaaa").Code)
	assert.Equal(t, http.StatusUnauthorized, login("u@test.com", "Aa1!aaaa").Code, "pending account must not log in")

	a, err := store.FindByEmail(context.Background(), "u@test.com")
	require.NoError(t, err)
	require.NoError(t, store.ConfirmEmail(context.Background(), a.ID, "stamp-2"))

	assert.Equal(t, http.StatusUnauthorized, login("u@test.com", "wrong").Code)

	rec = login("u@test.com", "Aa1!aaaa")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u@test.com", resp.User.Email)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)
}

func TestForgotPasswordEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := doJSON(t, h.ForgotPassword, http.MethodPost, "/v1/auth/forgot-password", `{"email":"ghost@test.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doJSON(t, h.Register, http.MethodPost, "/v1/auth/register", registerBody)
	rec = doJSON(t, h.ForgotPassword, http.MethodPost, "/v1/auth/forgot-password", `{"email":"u@test.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.VerifyOtp, http.MethodPost, "/v1/auth/verify-otp", `{"email":"u@test.com","otp":"0000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleLoginEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _ := newTestHandler(t, false)
		rec := doJSON(t, h.GoogleLogin, http.MethodGet, "/v1/auth/google/login", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("redirects with stored state", func(t *testing.T) {
		h, _ := newTestHandler(t, true)
		rec := doJSON(t, h.GoogleLogin, http.MethodGet, "/v1/auth/google/login", "")
		require.Equal(t, http.StatusFound, rec.Code)
		loc := rec.Header().Get(echo.HeaderLocation)
		assert.Contains(t, loc, "state=")

		state := loc[strings.Index(loc, "state=")+len("state="):]
		if i := strings.IndexByte(state, '&'); i >= 0 {
			state = state[:i]
		}
		err := h.Rdb.Get(context.Background(), stateKey(state)).Err()
		assert.NoError(t, err, "redirect state must be stored for the callback")
	})
}

func TestGoogleCallback_RejectsUnknownState(t *testing.T) {
	h, _ := newTestHandler(t, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/google/callback?state=bogus&code=abc", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GoogleCallback(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
