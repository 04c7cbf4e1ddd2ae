// Package session owns authentication state: the bearer token, the cached
// user profile, and the authenticated flag. State lives in reactive
// containers and is mirrored to durable storage on every successful
// mutation; storage is hydrated once at construction and treated as an
// advisory cache.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/storage"
	"github.com/resumeforge/resumeforge-go/internal/store"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// Store holds session state. The exported containers are the subscription
// surface for UIs; mutate only through the operations below.
type Store struct {
	Token         *store.Store[string]
	User          *store.Store[*types.User]
	Authenticated *store.Store[bool]

	client  *api.Client
	backend storage.Backend
	logger  *slog.Logger
}

// LoginResult distinguishes the verification-required outcome from a plain
// success. VerificationRequired is not an error: the credentials were
// accepted but the account has not confirmed its email yet.
type LoginResult struct {
	VerificationRequired bool
}

// New creates a session store, hydrates it from storage, and wires the api
// client's token source and 401 teardown to it.
func New(client *api.Client, backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		Token:         store.New(""),
		User:          store.New[*types.User](nil),
		Authenticated: store.New(false),
		client:        client,
		backend:       backend,
		logger:        logger,
	}

	s.hydrate()

	client.SetTokenSource(func() string { return s.Token.Get() })
	client.SetUnauthorizedHandler(s.clearLocal)
	return s
}

// Login authenticates with form-encoded credentials. A 403 means the
// account still needs email verification and is reported as a structured
// result, not an error. On success the user profile is fetched with the
// issued token before any session state is committed; a failure at that
// second step leaves no session behind.
func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := types.LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// OAuth2 password flow: the email travels in the username field.
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token types.Token
	if err := s.client.PostForm(ctx, "/auth/login", form, &token); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
			return &LoginResult{VerificationRequired: true}, nil
		}
		return nil, err
	}

	var user types.User
	if err := s.client.DoWithToken(ctx, http.MethodGet, "/auth/me", token.AccessToken, nil, &user); err != nil {
		return nil, err
	}

	s.commit(token.AccessToken, &user)
	s.logger.Info("logged in", slog.String("email", user.Email))
	return &LoginResult{}, nil
}

// Register creates an account and then logs in with the same credentials,
// so the caller lands either in a session or in the verification flow.
func (s *Store) Register(ctx context.Context, email, password string) (*LoginResult, error) {
	req := types.RegisterRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.client.DoPublic(ctx, http.MethodPost, "/auth/register", &req, nil); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// VerifyEmail submits the emailed six-digit code.
func (s *Store) VerifyEmail(ctx context.Context, email, code string) error {
	req := types.VerifyEmailRequest{Email: email, Code: code}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.client.DoPublic(ctx, http.MethodPost, "/auth/verify-email", &req, nil)
}

// ResendVerificationCode asks the backend for a fresh verification code.
func (s *Store) ResendVerificationCode(ctx context.Context, email string) error {
	req := types.ResendVerificationRequest{Email: email}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.client.DoPublic(ctx, http.MethodPost, "/auth/resend-verification", &req, nil)
}

// ForgotPassword starts the password reset flow. The backend keeps the
// response identical whether or not the email is registered.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	req := types.ForgotPasswordRequest{Email: email}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.client.DoPublic(ctx, http.MethodPost, "/auth/forgot-password", &req, nil)
}

// ResetPassword completes the reset flow with the emailed token.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) error {
	req := types.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.client.DoPublic(ctx, http.MethodPost, "/auth/reset-password", &req, nil)
}

// Logout clears all session state, local and stored.
func (s *Store) Logout() {
	s.clearLocal()
	s.logger.Info("logged out")
}

// RefreshUserData re-fetches the current user profile. A 401 tears the
// session down through the client's unauthorized handler.
func (s *Store) RefreshUserData(ctx context.Context) error {
	var user types.User
	if err := s.client.Do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return err
	}
	s.User.Set(&user)
	s.persistUser(&user)
	return nil
}

// commit atomically installs a new session and persists it.
func (s *Store) commit(token string, user *types.User) {
	s.Token.Set(token)
	s.User.Set(user)
	s.Authenticated.Set(true)

	if err := s.backend.Set(storage.KeyToken, token); err != nil {
		s.logger.Warn("failed to persist token", slog.Any("error", err))
	}
	s.persistUser(user)
}

func (s *Store) persistUser(user *types.User) {
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn("failed to encode user", slog.Any("error", err))
		return
	}
	if err := s.backend.Set(storage.KeyUser, string(data)); err != nil {
		s.logger.Warn("failed to persist user", slog.Any("error", err))
	}
}

// clearLocal wipes session state. Also invoked by the api client on 401.
func (s *Store) clearLocal() {
	s.Token.Set("")
	s.User.Set(nil)
	s.Authenticated.Set(false)
	_ = s.backend.Delete(storage.KeyToken)
	_ = s.backend.Delete(storage.KeyUser)
}

// hydrate restores a previous session from storage. Malformed or expired
// stored data is discarded silently; it is a cache, not a source of truth.
func (s *Store) hydrate() {
	token, ok := s.backend.Get(storage.KeyToken)
	if !ok || token == "" {
		return
	}
	rawUser, ok := s.backend.Get(storage.KeyUser)
	if !ok {
		return
	}

	if tokenExpired(token) {
		s.logger.Debug("discarding expired stored token")
		_ = s.backend.Delete(storage.KeyToken)
		_ = s.backend.Delete(storage.KeyUser)
		return
	}

	var user types.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		_ = s.backend.Delete(storage.KeyToken)
		_ = s.backend.Delete(storage.KeyUser)
		return
	}

	s.Token.Set(token)
	s.User.Set(&user)
	s.Authenticated.Set(true)
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the backend's job, this only avoids starting
// up with a token that cannot possibly work. Tokens that do not parse as
// JWTs are treated as expired; tokens without an exp claim are kept.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
