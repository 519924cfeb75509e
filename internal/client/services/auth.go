// Package services contains application services for the Recreo client.
// This file defines the authentication service: manual and biometric login,
// biometric opt-in, logout, registration and profile refresh.
package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ccelrecreo/recreo/internal/client/client"
	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/cryptox"
	"github.com/ccelrecreo/recreo/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoStoredCredential       = errors.New("no stored credential for biometric login")
	ErrBiometricChallengeFailed = errors.New("biometric authentication failed")
	ErrStaleCredential          = errors.New("stored credential is no longer valid")
	ErrIncompleteCredential     = errors.New("credential is missing identifier or secret")
	ErrNotLoggedIn              = errors.New("not logged in")
	ErrMissingToken             = errors.New("login response carries no token")
)

// StaleCredentialError is returned by LoginWithBiometrics when the API
// rejects the saved credential. It matches ErrStaleCredential.
type StaleCredentialError struct {
	Identifier string
	Purged     bool
	Err        error
}

func (e *StaleCredentialError) Error() string {
	return fmt.Sprintf("stored credential for %s rejected: %v", e.Identifier, e.Err)
}

func (e *StaleCredentialError) Is(target error) bool { return target == ErrStaleCredential }

func (e *StaleCredentialError) Unwrap() error { return e.Err }

// StaleCredentialPolicy decides what happens to a saved credential the API
// has rejected.
type StaleCredentialPolicy string

const (
	// StaleKeep leaves the credential in place; the user logs in manually,
	// which overwrites it.
	StaleKeep StaleCredentialPolicy = "keep"
	// StalePurge forgets the credential and the biometric opt-in.
	StalePurge StaleCredentialPolicy = "purge"
)

func ParseStaleCredentialPolicy(s string) (StaleCredentialPolicy, error) {
	switch p := StaleCredentialPolicy(s); p {
	case StaleKeep, StalePurge:
		return p, nil
	default:
		return "", fmt.Errorf("unknown stale credential policy %q (want keep or purge)", s)
	}
}

// SessionStore is the part of session.Store the service relies on.
type SessionStore interface {
	SaveSession(ctx context.Context, token string, profile models.Profile, cred *models.Credential) error
	Token(ctx context.Context) (string, bool)
	UserProfile(ctx context.Context) (models.Profile, bool)
	SaveUserProfile(ctx context.Context, profile models.Profile) bool
	Credentials(ctx context.Context) (models.Credential, bool)
	State(ctx context.Context) models.SessionState
	ClearSession(ctx context.Context)
	ForgetCredentials(ctx context.Context)
}

// BiometricGate is the part of biometric.Gate the service relies on.
type BiometricGate interface {
	IsAvailable(ctx context.Context) bool
	Authenticate(ctx context.Context) bool
}

// AuthService defines authentication operations for the UI layer.
//
// Contract:
//   - Login: exchange a credential for a session. Nothing is persisted.
//   - LoginWithBiometrics: replay the saved credential after a biometric check.
//   - EnableBiometrics / PersistSession: the caller's persistence decision
//     after a manual login.
//   - ClearAuthSession: logout.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, cred models.Credential) (*models.Session, error)
	LoginWithBiometrics(ctx context.Context) (*models.Session, error)
	IsBiometricsAvailable(ctx context.Context) bool
	EnableBiometrics(ctx context.Context, s *models.Session, cred models.Credential) error
	PersistSession(ctx context.Context, s *models.Session) error
	SavedCredentials(ctx context.Context) (models.Credential, bool)
	UserData(ctx context.Context) (models.Profile, bool)
	Token(ctx context.Context) (string, bool)
	State(ctx context.Context) models.SessionState
	ClearAuthSession(ctx context.Context)
	Register(ctx context.Context, account models.Account) error
	RefreshProfile(ctx context.Context) (models.Profile, error)
	TokenExpiry(ctx context.Context) (time.Time, bool)
}

type Option func(*authService)

func WithStaleCredentialPolicy(p StaleCredentialPolicy) Option {
	return func(a *authService) { a.stalePolicy = p }
}

type authService struct {
	api         client.Client
	store       SessionStore
	gate        BiometricGate
	logger      logging.Logger
	stalePolicy StaleCredentialPolicy

	logins singleflight.Group
}

// NewAuthService constructs an AuthService over the API client, the session
// store and the biometric gate.
func NewAuthService(api client.Client, store SessionStore, gate BiometricGate, logger logging.Logger, opts ...Option) AuthService {
	a := &authService{
		api:         api,
		store:       store,
		gate:        gate,
		logger:      logger.With("component", "auth"),
		stalePolicy: StaleKeep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login sends cred to the API. Concurrent calls with the same credential
// share a single request.
func (a *authService) Login(ctx context.Context, cred models.Credential) (*models.Session, error) {
	key := cred.Identifier + "\x00" + hex.EncodeToString(cryptox.MakeVerifier([]byte(cred.Secret)))

	v, err, shared := a.logins.Do(key, func() (any, error) {
		return a.login(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.logger.Debug(ctx, "login coalesced", "identifier", cred.Identifier)
	}
	s := *v.(*models.Session)
	return &s, nil
}

func (a *authService) login(ctx context.Context, cred models.Credential) (*models.Session, error) {
	resp, err := a.api.Login(ctx, cred)
	if err != nil {
		a.logger.Info(ctx, "login rejected", "identifier", cred.Identifier, "error", err)
		return nil, fmt.Errorf("login error: %w", err)
	}

	token, err := canonicalToken(resp.Token)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("login error: %w: login response carries no user", client.ErrMalformedResponse)
	}
	a.logger.Info(ctx, "login succeeded", "identifier", cred.Identifier)
	return &models.Session{Token: token, User: resp.User}, nil
}

// canonicalToken returns the token as a string: JSON strings are unquoted,
// any other JSON value becomes its compact text.
func canonicalToken(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", ErrMissingToken
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s == "" {
			return "", ErrMissingToken
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrMalformedResponse, err)
	}
	return buf.String(), nil
}

func (a *authService) LoginWithBiometrics(ctx context.Context) (*models.Session, error) {
	cred, ok := a.store.Credentials(ctx)
	if !ok || !cred.Complete() {
		return nil, ErrNoStoredCredential
	}

	if !a.gate.Authenticate(ctx) {
		return nil, ErrBiometricChallengeFailed
	}

	s, err := a.Login(ctx, cred)
	if err != nil {
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) || apiErr.Status >= 500 {
			return nil, err
		}
		return nil, a.staleCredential(ctx, cred, err)
	}

	if err := a.store.SaveSession(ctx, s.Token, s.User, &cred); err != nil {
		a.logger.Warn(ctx, "biometric login not persisted", "error", err)
	}
	return s, nil
}

func (a *authService) staleCredential(ctx context.Context, cred models.Credential, err error) error {
	stale := &StaleCredentialError{Identifier: cred.Identifier, Err: err}
	if a.stalePolicy == StalePurge {
		a.store.ForgetCredentials(ctx)
		stale.Purged = true
	}
	a.logger.Warn(ctx, "stored credential rejected", "identifier", cred.Identifier, "purged", stale.Purged)
	return stale
}

func (a *authService) IsBiometricsAvailable(ctx context.Context) bool {
	return a.gate.IsAvailable(ctx)
}

// EnableBiometrics persists s together with cred so later biometric logins
// can replay it.
func (a *authService) EnableBiometrics(ctx context.Context, s *models.Session, cred models.Credential) error {
	if !cred.Complete() {
		return ErrIncompleteCredential
	}
	return a.store.SaveSession(ctx, s.Token, s.User, &cred)
}

// PersistSession persists s without a credential, dropping any previous opt-in.
func (a *authService) PersistSession(ctx context.Context, s *models.Session) error {
	return a.store.SaveSession(ctx, s.Token, s.User, nil)
}

func (a *authService) SavedCredentials(ctx context.Context) (models.Credential, bool) {
	return a.store.Credentials(ctx)
}

func (a *authService) UserData(ctx context.Context) (models.Profile, bool) {
	return a.store.UserProfile(ctx)
}

func (a *authService) Token(ctx context.Context) (string, bool) {
	return a.store.Token(ctx)
}

func (a *authService) State(ctx context.Context) models.SessionState {
	return a.store.State(ctx)
}

func (a *authService) ClearAuthSession(ctx context.Context) {
	a.store.ClearSession(ctx)
	a.logger.Info(ctx, "session cleared")
}

func (a *authService) Register(ctx context.Context, account models.Account) error {
	if err := a.api.Register(ctx, account); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	a.logger.Info(ctx, "account registered", "identifier", account.Identifier)
	return nil
}

// RefreshProfile reloads the profile of the logged-in account and stores it.
func (a *authService) RefreshProfile(ctx context.Context) (models.Profile, error) {
	if a.store.State(ctx) != models.StateLoggedIn {
		return nil, ErrNotLoggedIn
	}
	token, _ := a.store.Token(ctx)
	current, _ := a.store.UserProfile(ctx)
	id, ok := current.AccountID()
	if !ok {
		return nil, fmt.Errorf("stored profile has no %s", models.FieldAccountID)
	}

	profile, err := a.api.Profile(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("profile error: %w", err)
	}
	if !a.store.SaveUserProfile(ctx, profile) {
		return nil, ErrNotLoggedIn
	}
	return profile, nil
}

// TokenExpiry reads the exp claim of a JWT token. The signature is not
// checked; the result is only a hint for the UI.
func (a *authService) TokenExpiry(ctx context.Context) (time.Time, bool) {
	token, ok := a.store.Token(ctx)
	if !ok {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
