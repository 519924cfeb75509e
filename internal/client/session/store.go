package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/client/securestore"
	"github.com/ccelrecreo/recreo/internal/logging"
	"go.uber.org/multierr"
)

// Storage keys owned by the session store.
const (
	KeyToken             = "userToken"
	KeyUser              = "userData"
	KeyCredentials       = "userCredentials"
	KeyBiometricsEnabled = "biometricsEnabled"
)

// ErrSessionNotPersisted is returned by SaveSession when the session could
// not be written as a whole. No partial session is left behind.
var ErrSessionNotPersisted = errors.New("session not persisted")

var errIncompleteSession = errors.New("session needs both token and profile")

// Fault describes a storage error absorbed by the store.
type Fault struct {
	Op  string
	Key string
	Err error
}

// Option configures a Store.
type Option func(*Store)

// WithFaultHandler registers fn to be called for every absorbed storage fault.
func WithFaultHandler(fn func(Fault)) Option {
	return func(s *Store) { s.onFault = fn }
}

// Store is the session store. A single instance should be shared by every
// component of the process; mutations are serialised per instance.
type Store struct {
	kv      securestore.Store
	logger  logging.Logger
	onFault func(Fault)

	mu sync.RWMutex
}

func NewStore(kv securestore.Store, logger logging.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, logger: logger.With("component", "session")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) fault(ctx context.Context, op, key string, err error) {
	s.logger.Warn(ctx, "session store fault", "op", op, "key", key, "error", err)
	if s.onFault != nil {
		s.onFault(Fault{Op: op, Key: key, Err: err})
	}
}

// Save stores value under key. Strings are kept verbatim, anything else is
// JSON-encoded. Faults are absorbed.
func (s *Store) Save(ctx context.Context, key string, value any) {
	encoded, err := encodeValue(value)
	if err != nil {
		s.fault(ctx, "encode", key, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, key, encoded); err != nil {
		s.fault(ctx, "set", key, err)
	}
}

// Load returns the value under key. A value that is not JSON comes back as
// the raw string. Missing keys and faults both yield (nil, false).
func (s *Store) Load(ctx context.Context, key string) (any, bool) {
	raw, ok := s.get(ctx, key)
	if !ok {
		return nil, false
	}
	return decodeValue(raw), true
}

// loadInto unmarshals the stored JSON under key into dst.
func (s *Store) loadInto(ctx context.Context, key string, dst any) bool {
	raw, ok := s.get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(payload(raw)), dst); err != nil {
		s.logger.Debug(ctx, "stored value has unexpected shape", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.fault(ctx, "get", key, err)
		return "", false
	}
	return raw, ok
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, key); err != nil {
		s.fault(ctx, "delete", key, err)
	}
}

type entry struct {
	key    string
	value  string
	delete bool
}

func sessionEntries(token string, profile models.Profile, cred *models.Credential) ([]entry, error) {
	encodedProfile, err := encodeValue(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	entries := []entry{
		{key: KeyToken, value: tagString + token},
		{key: KeyUser, value: encodedProfile},
	}

	if cred == nil {
		return append(entries,
			entry{key: KeyCredentials, delete: true},
			entry{key: KeyBiometricsEnabled, delete: true},
		), nil
	}

	encodedCred, err := encodeValue(cred)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return append(entries,
		entry{key: KeyCredentials, value: encodedCred},
		entry{key: KeyBiometricsEnabled, value: tagString + "true"},
	), nil
}

func applyEntries(ctx context.Context, kv securestore.Store, entries []entry) error {
	for _, e := range entries {
		var err error
		if e.delete {
			err = kv.Delete(ctx, e.key)
		} else {
			err = kv.Set(ctx, e.key, e.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveSession replaces the stored session with token, profile and cred.
// Token and profile are both required. A nil cred clears any saved credential and the biometric opt-in flag.
//
// On backends that support batches the write is atomic. Elsewhere the keys
// are written one by one and, on failure, the session keys are removed again
// so the store falls back to LoggedOut instead of a partial session.
func (s *Store) SaveSession(ctx context.Context, token string, profile models.Profile, cred *models.Credential) error {
	if token == "" || profile == nil {
		return fmt.Errorf("%w: %w", ErrSessionNotPersisted, errIncompleteSession)
	}
	entries, err := sessionEntries(token, profile, cred)
	if err != nil {
		s.fault(ctx, "encode", KeyUser, err)
		return fmt.Errorf("%w: %w", ErrSessionNotPersisted, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = securestore.Batch(ctx, s.kv, func(ctx context.Context, tx securestore.Store) error {
		return applyEntries(ctx, tx, entries)
	})
	if errors.Is(err, securestore.ErrBatchUnsupported) {
		err = applyEntries(ctx, s.kv, entries)
		if err != nil {
			s.rollback(ctx, entries)
		}
	}
	if err != nil {
		s.fault(ctx, "save_session", "", err)
		return fmt.Errorf("%w: %w", ErrSessionNotPersisted, err)
	}

	s.logger.Debug(ctx, "session saved", "with_credentials", cred != nil)
	return nil
}

func (s *Store) rollback(ctx context.Context, entries []entry) {
	for _, e := range entries {
		if err := s.kv.Delete(ctx, e.key); err != nil {
			s.fault(ctx, "rollback", e.key, err)
		}
	}
}

// Token returns the stored token only when it is a string.
func (s *Store) Token(ctx context.Context) (string, bool) {
	v, ok := s.Load(ctx, KeyToken)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}

// UserProfile returns the stored profile when it is a JSON object.
func (s *Store) UserProfile(ctx context.Context) (models.Profile, bool) {
	var p models.Profile
	if !s.loadInto(ctx, KeyUser, &p) || p == nil {
		return nil, false
	}
	return p, true
}

// SaveUserProfile overwrites the profile slot. It refuses to do so when no
// token is stored, so a profile never exists without its token. The check and
// the write happen under the same lock as ClearSession.
func (s *Store) SaveUserProfile(ctx context.Context, profile models.Profile) bool {
	if profile == nil {
		return false
	}
	encoded, err := encodeValue(profile)
	if err != nil {
		s.fault(ctx, "encode", KeyUser, err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		s.fault(ctx, "get", KeyToken, err)
		return false
	}
	if _, isString := decodeValue(raw).(string); !ok || !isString {
		return false
	}
	if err := s.kv.Set(ctx, KeyUser, encoded); err != nil {
		s.fault(ctx, "set", KeyUser, err)
		return false
	}
	return true
}

// Credentials returns the saved credential, if any. The result may be
// incomplete; callers check Complete.
func (s *Store) Credentials(ctx context.Context) (models.Credential, bool) {
	var c models.Credential
	if !s.loadInto(ctx, KeyCredentials, &c) {
		return models.Credential{}, false
	}
	return c, true
}

// BiometricsEnabled reports the legacy opt-in flag.
func (s *Store) BiometricsEnabled(ctx context.Context) bool {
	v, ok := s.Load(ctx, KeyBiometricsEnabled)
	if !ok {
		return false
	}
	switch flag := v.(type) {
	case string:
		return flag == "true"
	case bool:
		return flag
	default:
		return false
	}
}

// State reports LoggedIn only when both token and profile are present.
func (s *Store) State(ctx context.Context) models.SessionState {
	if _, ok := s.Token(ctx); !ok {
		return models.StateLoggedOut
	}
	if _, ok := s.UserProfile(ctx); !ok {
		return models.StateLoggedOut
	}
	return models.StateLoggedIn
}

// ClearSession removes token, profile, credential and the opt-in flag.
// It never fails; faults are reported through the logger and fault handler.
func (s *Store) ClearSession(ctx context.Context) {
	s.removeAll(ctx, "clear_session", KeyToken, KeyUser, KeyCredentials, KeyBiometricsEnabled)
}

// ForgetCredentials removes only the saved credential and the opt-in flag.
func (s *Store) ForgetCredentials(ctx context.Context) {
	s.removeAll(ctx, "forget_credentials", KeyCredentials, KeyBiometricsEnabled)
}

func (s *Store) removeAll(ctx context.Context, op string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, err)
			if s.onFault != nil {
				s.onFault(Fault{Op: "delete", Key: key, Err: err})
			}
		}
	}
	if errs != nil {
		s.logger.Warn(ctx, "session store fault", "op", op, "failed_keys", len(multierr.Errors(errs)), "error", errs)
	}
}
