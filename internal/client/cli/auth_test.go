package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ccelrecreo/recreo/internal/client/client"
	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/client/services"
	"github.com/ccelrecreo/recreo/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs replaces the prompt helpers. Text answers are consumed in
// order; every password prompt returns the next password.
func stubInputs(t *testing.T, texts []string, passwords ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		v := texts[0]
		texts = texts[1:]
		return v, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		v := passwords[0]
		passwords = passwords[1:]
		return []byte(v), nil
	}
}

type fakeAuth struct {
	loginCred    models.Credential
	loginSession *models.Session
	loginErr     error

	bioSession *models.Session
	bioErr     error

	available bool
	state     models.SessionState
	saved     *models.Credential
	user      models.Profile
	token     string
	expiry    time.Time

	enabledWith   *models.Credential
	persisted     *models.Session
	cleared       bool
	registered    *models.Account
	registerErr   error
	refreshed     models.Profile
	refreshErr    error
	persistCalled int
}

func (f *fakeAuth) Login(_ context.Context, cred models.Credential) (*models.Session, error) {
	f.loginCred = cred
	return f.loginSession, f.loginErr
}
func (f *fakeAuth) LoginWithBiometrics(context.Context) (*models.Session, error) {
	return f.bioSession, f.bioErr
}
func (f *fakeAuth) IsBiometricsAvailable(context.Context) bool { return f.available }
func (f *fakeAuth) EnableBiometrics(_ context.Context, s *models.Session, cred models.Credential) error {
	f.enabledWith = &cred
	f.persisted = s
	f.persistCalled++
	return nil
}
func (f *fakeAuth) PersistSession(_ context.Context, s *models.Session) error {
	f.persisted = s
	f.persistCalled++
	return nil
}
func (f *fakeAuth) SavedCredentials(context.Context) (models.Credential, bool) {
	if f.saved == nil {
		return models.Credential{}, false
	}
	return *f.saved, true
}
func (f *fakeAuth) UserData(context.Context) (models.Profile, bool) { return f.user, f.user != nil }
func (f *fakeAuth) Token(context.Context) (string, bool)            { return f.token, f.token != "" }
func (f *fakeAuth) State(context.Context) models.SessionState {
	if f.state == "" {
		return models.StateLoggedOut
	}
	return f.state
}
func (f *fakeAuth) ClearAuthSession(context.Context) { f.cleared = true }
func (f *fakeAuth) Register(_ context.Context, acc models.Account) error {
	f.registered = &acc
	return f.registerErr
}
func (f *fakeAuth) RefreshProfile(context.Context) (models.Profile, error) {
	return f.refreshed, f.refreshErr
}
func (f *fakeAuth) TokenExpiry(context.Context) (time.Time, bool) {
	return f.expiry, !f.expiry.IsZero()
}

type fakeEnroller struct {
	passcode    []byte
	err         error
	unenrollErr error
}

func (f *fakeEnroller) Enroll(_ context.Context, p []byte) error {
	f.passcode = append([]byte(nil), p...)
	return f.err
}
func (f *fakeEnroller) Unenroll(context.Context) error {
	if f.unenrollErr != nil {
		return f.unenrollErr
	}
	f.passcode = nil
	return nil
}

func newTestApp(f *fakeAuth, stdin string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		authService: f,
		enroller:    &fakeEnroller{},
		logger:      logging.Nop(),
		reader:      bufio.NewReader(strings.NewReader(stdin)),
		out:         &out,
	}, &out
}

var ana = &models.Session{Token: "tok-1", User: models.Profile{"ID_CUENTAS": float64(1), "NOMBRE_CUENTAS": "Ana"}}

func TestLogin_EnableBiometrics(t *testing.T) {
	f := &fakeAuth{loginSession: ana, available: true}
	a, out := newTestApp(f, "s\n")
	stubInputs(t, []string{"987"}, "pw")

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, models.Credential{Identifier: "987", Secret: "pw"}, f.loginCred)
	require.NotNil(t, f.enabledWith)
	assert.Equal(t, "987", f.enabledWith.Identifier)
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Bienvenido, Ana")
	assert.Contains(t, out.String(), "Inicio biométrico habilitado.")
}

func TestLogin_DeclineEverythingPersistsNothing(t *testing.T) {
	f := &fakeAuth{loginSession: ana, available: true}
	a, _ := newTestApp(f, "n\nn\n")
	stubInputs(t, []string{"987"}, "pw")

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, 0, f.persistCalled)
	assert.True(t, a.isLoggedIn(), "session is kept in memory")
}

func TestLogin_RememberWithoutBiometrics(t *testing.T) {
	f := &fakeAuth{loginSession: ana, available: false}
	a, _ := newTestApp(f, "s\n")
	stubInputs(t, []string{"987"}, "pw")

	require.NoError(t, a.Login(context.Background()))
	assert.Nil(t, f.enabledWith)
	assert.Equal(t, ana, f.persisted)
}

func TestLogin_EmptyFieldsNotSent(t *testing.T) {
	f := &fakeAuth{}
	a, out := newTestApp(f, "")
	stubInputs(t, []string{""}, "pw")

	require.NoError(t, a.Login(context.Background()))
	assert.Empty(t, f.loginCred.Identifier)
	assert.Contains(t, out.String(), msgMissingFields)
}

func TestLogin_RemoteError(t *testing.T) {
	f := &fakeAuth{loginErr: &client.APIError{Status: 401, Message: "Credenciales incorrectas"}}
	a, out := newTestApp(f, "")
	stubInputs(t, []string{"987"}, "bad")

	assert.Error(t, a.Login(context.Background()))
	assert.Contains(t, out.String(), "Credenciales incorrectas")
	assert.False(t, a.isLoggedIn())

	f.loginErr = client.ErrUnavailable
	out.Reset()
	stubInputs(t, []string{"987"}, "bad")
	assert.Error(t, a.Login(context.Background()))
	assert.Contains(t, out.String(), client.DefaultLoginMessage)
}

func TestBioLogin_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no credential", services.ErrNoStoredCredential, msgNoBiometricUser},
		{"challenge failed", services.ErrBiometricChallengeFailed, msgBiometricFailed},
		{"stale", &services.StaleCredentialError{Identifier: "123", Err: errors.New("401")}, msgStaleCredential},
		{"remote", client.ErrUnavailable, client.DefaultLoginMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := newTestApp(&fakeAuth{bioErr: tt.err}, "")
			assert.Error(t, a.BioLogin(context.Background()))
			assert.Contains(t, out.String(), tt.want)
			assert.False(t, a.isLoggedIn())
		})
	}
}

func TestBioLogin_Success(t *testing.T) {
	a, out := newTestApp(&fakeAuth{bioSession: ana}, "")
	require.NoError(t, a.BioLogin(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Bienvenido, Ana")
}

func TestEnroll(t *testing.T) {
	a, out := newTestApp(&fakeAuth{}, "")
	enroller := a.enroller.(*fakeEnroller)

	stubInputs(t, nil, "1234", "9999")
	assert.Error(t, a.Enroll(context.Background()))
	assert.Contains(t, out.String(), msgPasscodeMismatch)
	assert.Nil(t, enroller.passcode)

	stubInputs(t, nil, "1234", "1234")
	require.NoError(t, a.Enroll(context.Background()))
	assert.Equal(t, []byte("1234"), enroller.passcode)
}

func TestUnenroll(t *testing.T) {
	a, out := newTestApp(&fakeAuth{}, "")
	enroller := a.enroller.(*fakeEnroller)
	enroller.passcode = []byte("1234")

	require.NoError(t, a.Unenroll(context.Background()))
	assert.Nil(t, enroller.passcode)
	assert.Contains(t, out.String(), "Código de desbloqueo eliminado.")

	enroller.unenrollErr = errors.New("store down")
	assert.Error(t, a.Unenroll(context.Background()))
	assert.Contains(t, out.String(), "No se pudo eliminar el código.")
}

func TestRegister(t *testing.T) {
	f := &fakeAuth{}
	a, out := newTestApp(f, "")
	stubInputs(t, []string{"Ana", "Pérez", "CEDULA", "0912345678", "F", "0999999999", "ana@example.com", "Guayaquil", "1990-05-01"}, "secret")

	require.NoError(t, a.Register(context.Background()))
	require.NotNil(t, f.registered)
	assert.Equal(t, "0912345678", f.registered.Identifier)
	assert.Equal(t, "CEDULA", f.registered.IdentifierType)
	assert.Equal(t, models.AccountActive, f.registered.Status)
	assert.Equal(t, time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), f.registered.BirthDate)
	assert.Equal(t, "secret", f.registered.Password)
	assert.Contains(t, out.String(), "Cuenta creada")
}

func TestRegister_BadDate(t *testing.T) {
	f := &fakeAuth{}
	a, _ := newTestApp(f, "")
	stubInputs(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "01/05/1990"}, "secret")

	assert.Error(t, a.Register(context.Background()))
	assert.Nil(t, f.registered)
}

func TestProfile(t *testing.T) {
	f := &fakeAuth{refreshed: models.Profile{"NOMBRE_CUENTAS": "Ana", "APELLIDO_CUENTAS": "Pérez", "EMAIL_CUENTAS": "ana@example.com"}}
	a, out := newTestApp(f, "")
	a.session = &models.Session{Token: "t", User: models.Profile{}}

	require.NoError(t, a.Profile(context.Background()))
	assert.Contains(t, out.String(), "Nombre: Ana Pérez")
	assert.Contains(t, out.String(), "Correo: ana@example.com")
	assert.Equal(t, f.refreshed, a.session.User)

	f.refreshErr = services.ErrNotLoggedIn
	out.Reset()
	assert.Error(t, a.Profile(context.Background()))
	assert.Contains(t, out.String(), msgNotLoggedIn)

	f.refreshErr = &client.APIError{Status: 401}
	out.Reset()
	assert.Error(t, a.Profile(context.Background()))
	assert.Contains(t, out.String(), msgSessionExpired)
}

func TestStatus(t *testing.T) {
	f := &fakeAuth{
		state:     models.StateLoggedIn,
		saved:     &models.Credential{Identifier: "987", Secret: "pw"},
		available: true,
		expiry:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	a, out := newTestApp(f, "")
	a.session = ana

	require.NoError(t, a.Status(context.Background()))
	s := out.String()
	assert.Contains(t, s, "Estado: logged_in")
	assert.Contains(t, s, "Usuario: Ana")
	assert.Contains(t, s, "Credencial guardada: 987")
	assert.NotContains(t, s, "pw")
	assert.Contains(t, s, "Biometría disponible: sí")
	assert.Contains(t, s, "El token vence:")
}

func TestLogout(t *testing.T) {
	f := &fakeAuth{}
	a, _ := newTestApp(f, "")
	a.session = ana

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, f.cleared)
	assert.False(t, a.isLoggedIn())
}
