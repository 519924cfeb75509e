package cli

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/client/services"
	"github.com/ccelrecreo/recreo/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- getStatus ----

func TestGetStatus(t *testing.T) {
	a := &App{}
	assert.Empty(t, a.getStatus())

	a.session = &models.Session{User: models.Profile{"NOMBRE_CUENTAS": "Ana", "APELLIDO_CUENTAS": "Pérez"}}
	assert.Equal(t, "(Ana Pérez)", a.getStatus())

	a.session = &models.Session{User: models.Profile{}}
	assert.Equal(t, "(sesión activa)", a.getStatus())
}

// ---- runREPL ----

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) rec(name string) error {
	f.calls = append(f.calls, name)
	return nil
}
func (f *fakeExec) Register(context.Context) error { return f.rec("register") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.rec("login")
}
func (f *fakeExec) BioLogin(context.Context) error { return f.rec("biologin") }
func (f *fakeExec) Enroll(context.Context) error   { return f.rec("enroll") }
func (f *fakeExec) Unenroll(context.Context) error { return f.rec("unenroll") }
func (f *fakeExec) Status(context.Context) error   { return f.rec("status") }
func (f *fakeExec) Profile(context.Context) error  { return f.rec("profile") }
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.rec("logout")
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := "help\nlogin\n\nprofile\nstatus\nenroll\nunenroll\nbiologin\nregister\nlogout\nfoo\nexit\nlogin\n"
	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{"login", "profile", "status", "enroll", "unenroll", "biologin", "register", "logout"}, exec.calls)
	assert.Contains(t, out.String(), "Comandos disponibles: login")
	assert.Contains(t, out.String(), "Comando desconocido: foo")
	assert.Contains(t, out.String(), "¡Hasta pronto!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "(Ana)" }, bufio.NewReader(strings.NewReader("help\nstatus")), &out)

	assert.Equal(t, []string{"status"}, exec.calls, "last line without newline still runs")
	assert.Contains(t, out.String(), "recreo (Ana)> ")
	assert.Contains(t, out.String(), "Comandos disponibles: profile")
}

// ---- Root ----

func TestRoot_RestoresPersistedSession(t *testing.T) {
	f := &fakeAuth{state: models.StateLoggedIn, token: "tok", user: models.Profile{"NOMBRE_CUENTAS": "Ana"}}
	a, out := newTestApp(f, "exit\n")

	a.Root(context.Background())

	require.True(t, a.isLoggedIn())
	assert.Equal(t, "tok", a.session.Token)
	assert.Contains(t, out.String(), "recreo (Ana)> ")
}

func TestRoot_OffersBiometricLogin(t *testing.T) {
	f := &fakeAuth{
		saved:      &models.Credential{Identifier: "987", Secret: "pw"},
		available:  true,
		bioSession: ana,
	}
	a, out := newTestApp(f, "s\nexit\n")

	a.Root(context.Background())

	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "¿Iniciar sesión con biometría?")
}

func TestRoot_NoOfferWithoutSavedCredential(t *testing.T) {
	f := &fakeAuth{available: true}
	a, out := newTestApp(f, "exit\n")

	a.Root(context.Background())

	assert.False(t, a.isLoggedIn())
	assert.NotContains(t, out.String(), "biometría?")
}

func TestRoot_BiometricFailureIsLogged(t *testing.T) {
	f := &fakeAuth{
		saved:     &models.Credential{Identifier: "987", Secret: "pw"},
		available: true,
		bioErr:    services.ErrBiometricChallengeFailed,
	}
	a, out := newTestApp(f, "s\nexit\n")
	var logs bytes.Buffer
	a.logger = logging.NewSlogLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	a.Root(context.Background())

	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), msgBiometricFailed)
	assert.Contains(t, logs.String(), "biometric login at startup failed")
}
