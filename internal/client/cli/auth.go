package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ccelrecreo/recreo/internal/client/client"
	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/client/services"
	"github.com/ccelrecreo/recreo/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const (
	msgMissingFields    = "Por favor ingresa tu identificación y contraseña."
	msgNoBiometricUser  = "No hay un usuario registrado para autenticación biométrica."
	msgBiometricFailed  = "La autenticación biométrica falló."
	msgStaleCredential  = "Las credenciales guardadas no son válidas. Por favor inicia sesión manualmente."
	msgNotLoggedIn      = "No has iniciado sesión."
	msgSessionExpired   = "Tu sesión expiró. Por favor inicia sesión nuevamente."
	msgPasscodeMismatch = "Los códigos no coinciden."

	birthDateLayout = "2006-01-02"
)

// loginMessage maps a login failure to the text shown to the user.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNoStoredCredential):
		return msgNoBiometricUser
	case errors.Is(err, services.ErrBiometricChallengeFailed):
		return msgBiometricFailed
	case errors.Is(err, services.ErrStaleCredential):
		return msgStaleCredential
	default:
		return client.Message(err)
	}
}

// Login prompts for identification and password and authenticates against
// the API. On success the user decides what is kept on the device: the
// credential for biometric login, only the session, or nothing.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Identificación", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Contraseña")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if identifier == "" || len(password) == 0 {
		fmt.Fprintln(a.out, msgMissingFields)
		return nil
	}

	cred := models.Credential{Identifier: identifier, Secret: string(password)}
	s, err := a.authService.Login(ctx, cred)
	if err != nil {
		fmt.Fprintln(a.out, loginMessage(err))
		return err
	}
	a.session = s
	fmt.Fprintf(a.out, "Bienvenido, %s\n", displayName(s.User))

	return a.persistAfterLogin(ctx, s, cred)
}

func (a *App) persistAfterLogin(ctx context.Context, s *models.Session, cred models.Credential) error {
	if a.authService.IsBiometricsAvailable(ctx) {
		enable, err := Confirm(a.reader, "¿Deseas habilitar el inicio de sesión biométrico?", a.out)
		if err != nil {
			return err
		}
		if enable {
			if err := a.authService.EnableBiometrics(ctx, s, cred); err != nil {
				fmt.Fprintln(a.out, "No se pudo guardar la sesión.")
				return err
			}
			fmt.Fprintln(a.out, "Inicio biométrico habilitado.")
			return nil
		}
	}

	remember, err := Confirm(a.reader, "¿Recordar la sesión en este dispositivo?", a.out)
	if err != nil || !remember {
		return err
	}
	if err := a.authService.PersistSession(ctx, s); err != nil {
		fmt.Fprintln(a.out, "No se pudo guardar la sesión.")
		return err
	}
	return nil
}

// BioLogin replays the saved credential after a biometric check.
func (a *App) BioLogin(ctx context.Context) error {
	s, err := a.authService.LoginWithBiometrics(ctx)
	if err != nil {
		fmt.Fprintln(a.out, loginMessage(err))
		return err
	}
	a.session = s
	fmt.Fprintf(a.out, "Bienvenido, %s\n", displayName(s.User))
	return nil
}

// Enroll sets the passcode used as the terminal's biometric.
func (a *App) Enroll(ctx context.Context) error {
	first, err := getPassword(a.out, "Nuevo código de desbloqueo")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(first)
	second, err := getPassword(a.out, "Repite el código")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		fmt.Fprintln(a.out, msgPasscodeMismatch)
		return errors.New("passcodes do not match")
	}
	if err := a.enroller.Enroll(ctx, first); err != nil {
		fmt.Fprintln(a.out, "No se pudo registrar el código.")
		return err
	}
	fmt.Fprintln(a.out, "Código de desbloqueo registrado.")
	return nil
}

// Unenroll removes the terminal passcode. Saved credentials stay, but
// biometric login is unavailable until a new passcode is enrolled.
func (a *App) Unenroll(ctx context.Context) error {
	if err := a.enroller.Unenroll(ctx); err != nil {
		fmt.Fprintln(a.out, "No se pudo eliminar el código.")
		return err
	}
	fmt.Fprintln(a.out, "Código de desbloqueo eliminado.")
	return nil
}

// Status prints the session state.
func (a *App) Status(ctx context.Context) error {
	state := a.authService.State(ctx)
	fmt.Fprintf(a.out, "Estado: %s\n", state)
	if a.session != nil {
		fmt.Fprintf(a.out, "Usuario: %s\n", displayName(a.session.User))
		if state == models.StateLoggedOut {
			fmt.Fprintln(a.out, "La sesión no está guardada en este dispositivo.")
		}
	}
	if cred, ok := a.authService.SavedCredentials(ctx); ok {
		fmt.Fprintf(a.out, "Credencial guardada: %s\n", cred.Identifier)
	}
	fmt.Fprintf(a.out, "Biometría disponible: %s\n", yesNo(a.authService.IsBiometricsAvailable(ctx)))
	if exp, ok := a.authService.TokenExpiry(ctx); ok {
		fmt.Fprintf(a.out, "El token vence: %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

// Profile reloads the account profile from the API.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.authService.RefreshProfile(ctx)
	switch {
	case errors.Is(err, services.ErrNotLoggedIn):
		fmt.Fprintln(a.out, msgNotLoggedIn)
		return err
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, msgSessionExpired)
		return err
	case err != nil:
		fmt.Fprintln(a.out, client.Message(err))
		return err
	}

	if a.session != nil {
		a.session.User = p
	}
	fmt.Fprintf(a.out, "Nombre: %s\n", displayName(p))
	for _, f := range []struct{ label, field string }{
		{"Correo", models.FieldEmail},
		{"Celular", models.FieldPhone},
	} {
		if v := p.String(f.field); v != "" {
			fmt.Fprintf(a.out, "%s: %s\n", f.label, v)
		}
	}
	return nil
}

// Register prompts for the account fields and creates the account.
func (a *App) Register(ctx context.Context) error {
	acc := models.Account{Status: models.AccountActive}
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Nombre", &acc.FirstName},
		{"Apellido", &acc.LastName},
		{"Tipo de identificación", &acc.IdentifierType},
		{"Identificación", &acc.Identifier},
		{"Sexo", &acc.Sex},
		{"Celular", &acc.Phone},
		{"Correo electrónico", &acc.Email},
		{"Dirección", &acc.Address},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	birth, err := getSimpleText(a.reader, "Fecha de nacimiento (AAAA-MM-DD)", a.out)
	if err != nil {
		return err
	}
	acc.BirthDate, err = time.Parse(birthDateLayout, birth)
	if err != nil {
		fmt.Fprintln(a.out, "Fecha de nacimiento inválida.")
		return err
	}

	password, err := getPassword(a.out, "Contraseña")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	acc.Password = string(password)

	if err := a.authService.Register(ctx, acc); err != nil {
		fmt.Fprintln(a.out, client.Message(err))
		return err
	}
	fmt.Fprintln(a.out, "¡Cuenta creada! Ya puedes iniciar sesión.")
	return nil
}

// Logout clears the stored session and the in-memory one.
func (a *App) Logout(ctx context.Context) error {
	a.authService.ClearAuthSession(ctx)
	a.session = nil
	fmt.Fprintln(a.out, "Sesión cerrada.")
	return nil
}

func displayName(p models.Profile) string {
	if name := p.DisplayName(); name != "" {
		return name
	}
	if id, ok := p.AccountID(); ok {
		return fmt.Sprintf("cuenta %d", id)
	}
	return "usuario"
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
