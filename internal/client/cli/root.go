package cli

import (
	"context"
	"fmt"

	"github.com/ccelrecreo/recreo/internal/client/models"
)

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	name := a.session.User.DisplayName()
	if name == "" {
		name = "sesión activa"
	}
	return fmt.Sprintf("(%s)", name)
}

// restoreSession picks up a session persisted by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	if a.authService.State(ctx) != models.StateLoggedIn {
		return
	}
	token, _ := a.authService.Token(ctx)
	user, _ := a.authService.UserData(ctx)
	a.session = &models.Session{Token: token, User: user}
}

// Root restores any saved session, offers a biometric login when one is
// possible, then runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Recreo Lovers CLI (escribe 'help' para ver los comandos)")

	a.restoreSession(ctx)

	if !a.isLoggedIn() && a.biometricLoginOffered(ctx) {
		ok, err := Confirm(a.reader, "¿Iniciar sesión con biometría?", a.out)
		if err == nil && ok {
			if err := a.BioLogin(ctx); err != nil {
				a.logger.Debug(ctx, "biometric login at startup failed", "error", err)
			}
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) biometricLoginOffered(ctx context.Context) bool {
	if _, ok := a.authService.SavedCredentials(ctx); !ok {
		return false
	}
	return a.authService.IsBiometricsAvailable(ctx)
}
