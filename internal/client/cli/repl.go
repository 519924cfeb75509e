package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	BioLogin(ctx context.Context) error
	Enroll(ctx context.Context) error
	Unenroll(ctx context.Context) error
	Status(ctx context.Context) error
	Profile(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the Recreo CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help             show available commands
//	  - register         create an account
//	  - login            log in with identification and password
//	  - biologin         log in with the saved credential after a biometric check
//	  - enroll           set up the terminal passcode used as biometric
//	  - unenroll         remove the terminal passcode
//	  - status           show session state
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - help, status, enroll, unenroll, exit | quit
//	  - profile          reload and show the account profile
//	  - logout           log out and forget the saved credential
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "recreo %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Comandos disponibles: profile, status, enroll, unenroll, logout, exit")
			} else {
				fmt.Fprintln(w, "Comandos disponibles: login, biologin, register, enroll, unenroll, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "biologin":
			_ = a.BioLogin(ctx)

		case "enroll":
			_ = a.Enroll(ctx)

		case "unenroll":
			_ = a.Unenroll(ctx)

		case "status":
			_ = a.Status(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "¡Hasta pronto!")
			return

		default:
			fmt.Fprintln(w, "Comando desconocido:", cmd)
		}
	}
}
