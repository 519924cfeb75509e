// Package cli provides the interactive Recreo Lovers command-line client.
//
// It wires configuration, the secure store, the session store, the API
// client, the biometric gate and the auth service, then runs a REPL. On
// start it restores a session saved by an earlier run and, when a
// credential is saved and biometrics are available, offers a biometric
// login.
//
// Key features:
//   - login / biologin / logout
//   - enroll: set the terminal passcode that stands in for device biometrics
//   - register: create an account
//   - status / profile
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, Root and runREPL for details.
package cli
