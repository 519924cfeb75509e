// Package client talks to the Recreo loyalty backend.
//
// Client is the transport-agnostic contract used by the services layer;
// HTTPClient implements it over the JSON API (loginCuenta, scrCuentas,
// cuentascra/{id}).
//
// # Error Handling
//
// Non-2xx answers come back as *APIError carrying the status and the
// server's message. Transport failures wrap ErrUnavailable. A 401/403
// APIError also matches ErrUnauthorized with errors.Is. Message turns any
// of these into the text shown to the user.
package client
