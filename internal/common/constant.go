// Package common contains small helpers and constants shared by the Recreo
// client packages.
package common

// RequestIDHeader carries a per-request correlation id on outbound API calls.
const RequestIDHeader = "X-Request-ID"
