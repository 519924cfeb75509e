package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Account field names returned by the loyalty API.
const (
	FieldAccountID = "ID_CUENTAS"
	FieldFirstName = "NOMBRE_CUENTAS"
	FieldLastName  = "APELLIDO_CUENTAS"
	FieldEmail     = "EMAIL_CUENTAS"
	FieldPhone     = "CELULAR_CUENTAS"
)

// Profile is the account record returned by the login and profile endpoints.
// The session core does not interpret it beyond a few convenience accessors.
type Profile map[string]any

// AccountID returns ID_CUENTAS as an integer. JSON numbers and numeric
// strings are both accepted.
func (p Profile) AccountID() (int64, bool) {
	switch v := p[FieldAccountID].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// DisplayName joins first and last name, skipping empty parts.
func (p Profile) DisplayName() string {
	var parts []string
	for _, f := range []string{FieldFirstName, FieldLastName} {
		if s, ok := p[f].(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, " ")
}

// String returns the profile field f when it holds a string.
func (p Profile) String(f string) string {
	s, _ := p[f].(string)
	return s
}
