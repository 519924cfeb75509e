// Package models defines the client-side data types of the Recreo session
// core: credentials, profiles, sessions and registration payloads.
package models

import (
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// Credential is the identifier/secret pair sent to the loyalty API.
// The JSON names match the API payload and the stored format.
type Credential struct {
	// Identifier is the national ID of the account holder (digits only).
	Identifier string `json:"IDENTIFICACION_CUENTAS" validate:"required"`
	// Secret is the account password.
	Secret string `json:"PASSWORD_CUENTAS" validate:"required"`
}

// Complete reports whether both fields are present.
func (c Credential) Complete() bool {
	return validate.Struct(c) == nil
}
