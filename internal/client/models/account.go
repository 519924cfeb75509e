package models

import "time"

// Account is the registration payload accepted by the account creation
// endpoint. Field names follow the API.
type Account struct {
	FirstName      string    `json:"NOMBRE_CUENTAS"`
	LastName       string    `json:"APELLIDO_CUENTAS"`
	Identifier     string    `json:"IDENTIFICACION_CUENTAS"`
	IdentifierType string    `json:"TIPOIDENTIFICACION_CUENTAS"`
	Sex            string    `json:"SEXO_CUENTAS"`
	BirthDate      time.Time `json:"FECHANACIMIENTO_CUENTAS"`
	Phone          string    `json:"CELULAR_CUENTAS"`
	Email          string    `json:"EMAIL_CUENTAS"`
	Password       string    `json:"PASSWORD_CUENTAS"`
	Address        string    `json:"DIRECCION_CUENTAS"`
	Status         string    `json:"ESTADO_CUENTAS"`
}

// AccountActive is the status assigned to newly registered accounts.
const AccountActive = "A"
