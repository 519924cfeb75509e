package models

// Session is a resolved login: the bearer token and the account profile.
type Session struct {
	Token string
	User  Profile
}

// SessionState is the persisted lifecycle state of the local session.
type SessionState string

const (
	// StateLoggedOut means token and profile are not both present.
	StateLoggedOut SessionState = "logged_out"
	// StateLoggedIn means token and profile are both present.
	StateLoggedIn SessionState = "logged_in"
)
