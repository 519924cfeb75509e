// Package session persists the local authentication session (token, user
// profile, saved credential) in a securestore.Store.
//
// # Slots
//
//	userToken          bearer token, always a string
//	userData           account profile (JSON object)
//	userCredentials    identifier + secret, only after biometric opt-in
//	biometricsEnabled  legacy opt-in flag, literal "true"
//
// # Failure policy
//
// Storage faults never escape Save, Load, Remove or ClearSession: they are
// logged, handed to the optional fault handler and turned into "absent" or
// a no-op. SaveSession is the exception and reports ErrSessionNotPersisted,
// because the caller must treat a half-written session as not saved.
//
// # Invariant
//
// Token and profile are written and removed together. State reports
// LoggedIn only when both are present.
package session
