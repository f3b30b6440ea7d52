// Package errs defines the sentinel errors of the card service. Callers wrap
// them with fmt.Errorf("...: %w", ...) to attach the offending identifier and
// the HTTP layer maps them to status codes with errors.Is.
package errs

import "errors"

var (
	ErrCardNotFound       = errors.New("card not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCardNotUsable      = errors.New("card is not usable")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
