// Package service implements the application's use cases on top of the store
// interfaces: todo mutations, the sharing workflow, and the notification
// ledger. Services own the side-effect policy (what gets pushed over the
// real-time channel, when email is attempted) so handlers stay thin.
package service

import "errors"

// Service-level errors.
var (
	// ErrInvalidCredentials is returned when login fails. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword is returned when a password change presents an
	// incorrect current password.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrEmptyRecipientEmail is returned when a share request omits the
	// recipient email.
	ErrEmptyRecipientEmail = errors.New("recipient email cannot be empty")
)
