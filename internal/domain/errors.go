package domain

import "errors"

// Common validation errors.
var (
	// User errors
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrNameTooShort     = errors.New("name must be at least 2 characters long")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters long")

	// Todo errors
	ErrEmptyTodoID     = errors.New("todo ID cannot be empty")
	ErrEmptyOwnerID    = errors.New("todo owner ID cannot be empty")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrInvalidPriority = errors.New("priority must be one of: low, medium, high")
	ErrInvalidCategory = errors.New("category must be one of: personal, work, study, other")

	// Notification errors
	ErrEmptyNotificationID      = errors.New("notification ID cannot be empty")
	ErrEmptySenderName          = errors.New("notification sender name cannot be empty")
	ErrEmptySenderEmail         = errors.New("notification sender email cannot be empty")
	ErrEmptyNotificationTitle   = errors.New("notification title cannot be empty")
	ErrInvalidNotificationType  = errors.New("notification type must be one of: shared, reminder, other")
	ErrUnaddressedNotification  = errors.New("notification must be addressed to an account ID or an email")
	ErrInvalidRecipientMode     = errors.New("invalid recipient addressing mode")
	ErrEmptyRecipientIdentifier = errors.New("recipient identifier cannot be empty")
)
