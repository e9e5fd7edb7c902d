package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType distinguishes what caused a notification.
type NotificationType string

// Valid notification types.
const (
	NotificationShared   NotificationType = "shared"
	NotificationReminder NotificationType = "reminder"
	NotificationOther    NotificationType = "other"
)

// RecipientMode tags how a notification recipient is addressed.
type RecipientMode string

// Recipient addressing modes. A recipient is addressed either by a resolved
// account ID or, when no account reference is resolvable at creation time,
// by email.
const (
	RecipientByAccountID RecipientMode = "account_id"
	RecipientByEmail     RecipientMode = "email"
)

// Recipient is the tagged union of notification addressing modes.
type Recipient struct {
	Mode      RecipientMode
	AccountID uuid.UUID // set when Mode == RecipientByAccountID
	Email     string    // set when Mode == RecipientByEmail
}

// RecipientForAccount addresses a recipient by a resolved account ID.
func RecipientForAccount(accountID uuid.UUID) Recipient {
	return Recipient{Mode: RecipientByAccountID, AccountID: accountID}
}

// RecipientForEmail addresses a recipient by email when the account reference
// is not yet resolvable.
func RecipientForEmail(email string) Recipient {
	return Recipient{Mode: RecipientByEmail, Email: NormalizeEmail(email)}
}

// Validate checks the recipient's addressing.
func (r Recipient) Validate() error {
	switch r.Mode {
	case RecipientByAccountID:
		if r.AccountID == uuid.Nil {
			return ErrEmptyRecipientIdentifier
		}
	case RecipientByEmail:
		if r.Email == "" {
			return ErrEmptyRecipientIdentifier
		}
	default:
		return ErrInvalidRecipientMode
	}
	return nil
}

// bindOwned writes the recipient onto a notification's owned-recipient
// fields: a resolved account becomes the owning UserID, an email stays an
// email-addressed entry.
func (r Recipient) bindOwned(n *Notification) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnaddressedNotification, err)
	}
	switch r.Mode {
	case RecipientByAccountID:
		id := r.AccountID
		n.UserID = &id
	case RecipientByEmail:
		n.ReceiverEmail = r.Email
	}
	return nil
}

// bindAddressed writes the recipient onto a notification's receiver fields.
func (r Recipient) bindAddressed(n *Notification) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnaddressedNotification, err)
	}
	switch r.Mode {
	case RecipientByAccountID:
		id := r.AccountID
		n.ReceiverID = &id
	case RecipientByEmail:
		n.ReceiverEmail = r.Email
	}
	return nil
}

// Notification is a durable ledger record of a sharing or reminder event.
// It exists independently of whether the real-time push or email delivery
// for the event ever succeeded.
//
// The sender fields (SenderName, SenderEmail) are a snapshot taken at
// creation time. They are authoritative for display and must never be
// refreshed from the live user record.
type Notification struct {
	ID uuid.UUID `json:"id"`

	// Owned recipient: set when the recipient account was resolved at
	// creation time.
	UserID *uuid.UUID `json:"user_id,omitempty"`

	// Addressed recipient: a receiver account reference and/or a receiver
	// email for notifications created before the account is resolvable.
	ReceiverID    *uuid.UUID `json:"receiver_id,omitempty"`
	ReceiverEmail string     `json:"receiver_email,omitempty"`

	// Sender identity: live reference plus creation-time snapshot.
	SenderID    uuid.UUID `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`

	Title   string    `json:"title"`
	Message string    `json:"message,omitempty"`
	TodoID  uuid.UUID `json:"todo_id"`

	Read   bool             `json:"read"`
	ReadAt *time.Time       `json:"read_at,omitempty"`
	Type   NotificationType `json:"type"`

	CreatedAt time.Time `json:"created_at"`
}

// NewSharedNotification creates the ledger entry for a todo shared with the
// given recipient. The title is templated with the todo title and the sender
// identity is snapshotted from the sharing user.
func NewSharedNotification(sender *User, recipient Recipient, todo *Todo) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		SenderID:    sender.ID,
		SenderName:  senderDisplayName(sender),
		SenderEmail: sender.Email,
		Title:       fmt.Sprintf("%s shared the task %q with you", senderDisplayName(sender), todo.Title),
		TodoID:      todo.ID,
		Type:        NotificationShared,
		CreatedAt:   time.Now().UTC(),
	}

	if err := recipient.bindOwned(n); err != nil {
		return nil, err
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// NewAddressedNotification creates a share ledger entry for a recipient the
// sender identifies by address rather than a resolved account reference.
func NewAddressedNotification(sender *User, recipient Recipient, todoID uuid.UUID, message string) (*Notification, error) {
	if message == "" {
		message = fmt.Sprintf("%s shared a task with you", senderDisplayName(sender))
	}

	n := &Notification{
		ID:          uuid.New(),
		SenderID:    sender.ID,
		SenderName:  senderDisplayName(sender),
		SenderEmail: sender.Email,
		Title:       "Task shared",
		Message:     message,
		TodoID:      todoID,
		Type:        NotificationShared,
		CreatedAt:   time.Now().UTC(),
	}

	if err := recipient.bindAddressed(n); err != nil {
		return nil, err
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// senderDisplayName prefers the user's name and falls back to the email, so
// a notification never carries an empty sender display name.
func senderDisplayName(sender *User) string {
	if sender.Name != "" {
		return sender.Name
	}
	return sender.Email
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.SenderName == "" {
		return ErrEmptySenderName
	}

	if n.SenderEmail == "" {
		return ErrEmptySenderEmail
	}

	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}

	switch n.Type {
	case NotificationShared, NotificationReminder, NotificationOther:
	default:
		return ErrInvalidNotificationType
	}

	if err := n.Recipient().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnaddressedNotification, err)
	}

	return nil
}

// Recipient returns the notification's primary addressing as the tagged
// union, preferring the owned reference, then the receiver reference, then
// the receiver email. A notification with no addressing at all yields a
// recipient that fails Validate.
func (n *Notification) Recipient() Recipient {
	switch {
	case n.UserID != nil:
		return RecipientForAccount(*n.UserID)
	case n.ReceiverID != nil:
		return RecipientForAccount(*n.ReceiverID)
	case n.ReceiverEmail != "":
		return RecipientForEmail(n.ReceiverEmail)
	default:
		return Recipient{}
	}
}

// IsAddressedTo reports whether the notification belongs to the given caller.
// Ownership holds through ANY of three equally valid predicates: the owned
// recipient reference, the receiver account reference, or a receiver email
// matching the caller's email.
func (n *Notification) IsAddressedTo(userID uuid.UUID, email string) bool {
	if n.UserID != nil && *n.UserID == userID {
		return true
	}
	if n.ReceiverID != nil && *n.ReceiverID == userID {
		return true
	}
	if n.ReceiverEmail != "" && n.ReceiverEmail == NormalizeEmail(email) {
		return true
	}
	return false
}

// MarkRead flips the read flag and stamps the read time. Marking an already
// read notification refreshes the timestamp, matching an unconditional
// find-and-update.
func (n *Notification) MarkRead(at time.Time) {
	n.Read = true
	t := at.UTC()
	n.ReadAt = &t
}
