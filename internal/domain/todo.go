package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency level of a todo.
type Priority string

// Valid priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Category classifies a todo.
type Category string

// Valid categories.
const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategoryOther    Category = "other"
)

// Attachment is a file attached to a todo. The URL references the storage
// location under the configured upload directory.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Todo represents a task owned by exactly one user. It may additionally be
// shared with other users; membership in SharedWith grants read access, never
// ownership. Archived is a soft-delete flag: archived todos persist and are
// excluded from default listings.
type Todo struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Notes       string       `json:"notes"`
	Completed   bool         `json:"completed"`
	Starred     bool         `json:"starred"`
	Archived    bool         `json:"archived"`
	Priority    Priority     `json:"priority"`
	Category    Category     `json:"category"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Tags        []string     `json:"tags"`
	Attachments []Attachment `json:"attachments"`
	SharedWith  []uuid.UUID  `json:"shared_with"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTodo creates a new Todo owned by the given user with defaults applied
// (medium priority, personal category, all flags false). Returns an error if
// validation fails.
func NewTodo(ownerID uuid.UUID, title string) (*Todo, error) {
	now := time.Now().UTC()
	todo := &Todo{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Priority:    PriorityMedium,
		Category:    CategoryPersonal,
		Tags:        []string{},
		Attachments: []Attachment{},
		SharedWith:  []uuid.UUID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return todo, nil
}

// Validate checks if the Todo has valid data.
// Returns an error if any field fails validation.
func (t *Todo) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTodoID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyOwnerID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}

	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return ErrInvalidPriority
	}

	switch t.Category {
	case CategoryPersonal, CategoryWork, CategoryStudy, CategoryOther:
	default:
		return ErrInvalidCategory
	}

	return nil
}

// IsSharedWith reports whether the todo is already shared with the given user.
func (t *Todo) IsSharedWith(userID uuid.UUID) bool {
	for _, id := range t.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// ShareWith adds the given user to the shared-with set. Sharing is
// idempotent: a user appears at most once, and re-sharing returns false so
// callers can skip the notification side effects.
func (t *Todo) ShareWith(userID uuid.UUID) bool {
	if t.IsSharedWith(userID) {
		return false
	}
	t.SharedWith = append(t.SharedWith, userID)
	return true
}

// AddAttachment appends a new attachment record with a fresh ID and an
// upload timestamp.
func (t *Todo) AddAttachment(filename, url string) Attachment {
	att := Attachment{
		ID:         uuid.New(),
		Filename:   filename,
		URL:        url,
		UploadedAt: time.Now().UTC(),
	}
	t.Attachments = append(t.Attachments, att)
	return att
}

// RemoveAttachment deletes the attachment with the given ID.
// Returns false if no attachment matched.
func (t *Todo) RemoveAttachment(attachmentID uuid.UUID) bool {
	for i, att := range t.Attachments {
		if att.ID == attachmentID {
			t.Attachments = append(t.Attachments[:i], t.Attachments[i+1:]...)
			return true
		}
	}
	return false
}
