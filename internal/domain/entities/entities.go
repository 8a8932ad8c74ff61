package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidID         = errors.New("invalid id format")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// ValidationError describes a rejected input field. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Category is the fixed set of note categories
type Category string

const (
	CategoryGeneral  Category = "General"
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryIdeas    Category = "Ideas"
	CategoryUrgent   Category = "Urgent"
)

// Categories lists every accepted category in display order
var Categories = []Category{
	CategoryGeneral,
	CategoryWork,
	CategoryPersonal,
	CategoryIdeas,
	CategoryUrgent,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	NoteTitleMaxLength = 100
	NoteExcerptLength  = 50
)

// Note represents a note in the system
type Note struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Content    string     `json:"content" db:"content"`
	Category   Category   `json:"category" db:"category"`
	IsArchived bool       `json:"isArchived" db:"is_archived"`
	IsPinned   bool       `json:"isPinned" db:"is_pinned"`
	ReminderAt *time.Time `json:"reminderAt" db:"reminder_at"`
	DueDate    *time.Time `json:"dueDate" db:"due_date"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
	Version    int        `json:"version" db:"version"`
}

// HasFutureReminder reports whether the note carries a reminder strictly after now
func (n *Note) HasFutureReminder(now time.Time) bool {
	return n.ReminderAt != nil && n.ReminderAt.After(now)
}

// IsOverdue reports whether the due date is set and strictly before now
func (n *Note) IsOverdue(now time.Time) bool {
	return n.DueDate != nil && n.DueDate.Before(now)
}

// Excerpt returns the first NoteExcerptLength runes of the content
func (n *Note) Excerpt() string {
	runes := []rune(n.Content)
	if len(runes) <= NoteExcerptLength {
		return n.Content
	}
	return string(runes[:NoteExcerptLength]) + "..."
}

// Field returns the value of a note attribute by its API name. Unset
// timestamps come back as an untyped nil so callers can test for absence.
func (n *Note) Field(name string) (any, bool) {
	switch name {
	case "id":
		return n.ID, true
	case "title":
		return n.Title, true
	case "content":
		return n.Content, true
	case "category":
		return string(n.Category), true
	case "isArchived":
		return n.IsArchived, true
	case "isPinned":
		return n.IsPinned, true
	case "reminderAt":
		return optionalTime(n.ReminderAt), true
	case "dueDate":
		return optionalTime(n.DueDate), true
	case "createdAt":
		return n.CreatedAt, true
	case "updatedAt":
		return n.UpdatedAt, true
	case "version":
		return n.Version, true
	}
	return nil, false
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// ParseID parses an opaque note or job identifier
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
