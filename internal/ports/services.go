package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
)

// NoteService interface for note management operations
type NoteService interface {
	CreateNote(ctx context.Context, req CreateNoteRequest) (*entities.Note, error)
	GetNote(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	ListNotes(ctx context.Context, q *query.NoteQuery) (*NoteList, error)
	UpdateNote(ctx context.Context, id uuid.UUID, req UpdateNoteRequest) (*entities.Note, error)
	ArchiveNote(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	RestoreNote(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	PinNote(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	UnpinNote(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

// Request/Response Types

type CreateNoteRequest struct {
	Title      string            `json:"title" validate:"required,max=100"`
	Content    string            `json:"content" validate:"required"`
	Category   entities.Category `json:"category" validate:"omitempty,oneof=General Work Personal Ideas Urgent"`
	IsPinned   *bool             `json:"isPinned"`
	ReminderAt *time.Time        `json:"reminderAt"`
	DueDate    *time.Time        `json:"dueDate"`
}

// UpdateNoteRequest carries a partial update. Archive and pin state have
// dedicated endpoints and are rejected here.
type UpdateNoteRequest struct {
	Title      *string            `json:"title" validate:"omitempty,max=100"`
	Content    *string            `json:"content"`
	Category   *entities.Category `json:"category" validate:"omitempty,oneof=General Work Personal Ideas Urgent"`
	ReminderAt OptionalTime       `json:"reminderAt"`
	DueDate    OptionalTime       `json:"dueDate"`
	IsArchived json.RawMessage    `json:"isArchived" swaggerignore:"true"`
	IsPinned   json.RawMessage    `json:"isPinned" swaggerignore:"true"`
}

// Empty reports whether the update names no editable field
func (r UpdateNoteRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Category == nil && !r.ReminderAt.Set && !r.DueDate.Set
}

// OptionalTime distinguishes an absent timestamp from an explicit null
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

// UnmarshalJSON is only called when the key is present in the payload
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Time = &t
	return nil
}

// NewOptionalTime is a present value; nil means an explicit clear
func NewOptionalTime(t *time.Time) OptionalTime {
	return OptionalTime{Set: true, Time: t}
}

// NoteList is one page of notes plus the totals for pagination metadata
type NoteList struct {
	Notes      []*entities.Note
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Fields     []string
}
