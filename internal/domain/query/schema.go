package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind decides how raw request values are converted for a field
type Kind int

const (
	KindString Kind = iota
	KindUUID
	KindBool
	KindInt
	KindTime
)

// Field describes a queryable attribute of a record
type Field struct {
	Name     string // API name
	Column   string // storage column
	Kind     Kind
	Sortable bool
	Internal bool // hidden from default projections
}

// Schema is the set of fields a translator accepts
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema builds a schema; field order is kept for default projections
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s
}

// Lookup finds a field by API name
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// DefaultFields lists every non-internal field
func (s *Schema) DefaultFields() []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if !s.fields[name].Internal {
			out = append(out, name)
		}
	}
	return out
}

// Column returns the storage column for a field, or an error for unknown names
func (s *Schema) Column(name string) (string, error) {
	f, ok := s.fields[name]
	if !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return f.Column, nil
}

// NoteSchema describes the note record
var NoteSchema = NewSchema(
	Field{Name: "id", Column: "id", Kind: KindUUID},
	Field{Name: "title", Column: "title", Kind: KindString, Sortable: true},
	Field{Name: "content", Column: "content", Kind: KindString},
	Field{Name: "category", Column: "category", Kind: KindString, Sortable: true},
	Field{Name: "isArchived", Column: "is_archived", Kind: KindBool, Sortable: true},
	Field{Name: "isPinned", Column: "is_pinned", Kind: KindBool, Sortable: true},
	Field{Name: "reminderAt", Column: "reminder_at", Kind: KindTime, Sortable: true},
	Field{Name: "dueDate", Column: "due_date", Kind: KindTime, Sortable: true},
	Field{Name: "createdAt", Column: "created_at", Kind: KindTime, Sortable: true},
	Field{Name: "updatedAt", Column: "updated_at", Kind: KindTime, Sortable: true},
	Field{Name: "version", Column: "version", Kind: KindInt, Internal: true},
)

// convert parses a raw request value according to the field kind
func (f Field) convert(raw string, now time.Time) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid id", raw)
		}
		return id, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case KindTime:
		t, err := ParseTime(raw, now)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return raw, nil
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, plain dates, and the keywords
// "now" and "today" (start of the current day in now's location).
func ParseTime(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "now":
		return now, nil
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid date", raw)
}
