package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Keys that never become field filters.
var reservedKeys = map[string]bool{
	"page":           true,
	"sort":           true,
	"limit":          true,
	"fields":         true,
	"archived":       true,
	"reminderBefore": true,
	"reminderAfter":  true,
	"dueBefore":      true,
	"dueAfter":       true,
	"hasReminder":    true,
	"isOverdue":      true,
}

type rangeHelper struct {
	key   string
	field string
	op    Operator
}

var rangeHelpers = []rangeHelper{
	{key: "reminderBefore", field: "reminderAt", op: OpLte},
	{key: "reminderAfter", field: "reminderAt", op: OpGte},
	{key: "dueBefore", field: "dueDate", op: OpLte},
	{key: "dueAfter", field: "dueDate", op: OpGte},
}

// DefaultNoteSort shows pinned notes first, newest first within each group
var DefaultNoteSort = []SortKey{
	{Field: "isPinned", Desc: true},
	{Field: "createdAt", Desc: true},
}

// Translator maps raw list parameters onto a NoteQuery
type Translator struct {
	schema      *Schema
	defaultSort []SortKey
	maxLimit    int
	now         func() time.Time
}

// NewTranslator creates a translator for the given schema
func NewTranslator(schema *Schema, defaultSort []SortKey) *Translator {
	return &Translator{
		schema:      schema,
		defaultSort: defaultSort,
		maxLimit:    MaxLimit,
		now:         time.Now,
	}
}

// NewNoteTranslator creates a translator for note list requests
func NewNoteTranslator() *Translator {
	return NewTranslator(NoteSchema, DefaultNoteSort)
}

// WithClock replaces the time source used for "now"-relative filters
func (t *Translator) WithClock(now func() time.Time) *Translator {
	t.now = now
	return t
}

// Translate builds a query from raw request parameters. Steps run in a fixed
// order: field filters, archive visibility, reminder/due-date helpers, sort,
// projection, pagination. Later steps may replace constraints set earlier.
func (t *Translator) Translate(raw url.Values) (*NoteQuery, error) {
	now := t.now()
	q := &NoteQuery{}

	if err := t.applyFieldFilters(&q.Filter, raw, now); err != nil {
		return nil, err
	}
	applyArchived(&q.Filter, raw.Get("archived"))
	if err := applyDateHelpers(&q.Filter, raw, now); err != nil {
		return nil, err
	}

	sortKeys, err := t.parseSort(raw.Get("sort"))
	if err != nil {
		return nil, err
	}
	q.Sort = sortKeys

	fields, err := t.parseFields(raw.Get("fields"))
	if err != nil {
		return nil, err
	}
	q.Fields = fields

	q.Page = positiveInt(raw.Get("page"), DefaultPage)
	q.Limit = positiveInt(raw.Get("limit"), DefaultLimit)
	if t.maxLimit > 0 && q.Limit > t.maxLimit {
		q.Limit = t.maxLimit
	}
	return q, nil
}

func (t *Translator) applyFieldFilters(f *Filter, raw url.Values, now time.Time) error {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		if !reservedKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		name, op, err := splitKey(key)
		if err != nil {
			return err
		}
		field, ok := t.schema.Lookup(name)
		if !ok {
			return entities.NewValidationError("filter", fmt.Sprintf("unknown field %q", name))
		}

		values := make([]any, 0, len(raw[key]))
		for _, rawValue := range raw[key] {
			v, err := field.convert(rawValue, now)
			if err != nil {
				return entities.NewValidationError(name, err.Error())
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}

		// Repeated equality values mean "any of"; repeated bounds all apply.
		if op == OpEq && len(values) > 1 {
			conds := make([]Condition, len(values))
			for i, v := range values {
				conds[i] = Condition{Field: name, Op: OpEq, Value: v}
			}
			f.WhereAny(conds...)
			continue
		}
		for _, v := range values {
			f.Where(name, op, v)
		}
	}
	return nil
}

// splitKey parses "field" or "field[op]"
func splitKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", 0, entities.NewValidationError("filter", fmt.Sprintf("malformed filter key %q", key))
	}
	name := key[:open]
	keyword := key[open+1 : len(key)-1]
	op, ok := ParseComparison(keyword)
	if !ok {
		return "", 0, entities.NewValidationError("filter", fmt.Sprintf("unsupported operator %q on %q", keyword, name))
	}
	return name, op, nil
}

func applyArchived(f *Filter, archived string) {
	switch archived {
	case "all":
		return
	case "true":
		f.Reset("isArchived").Where("isArchived", OpEq, true)
	default:
		f.Reset("isArchived").Where("isArchived", OpEq, false)
	}
}

func applyDateHelpers(f *Filter, raw url.Values, now time.Time) error {
	for _, h := range rangeHelpers {
		v := raw.Get(h.key)
		if v == "" {
			continue
		}
		at, err := ParseTime(v, now)
		if err != nil {
			return entities.NewValidationError(h.key, err.Error())
		}
		f.Where(h.field, h.op, at)
	}

	switch raw.Get("hasReminder") {
	case "true":
		f.Where("reminderAt", OpNotNull, nil)
	case "false":
		f.Reset("reminderAt").Where("reminderAt", OpIsNull, nil)
	}

	switch raw.Get("isOverdue") {
	case "true":
		f.Reset("dueDate").
			Where("dueDate", OpNotNull, nil).
			Where("dueDate", OpLt, now)
	case "false":
		f.Reset("dueDate").WhereAny(
			Condition{Field: "dueDate", Op: OpIsNull},
			Condition{Field: "dueDate", Op: OpGte, Value: now},
		)
	}
	return nil
}

func (t *Translator) parseSort(raw string) ([]SortKey, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]SortKey(nil), t.defaultSort...), nil
	}
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(strings.TrimPrefix(part, "-"), "+")
		field, ok := t.schema.Lookup(name)
		if !ok || !field.Sortable {
			return nil, entities.NewValidationError("sort", fmt.Sprintf("cannot sort by %q", name))
		}
		keys = append(keys, SortKey{Field: name, Desc: desc})
	}
	if len(keys) == 0 {
		return append([]SortKey(nil), t.defaultSort...), nil
	}
	return keys, nil
}

func (t *Translator) parseFields(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return t.schema.DefaultFields(), nil
	}
	fields := []string{"id"}
	seen := map[string]bool{"id": true}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		if strings.HasPrefix(name, "-") {
			return nil, entities.NewValidationError("fields", "only inclusion lists are supported")
		}
		if _, ok := t.schema.Lookup(name); !ok {
			return nil, entities.NewValidationError("fields", fmt.Sprintf("unknown field %q", name))
		}
		seen[name] = true
		fields = append(fields, name)
	}
	return fields, nil
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
