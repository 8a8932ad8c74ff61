// Package query turns list requests into typed, storage-independent note
// queries. Storage adapters render a Filter into their own query language.
package query

import "fmt"

// Operator is a comparison applied to a single field
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpIsNull
	OpNotNull
)

var operatorNames = map[Operator]string{
	OpEq:      "eq",
	OpNe:      "ne",
	OpGt:      "gt",
	OpGte:     "gte",
	OpLt:      "lt",
	OpLte:     "lte",
	OpIsNull:  "isNull",
	OpNotNull: "notNull",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Unary reports whether the operator takes no value
func (o Operator) Unary() bool {
	return o == OpIsNull || o == OpNotNull
}

// comparisonKeywords are the bare operator names a client may use as keys,
// e.g. reminderAt[gte]=2026-01-01.
var comparisonKeywords = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// ParseComparison maps a bare comparison keyword to its operator
func ParseComparison(keyword string) (Operator, bool) {
	op, ok := comparisonKeywords[keyword]
	return op, ok
}

// Condition is a single field comparison
type Condition struct {
	Field string
	Op    Operator
	Value any
}

func (c Condition) String() string {
	if c.Op.Unary() {
		return fmt.Sprintf("%s %s", c.Field, c.Op)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Clause is satisfied when any of its conditions holds
type Clause struct {
	Any []Condition
}

func (c Clause) references(field string) bool {
	for _, cond := range c.Any {
		if cond.Field == field {
			return true
		}
	}
	return false
}

// Filter is a conjunction of clauses. The zero value matches everything.
type Filter struct {
	Clauses []Clause
}

// Where adds a condition, keeping whatever already constrains the field
func (f *Filter) Where(field string, op Operator, value any) *Filter {
	f.Clauses = append(f.Clauses, Clause{Any: []Condition{{Field: field, Op: op, Value: value}}})
	return f
}

// WhereAny adds a disjunction of conditions
func (f *Filter) WhereAny(conds ...Condition) *Filter {
	if len(conds) == 0 {
		return f
	}
	f.Clauses = append(f.Clauses, Clause{Any: append([]Condition(nil), conds...)})
	return f
}

// Reset drops every clause that references field
func (f *Filter) Reset(field string) *Filter {
	kept := f.Clauses[:0]
	for _, c := range f.Clauses {
		if !c.references(field) {
			kept = append(kept, c)
		}
	}
	f.Clauses = kept
	return f
}

// Conditions returns every condition on field, in insertion order
func (f Filter) Conditions(field string) []Condition {
	var out []Condition
	for _, c := range f.Clauses {
		for _, cond := range c.Any {
			if cond.Field == field {
				out = append(out, cond)
			}
		}
	}
	return out
}

// Constrains reports whether any clause references field
func (f Filter) Constrains(field string) bool {
	for _, c := range f.Clauses {
		if c.references(field) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter matches everything
func (f Filter) Empty() bool {
	return len(f.Clauses) == 0
}

// Clone returns a deep copy
func (f Filter) Clone() Filter {
	out := Filter{Clauses: make([]Clause, len(f.Clauses))}
	for i, c := range f.Clauses {
		out.Clauses[i] = Clause{Any: append([]Condition(nil), c.Any...)}
	}
	return out
}

// SortKey orders results by a single field
type SortKey struct {
	Field string
	Desc  bool
}

// NoteQuery is the translated form of a list request
type NoteQuery struct {
	Filter Filter
	Sort   []SortKey
	Fields []string
	Page   int
	Limit  int
}

// Skip is the number of matching records before the requested page
func (q *NoteQuery) Skip() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TotalPages is the page count for total matching records
func (q *NoteQuery) TotalPages(total int64) int {
	if q.Limit <= 0 {
		return 0
	}
	return int((total + int64(q.Limit) - 1) / int64(q.Limit))
}
