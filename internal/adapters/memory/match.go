// Package memory provides in-process note and job stores. They back the
// "memory" storage driver and stand in for Postgres in tests.
package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
)

// matches evaluates a filter the way SQL would: a comparison against a
// missing value is never true.
func matches(n *entities.Note, f query.Filter) bool {
	for _, clause := range f.Clauses {
		if !matchesAny(n, clause.Any) {
			return false
		}
	}
	return true
}

func matchesAny(n *entities.Note, conds []query.Condition) bool {
	for _, c := range conds {
		if matchesCondition(n, c) {
			return true
		}
	}
	return false
}

func matchesCondition(n *entities.Note, c query.Condition) bool {
	v, ok := n.Field(c.Field)
	if !ok {
		return false
	}
	switch c.Op {
	case query.OpIsNull:
		return v == nil
	case query.OpNotNull:
		return v != nil
	}
	if v == nil || c.Value == nil {
		return false
	}

	cmp, ok := compareValues(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case query.OpEq:
		return cmp == 0
	case query.OpNe:
		return cmp != 0
	case query.OpGt:
		return cmp > 0
	case query.OpGte:
		return cmp >= 0
	case query.OpLt:
		return cmp < 0
	case query.OpLte:
		return cmp <= 0
	}
	return false
}

// compareValues orders two values of the same kind
func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case int:
		bv, ok := b.(int)
		if !ok {
			return 0, false
		}
		return av - bv, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.String(), bv.String()), true
	}
	return 0, false
}

// lessBySort orders notes by sort keys, missing values last, then by id
func lessBySort(a, b *entities.Note, keys []query.SortKey) bool {
	for _, key := range keys {
		av, _ := a.Field(key.Field)
		bv, _ := b.Field(key.Field)
		switch {
		case av == nil && bv == nil:
			continue
		case av == nil:
			return false
		case bv == nil:
			return true
		}
		cmp, ok := compareValues(av, bv)
		if !ok || cmp == 0 {
			continue
		}
		if key.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.ID.String() < b.ID.String()
}
