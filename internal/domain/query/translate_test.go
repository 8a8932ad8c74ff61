package query

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
)

var fixedNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func translate(t *testing.T, raw string) *NoteQuery {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := NewNoteTranslator().WithClock(func() time.Time { return fixedNow }).Translate(values)
	require.NoError(t, err)
	return q
}

func translateErr(t *testing.T, raw string) error {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	_, err = NewNoteTranslator().WithClock(func() time.Time { return fixedNow }).Translate(values)
	require.Error(t, err)
	return err
}

func TestTranslateDefaults(t *testing.T) {
	q := translate(t, "")

	assert.Equal(t, []Condition{{Field: "isArchived", Op: OpEq, Value: false}}, q.Filter.Conditions("isArchived"))
	assert.Len(t, q.Filter.Clauses, 1)
	assert.Equal(t, DefaultNoteSort, q.Sort)
	assert.NotContains(t, q.Fields, "version")
	assert.Contains(t, q.Fields, "title")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 0, q.Skip())
}

func TestTranslateArchived(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Condition
	}{
		{name: "true", raw: "archived=true", want: []Condition{{Field: "isArchived", Op: OpEq, Value: true}}},
		{name: "all", raw: "archived=all", want: nil},
		{name: "other value hides archived", raw: "archived=yes", want: []Condition{{Field: "isArchived", Op: OpEq, Value: false}}},
		{name: "default overrides client field", raw: "isArchived=true", want: []Condition{{Field: "isArchived", Op: OpEq, Value: false}}},
		{name: "all keeps client field", raw: "archived=all&isArchived=true", want: []Condition{{Field: "isArchived", Op: OpEq, Value: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := translate(t, tt.raw)
			assert.Equal(t, tt.want, q.Filter.Conditions("isArchived"))
		})
	}
}

func TestTranslateComparisonKeywords(t *testing.T) {
	q := translate(t, "dueDate[gte]=2026-01-01&dueDate[lt]=2026-02-01T00:00:00Z&category=Work")

	due := q.Filter.Conditions("dueDate")
	require.Len(t, due, 2)
	assert.Equal(t, OpGte, due[0].Op)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), due[0].Value)
	assert.Equal(t, OpLt, due[1].Op)

	assert.Equal(t, []Condition{{Field: "category", Op: OpEq, Value: "Work"}}, q.Filter.Conditions("category"))
}

func TestTranslateKeywordInValueIsNotAnOperator(t *testing.T) {
	q := translate(t, "title=gte")
	assert.Equal(t, []Condition{{Field: "title", Op: OpEq, Value: "gte"}}, q.Filter.Conditions("title"))
}

func TestTranslateRepeatedEqualityIsAnyOf(t *testing.T) {
	q := translate(t, "category=Work&category=Ideas")

	var clause *Clause
	for i := range q.Filter.Clauses {
		if q.Filter.Clauses[i].references("category") {
			clause = &q.Filter.Clauses[i]
		}
	}
	require.NotNil(t, clause)
	assert.Len(t, clause.Any, 2)
}

func TestTranslateReminderRangeMerges(t *testing.T) {
	q := translate(t, "reminderAfter=2026-05-01&reminderBefore=2026-05-31")

	conds := q.Filter.Conditions("reminderAt")
	require.Len(t, conds, 2)
	ops := []Operator{conds[0].Op, conds[1].Op}
	assert.ElementsMatch(t, []Operator{OpLte, OpGte}, ops)
}

func TestTranslateReminderHelpersMergeWithFieldFilter(t *testing.T) {
	q := translate(t, "reminderAt[gt]=2026-04-01&reminderBefore=2026-05-31&hasReminder=true")

	conds := q.Filter.Conditions("reminderAt")
	require.Len(t, conds, 3)
	assert.Equal(t, OpNotNull, conds[2].Op)
}

func TestTranslateHasReminderFalseReplacesRange(t *testing.T) {
	q := translate(t, "reminderBefore=2026-05-31&hasReminder=false")
	assert.Equal(t, []Condition{{Field: "reminderAt", Op: OpIsNull}}, q.Filter.Conditions("reminderAt"))
}

func TestTranslateOverdue(t *testing.T) {
	q := translate(t, "isOverdue=true")
	assert.Equal(t, []Condition{
		{Field: "dueDate", Op: OpNotNull},
		{Field: "dueDate", Op: OpLt, Value: fixedNow},
	}, q.Filter.Conditions("dueDate"))

	q = translate(t, "dueAfter=2020-01-01&isOverdue=false")
	var found bool
	for _, c := range q.Filter.Clauses {
		if c.references("dueDate") {
			found = true
			assert.Equal(t, []Condition{
				{Field: "dueDate", Op: OpIsNull},
				{Field: "dueDate", Op: OpGte, Value: fixedNow},
			}, c.Any)
		}
	}
	assert.True(t, found)
	assert.Len(t, q.Filter.Conditions("dueDate"), 2)
}

func TestTranslateRelativeKeywords(t *testing.T) {
	q := translate(t, "reminderAfter=now&dueAfter=today")
	assert.Equal(t, fixedNow, q.Filter.Conditions("reminderAt")[0].Value)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), q.Filter.Conditions("dueDate")[0].Value)
}

func TestTranslateDatesIgnoreSurroundingSpace(t *testing.T) {
	q := translate(t, "reminderBefore=%202026-05-31&dueAfter=2026-05-01T08:00%20")
	assert.Equal(t, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), q.Filter.Conditions("reminderAt")[0].Value)
	assert.Equal(t, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), q.Filter.Conditions("dueDate")[0].Value)
}

func TestParseTimeTrimsInput(t *testing.T) {
	got, err := ParseTime("  2026-01-01\t", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTime(" Now ", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, got)

	_, err = ParseTime("   ", fixedNow)
	assert.Error(t, err)
}

func TestTranslateSortAndFields(t *testing.T) {
	q := translate(t, "sort=-dueDate,title&fields=title,reminderAt,title")

	assert.Equal(t, []SortKey{{Field: "dueDate", Desc: true}, {Field: "title"}}, q.Sort)
	assert.Equal(t, []string{"id", "title", "reminderAt"}, q.Fields)
}

func TestTranslatePagination(t *testing.T) {
	q := translate(t, "page=3&limit=25")
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, 50, q.Skip())
	assert.Equal(t, 4, q.TotalPages(76))

	q = translate(t, "page=0&limit=abc")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)

	q = translate(t, "limit=5000")
	assert.Equal(t, MaxLimit, q.Limit)
}

func TestTranslateRejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		"price[gte]=10",
		"title[regex]=x",
		"dueDate[gte=2026-01-01",
		"isPinned=maybe",
		"reminderBefore=tomorrowish",
		"sort=content",
		"sort=secret",
		"fields=-content",
		"fields=password",
		"id=123",
	} {
		t.Run(raw, func(t *testing.T) {
			err := translateErr(t, raw)
			assert.True(t, errors.Is(err, entities.ErrValidation), err)
		})
	}
}

func TestFilterReset(t *testing.T) {
	var f Filter
	f.Where("a", OpEq, 1).Where("b", OpEq, 2).WhereAny(
		Condition{Field: "a", Op: OpIsNull},
		Condition{Field: "c", Op: OpIsNull},
	)
	clone := f.Clone()

	f.Reset("a")
	assert.Len(t, f.Clauses, 1)
	assert.False(t, f.Constrains("a"))
	assert.True(t, f.Constrains("b"))
	assert.Len(t, clone.Clauses, 3, "clone is independent")
}
