package repository

import (
	"fmt"
	"strings"

	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
)

// sqlArgs collects positional arguments while a statement is rendered
type sqlArgs struct {
	values []interface{}
}

func (a *sqlArgs) add(v interface{}) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

var sqlOperators = map[query.Operator]string{
	query.OpEq:  "=",
	query.OpNe:  "<>",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// renderWhere turns a typed filter into a WHERE clause. Column names only
// ever come from the schema; values are always bound as arguments.
func renderWhere(schema *query.Schema, f query.Filter, args *sqlArgs) (string, error) {
	if f.Empty() {
		return "", nil
	}

	parts := make([]string, 0, len(f.Clauses))
	for _, clause := range f.Clauses {
		alts := make([]string, 0, len(clause.Any))
		for _, cond := range clause.Any {
			expr, err := renderCondition(schema, cond, args)
			if err != nil {
				return "", err
			}
			alts = append(alts, expr)
		}
		switch len(alts) {
		case 0:
			continue
		case 1:
			parts = append(parts, alts[0])
		default:
			parts = append(parts, "("+strings.Join(alts, " OR ")+")")
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(parts, " AND "), nil
}

func renderCondition(schema *query.Schema, cond query.Condition, args *sqlArgs) (string, error) {
	col, err := schema.Column(cond.Field)
	if err != nil {
		return "", err
	}
	switch cond.Op {
	case query.OpIsNull:
		return col + " IS NULL", nil
	case query.OpNotNull:
		return col + " IS NOT NULL", nil
	}
	sym, ok := sqlOperators[cond.Op]
	if !ok {
		return "", fmt.Errorf("unsupported operator %s", cond.Op)
	}
	return fmt.Sprintf("%s %s %s", col, sym, args.add(cond.Value)), nil
}

// renderOrder keeps NULLs last in both directions and appends id so that
// pagination is stable across equal sort keys.
func renderOrder(schema *query.Schema, keys []query.SortKey) (string, error) {
	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		col, err := schema.Column(key.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s NULLS LAST", col, dir))
	}
	parts = append(parts, "id ASC")
	return "ORDER BY " + strings.Join(parts, ", "), nil
}
