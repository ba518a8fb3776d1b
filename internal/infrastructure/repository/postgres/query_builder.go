package postgres

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

const defaultQueryLimit = 20

// tableSpec whitelists one queryable table: its columns and how each filter
// key translates into SQL. Anything outside the whitelist is a malformed
// filter, not a server error.
type tableSpec struct {
	columns []string
	filters map[string]func(arg int) string
}

var tableSpecs = map[string]tableSpec{
	"fee_schedule": {
		columns: []string{"id", "code", "description", "specialty", "fee", "documentation"},
		filters: map[string]func(int) string{
			"code": func(n int) string {
				return fmt.Sprintf("code = $%d", n)
			},
			"description": func(n int) string {
				return fmt.Sprintf("description ILIKE '%%' || $%d || '%%'", n)
			},
			"specialty": func(n int) string {
				return fmt.Sprintf("specialty ILIKE '%%' || $%d || '%%'", n)
			},
			"text": func(n int) string {
				return fmt.Sprintf("(code ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", n, n)
			},
		},
	},
	"adp_funding_rules": {
		columns: []string{"id", "device_type", "category", "funding_percent", "client_share_percent", "notes"},
		filters: map[string]func(int) string{
			// Matches either direction: "power wheelchair batteries" should
			// still find the "power wheelchair" rule.
			"device_type": func(n int) string {
				return fmt.Sprintf("(device_type ILIKE '%%' || $%d || '%%' OR $%d ILIKE '%%' || device_type || '%%')", n, n)
			},
			"category": func(n int) string {
				return fmt.Sprintf("category ILIKE '%%' || $%d || '%%'", n)
			},
		},
	},
	"odb_formulary": {
		columns: []string{"id", "din", "name", "generic_name", "interchangeable_group", "price", "limited_use", "lu_criteria", "covered"},
		filters: map[string]func(int) string{
			"din": func(n int) string {
				return fmt.Sprintf("din = $%d", n)
			},
			// Name-or-group: the requested product plus every member of its
			// interchangeable group, in one query.
			"drug": func(n int) string {
				return fmt.Sprintf(`(name ILIKE '%%' || $%d || '%%'
	OR generic_name ILIKE '%%' || $%d || '%%'
	OR (interchangeable_group <> '' AND interchangeable_group IN (
		SELECT interchangeable_group FROM odb_formulary
		WHERE (name ILIKE '%%' || $%d || '%%' OR generic_name ILIKE '%%' || $%d || '%%')
			AND interchangeable_group <> '')))`, n, n, n, n)
			},
		},
	},
}

func buildQuery(q domain.StructuredQuery) (sqlText string, args []any, columns []string, err error) {
	spec, ok := tableSpecs[q.Table]
	if !ok {
		return "", nil, nil, fmt.Errorf("unknown table %q", q.Table)
	}

	var where []string
	for _, key := range sortedFilterKeys(q.Filters) {
		build, ok := spec.filters[key]
		if !ok {
			return "", nil, nil, fmt.Errorf("table %q: unsupported filter %q", q.Table, key)
		}
		args = append(args, fmt.Sprintf("%v", q.Filters[key]))
		where = append(where, build(len(args)))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(spec.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY id LIMIT ")
	b.WriteString(strconv.Itoa(limit))

	return b.String(), args, spec.columns, nil
}

func sortedFilterKeys(filters map[string]any) []string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHit(row rowScanner, table string, columns []string) (domain.StructuredHit, error) {
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.StructuredHit{}, err
	}

	fields := make(map[string]any, len(columns))
	rowID := ""
	for i, col := range columns {
		value := normalizeSQLValue(*(dest[i].(*any)))
		if col == "id" {
			rowID, _ = value.(string)
			continue
		}
		fields[col] = value
	}
	return domain.StructuredHit{Table: table, RowID: rowID, Fields: fields}, nil
}

// normalizeSQLValue flattens driver types into the plain string/float64/bool
// values domain.StructuredHit readers expect.
func normalizeSQLValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		return float64(t)
	case sql.NullString:
		return t.String
	default:
		return t
	}
}
