package postgres

import (
	"fmt"
	"strings"
)

// stmt accumulates (column, value) pairs and renders positional placeholders,
// so sparse inserts and updates only ever touch the columns a caller actually
// supplied.
type stmt struct {
	table   string
	columns []string
	args    []any
}

func newStmt(table string) *stmt {
	return &stmt{table: table}
}

func (s *stmt) set(column string, value any) *stmt {
	s.columns = append(s.columns, column)
	s.args = append(s.args, value)
	return s
}

// setString includes the column only when a value was supplied.
func (s *stmt) setString(column string, value *string) *stmt {
	if value != nil {
		s.set(column, *value)
	}
	return s
}

// setID includes the column only when a reference was resolved.
func (s *stmt) setID(column string, id *int64) *stmt {
	if id != nil {
		s.set(column, *id)
	}
	return s
}

func (s *stmt) empty() bool {
	return len(s.columns) == 0
}

func (s *stmt) insert() (string, []any) {
	placeholders := make([]string, len(s.columns))
	for i := range s.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(s.columns, ", "), strings.Join(placeholders, ","))
	return query, s.args
}

// update renders an UPDATE anchored on keyColumn, with the key value bound as
// the final placeholder.
func (s *stmt) update(keyColumn string, keyValue any) (string, []any) {
	sets := make([]string, len(s.columns))
	for i, column := range s.columns {
		sets[i] = fmt.Sprintf("%s=$%d", column, i+1)
	}
	args := append(append([]any{}, s.args...), keyValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=$%d",
		s.table, strings.Join(sets, ", "), keyColumn, len(args))
	return query, args
}
