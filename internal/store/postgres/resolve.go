package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// idBy resolves a surrogate id by a unique natural key. Absence is an
// expected outcome and reported via ok, never as an error. The key value is
// always bound as a parameter, never rendered into the statement text.
func (c *Client) idBy(ctx context.Context, q querier, table, column, value string) (int64, bool, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s=$1", table, column)
	c.log.Debug("executing sql", "sql", query)

	var id int64
	err := q.QueryRow(ctx, query, value).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving %s by %s %q: %w", table, column, value, err)
	}
	return id, true, nil
}

func (c *Client) idByName(ctx context.Context, q querier, table, name string) (int64, bool, error) {
	return c.idBy(ctx, q, table, "name", name)
}

// sanitize escapes quote characters for the rare statements that must render
// a string into SQL text instead of binding it, such as the batched
// multi-row profile link insert.
func sanitize(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
