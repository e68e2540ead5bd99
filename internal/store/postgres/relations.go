package postgres

import (
	"context"
	"fmt"

	"ficdex/internal/core"
	"ficdex/internal/store"
)

// anonymousAuthorID is the pre-seeded placeholder author row every
// unattributed work is linked to.
const anonymousAuthorID = 1

// relation describes one of a work's multi-valued reference tables.
type relation struct {
	view      string // resolved view joining the link table back to names
	table     string
	refTable  string
	refColumn string
	// anonymousDefault applies to authorship only: an empty ref list links
	// the work to the Anonymous author instead of leaving it unattributed.
	anonymousDefault bool
}

var (
	authoredRelation = relation{
		view: "authored_resolved", table: "authored",
		refTable: "author", refColumn: "author_id",
		anonymousDefault: true,
	}
	taggedRelation = relation{
		view: "tagged_resolved", table: "tagged",
		refTable: "tag", refColumn: "tag_id",
	}
	crossedOverRelation = relation{
		view: "crossed_over_resolved", table: "crossed_over",
		refTable: "fandom", refColumn: "fandom_id",
	}
)

// reconcileRefs inserts the reference links still missing for workID. Every
// named ref must already be persisted by the caller; a name that fails to
// resolve here is fatal. Links are only ever added, never removed.
func (c *Client) reconcileRefs(ctx context.Context, q querier, rel relation, workID int64, names []string) error {
	selectSQL := fmt.Sprintf("SELECT name FROM %s WHERE work_id=$1", rel.view)
	c.log.Debug("executing sql", "sql", selectSQL)
	rows, err := q.Query(ctx, selectSQL, workID)
	if err != nil {
		return fmt.Errorf("reading %s refs: %w", rel.table, err)
	}
	defer rows.Close()

	present := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning %s ref: %w", rel.table, err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s refs: %w", rel.table, err)
	}
	rows.Close()

	insertSQL := fmt.Sprintf("INSERT INTO %s (work_id, %s) VALUES ($1,$2)", rel.table, rel.refColumn)

	if rel.anonymousDefault && len(names) == 0 {
		if _, ok := present[core.AnonymousAuthor]; ok {
			return nil
		}
		c.log.Debug("executing sql", "sql", insertSQL)
		if _, err := q.Exec(ctx, insertSQL, workID, int64(anonymousAuthorID)); err != nil {
			return fmt.Errorf("linking anonymous author: %w", err)
		}
		return nil
	}

	for _, name := range names {
		if _, ok := present[name]; ok {
			continue
		}
		refID, ok, err := c.idByName(ctx, q, rel.refTable, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown %s %q", store.ErrMissingRef, rel.refTable, name)
		}
		c.log.Debug("executing sql", "sql", insertSQL)
		if _, err := q.Exec(ctx, insertSQL, workID, refID); err != nil {
			return fmt.Errorf("linking %s %q: %w", rel.refTable, name, err)
		}
	}
	return nil
}
