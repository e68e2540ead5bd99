package postgres

import (
	"context"
	"fmt"
	"strings"

	"ficdex/internal/core"
	"ficdex/internal/store"
)

// UpsertAuthor resolves an author by name, creating the row when absent, and
// reconciles the profile link set. With replaceLinks the stored set is
// replaced wholesale (skipped entirely for an empty new set); otherwise new
// links are merged in.
func (c *Client) UpsertAuthor(ctx context.Context, a core.Author, replaceLinks bool) (int64, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	return c.upsertAuthor(ctx, conn, a, replaceLinks)
}

func (c *Client) upsertAuthor(ctx context.Context, q querier, a core.Author, replaceLinks bool) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	id, ok, err := c.idByName(ctx, q, "author", a.Name)
	if err != nil {
		return 0, err
	}
	if !ok {
		query := "INSERT INTO author (name) VALUES ($1)"
		c.log.Debug("executing sql", "sql", query)
		if _, err := q.Exec(ctx, query, a.Name); err != nil {
			return 0, fmt.Errorf("inserting author %q: %w", a.Name, err)
		}
		id, ok, err = c.idByName(ctx, q, "author", a.Name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: freshly inserted author %q has vanished", store.ErrConsistency, a.Name)
		}
	}

	if err := c.reconcileLinks(ctx, q, id, a.Links, replaceLinks); err != nil {
		return 0, fmt.Errorf("reconciling links of author %q: %w", a.Name, err)
	}
	return id, nil
}

// reconcileLinks applies an author's profile link set. Replace mode deletes
// the stored rows and bulk-inserts the new set inside one transaction; merge
// mode inserts only the set difference. Both modes are no-ops when there is
// nothing to insert.
func (c *Client) reconcileLinks(ctx context.Context, q querier, authorID int64, links []string, replace bool) error {
	if replace {
		if len(links) == 0 {
			return nil
		}
		tx, err := q.Begin(ctx)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback(ctx)
		if _, err := tx.Exec(ctx, "DELETE FROM profile WHERE author_id=$1", authorID); err != nil {
			return fmt.Errorf("clearing profile links: %w", err)
		}
		if err := c.insertLinks(ctx, tx, authorID, links); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("committing link replacement: %w", err)
		}
		return nil
	}

	if len(links) == 0 {
		return nil
	}
	existing := make(map[string]struct{})
	rows, err := q.Query(ctx, "SELECT link FROM profile WHERE author_id=$1", authorID)
	if err != nil {
		return fmt.Errorf("reading profile links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return fmt.Errorf("scanning profile link: %w", err)
		}
		existing[link] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating profile links: %w", err)
	}

	var remaining []string
	for _, link := range links {
		if _, ok := existing[link]; !ok {
			remaining = append(remaining, link)
		}
	}
	if len(remaining) == 0 {
		return nil
	}
	return c.insertLinks(ctx, q, authorID, remaining)
}

// insertLinks bulk-inserts profile links as one multi-row statement. The row
// values cannot be bound positionally because the row count varies, so the
// link strings are sanitized and rendered into the statement text.
func (c *Client) insertLinks(ctx context.Context, q querier, authorID int64, links []string) error {
	values := make([]string, len(links))
	for i, link := range links {
		values[i] = fmt.Sprintf("(%d,'%s')", authorID, sanitize(link))
	}
	query := "INSERT INTO profile (author_id, link) VALUES " + strings.Join(values, ",")
	c.log.Debug("executing sql", "sql", query)
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("inserting profile links: %w", err)
	}
	return nil
}

// MergeAuthorAlias retires the author row named alias in favor of canonical,
// mirroring MergeTagAlias: repoint, retire, then record the alias.
func (c *Client) MergeAuthorAlias(ctx context.Context, canonical, alias string) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	canonicalID, ok, err := c.idByName(ctx, tx, "author", canonical)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown author %q", store.ErrMissingRef, canonical)
	}
	aliasID, ok, err := c.idByName(ctx, tx, "author", alias)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown author %q", store.ErrMissingRef, alias)
	}

	dedupes := []string{
		"DELETE FROM authored a WHERE a.author_id=$2 AND EXISTS (SELECT 1 FROM authored b WHERE b.work_id=a.work_id AND b.author_id=$1)",
		"DELETE FROM profile a WHERE a.author_id=$2 AND EXISTS (SELECT 1 FROM profile b WHERE b.author_id=$1 AND b.link=a.link)",
	}
	for _, query := range dedupes {
		c.log.Debug("executing sql", "sql", query)
		if _, err := tx.Exec(ctx, query, canonicalID, aliasID); err != nil {
			return fmt.Errorf("deduplicating references to %q: %w", alias, err)
		}
	}

	refs := []struct{ table, column string }{
		{"authored", "author_id"},
		{"profile", "author_id"},
		{"author_alias", "author_id"},
	}
	for _, ref := range refs {
		query := fmt.Sprintf("UPDATE %s SET %s=$1 WHERE %s=$2", ref.table, ref.column, ref.column)
		c.log.Debug("executing sql", "sql", query)
		if _, err := tx.Exec(ctx, query, canonicalID, aliasID); err != nil {
			return fmt.Errorf("repointing %s.%s: %w", ref.table, ref.column, err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM author WHERE id=$1", aliasID); err != nil {
		return fmt.Errorf("retiring author %q: %w", alias, err)
	}
	query := "INSERT INTO author_alias (author_id, alias) VALUES ($1,$2)"
	c.log.Debug("executing sql", "sql", query)
	if _, err := tx.Exec(ctx, query, canonicalID, alias); err != nil {
		return fmt.Errorf("inserting author alias %q: %w", alias, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing alias merge: %w", err)
	}
	c.log.Info("merged author alias", "canonical", canonical, "alias", alias)
	return nil
}
