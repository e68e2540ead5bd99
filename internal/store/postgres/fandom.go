package postgres

import (
	"context"
	"fmt"

	"ficdex/internal/core"
	"ficdex/internal/store"
)

// UpsertFandom resolves a fandom by name, creating it when absent.
func (c *Client) UpsertFandom(ctx context.Context, f core.Fandom) (int64, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	return c.upsertFandom(ctx, conn, f)
}

// upsertFandom auto-vivifies the fandom. The insert omits absent optional
// columns entirely, so a later non-null link is never pre-empted by an
// explicit null. An existing row only gains a link when one is supplied;
// links are never cleared.
func (c *Client) upsertFandom(ctx context.Context, q querier, f core.Fandom) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	id, ok, err := c.idByName(ctx, q, "fandom", f.Name)
	if err != nil {
		return 0, err
	}
	if !ok {
		query, args := newStmt("fandom").
			set("name", f.Name).
			setString("link", f.Link).
			insert()
		c.log.Debug("executing sql", "sql", query)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting fandom %q: %w", f.Name, err)
		}
		id, ok, err = c.idByName(ctx, q, "fandom", f.Name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: freshly created fandom %q has vanished", store.ErrConsistency, f.Name)
		}
		return id, nil
	}

	if f.Link != nil {
		query, args := newStmt("fandom").set("link", *f.Link).update("id", id)
		c.log.Debug("executing sql", "sql", query)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("updating fandom %q: %w", f.Name, err)
		}
	}
	return id, nil
}

// upsertLanguage auto-vivifies a language row, like fandoms but with no
// optional columns at all.
func (c *Client) upsertLanguage(ctx context.Context, q querier, name string) (int64, error) {
	id, ok, err := c.idByName(ctx, q, "lang", name)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	query, args := newStmt("lang").set("name", name).insert()
	c.log.Debug("executing sql", "sql", query)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("inserting language %q: %w", name, err)
	}
	id, ok, err = c.idByName(ctx, q, "lang", name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: freshly created language %q has vanished", store.ErrConsistency, name)
	}
	return id, nil
}

// resolveRating looks up a rating that must already be seeded; an unknown
// rating aborts the caller's upsert.
func (c *Client) resolveRating(ctx context.Context, q querier, name string) (int64, error) {
	id, ok, err := c.idByName(ctx, q, "rating", name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: unknown rating %q", store.ErrMissingRef, name)
	}
	return id, nil
}
