package postgres

import (
	"context"
	"fmt"

	"ficdex/internal/core"
	"ficdex/internal/store"
)

// UpsertTag resolves a tag by name and creates or sparse-updates it. The
// tag's fandom, when named, is resolved first and auto-created.
func (c *Client) UpsertTag(ctx context.Context, t core.Tag) (int64, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	return c.upsertTag(ctx, conn, t)
}

func (c *Client) upsertTag(ctx context.Context, q querier, t core.Tag) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var fandomID *int64
	if t.Fandom != nil {
		id, err := c.upsertFandom(ctx, q, core.Fandom{Name: *t.Fandom})
		if err != nil {
			return 0, err
		}
		fandomID = &id
	}

	tagID, ok, err := c.idByName(ctx, q, "tag", t.Name)
	if err != nil {
		return 0, err
	}
	if !ok {
		query, args := newStmt("tag").
			set("name", t.Name).
			set("description", t.Description).
			set("is_character", t.Character).
			set("is_relationship", t.Relationship).
			set("fandom_id", fandomID).
			set("link", t.Link).
			insert()
		c.log.Debug("executing sql", "sql", query)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting tag %q: %w", t.Name, err)
		}
		tagID, ok, err = c.idByName(ctx, q, "tag", t.Name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: freshly created tag %q has vanished", store.ErrConsistency, t.Name)
		}
		return tagID, nil
	}

	// Name and both flags are always rewritten; description, fandom and link
	// only when the caller supplied them.
	query, args := newStmt("tag").
		set("name", t.Name).
		setString("description", t.Description).
		set("is_character", t.Character).
		set("is_relationship", t.Relationship).
		setID("fandom_id", fandomID).
		setString("link", t.Link).
		update("id", tagID)
	c.log.Debug("executing sql", "sql", query)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("updating tag %q: %w", t.Name, err)
	}
	return tagID, nil
}

// AddTagAlias records alias as an alternate name of an existing tag without
// retiring any row.
func (c *Client) AddTagAlias(ctx context.Context, name, alias string) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	id, ok, err := c.idByName(ctx, conn, "tag", name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown tag %q", store.ErrMissingRef, name)
	}
	return c.insertTagAlias(ctx, conn, id, alias)
}

func (c *Client) insertTagAlias(ctx context.Context, q querier, tagID int64, alias string) error {
	query := "INSERT INTO tag_alias (tag_id, alias) VALUES ($1,$2)"
	c.log.Debug("executing sql", "sql", query)
	if _, err := q.Exec(ctx, query, tagID, alias); err != nil {
		return fmt.Errorf("inserting tag alias %q: %w", alias, err)
	}
	return nil
}

// MergeTagAlias retires the tag row named alias in favor of canonical. Every
// foreign key pointing at the retired id is repointed and the retired row
// deleted before the alias record is written, all in one transaction, so an
// alias record can never coexist with dangling references.
func (c *Client) MergeTagAlias(ctx context.Context, canonical, alias string) error {
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

	canonicalID, ok, err := c.idByName(ctx, tx, "tag", canonical)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown tag %q", store.ErrMissingRef, canonical)
	}
	aliasID, ok, err := c.idByName(ctx, tx, "tag", alias)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown tag %q", store.ErrMissingRef, alias)
	}

	// A work (or related-pair) may already reference both tags; drop the
	// retired side of such pairs so repointing cannot collide with the
	// uniqueness constraints.
	dedupes := []string{
		"DELETE FROM tagged a WHERE a.tag_id=$2 AND EXISTS (SELECT 1 FROM tagged b WHERE b.work_id=a.work_id AND b.tag_id=$1)",
		"DELETE FROM related a WHERE a.tag_id=$2 AND EXISTS (SELECT 1 FROM related b WHERE b.tag_id=$1 AND b.related_id=a.related_id)",
		"DELETE FROM related a WHERE a.related_id=$2 AND EXISTS (SELECT 1 FROM related b WHERE b.related_id=$1 AND b.tag_id=a.tag_id)",
	}
	for _, query := range dedupes {
		c.log.Debug("executing sql", "sql", query)
		if _, err := tx.Exec(ctx, query, canonicalID, aliasID); err != nil {
			return fmt.Errorf("deduplicating references to %q: %w", alias, err)
		}
	}

	refs := []struct{ table, column string }{
		{"tagged", "tag_id"},
		{"related", "tag_id"},
		{"related", "related_id"},
		{"tag_alias", "tag_id"},
	}
	for _, ref := range refs {
		query := fmt.Sprintf("UPDATE %s SET %s=$1 WHERE %s=$2", ref.table, ref.column, ref.column)
		c.log.Debug("executing sql", "sql", query)
		if _, err := tx.Exec(ctx, query, canonicalID, aliasID); err != nil {
			return fmt.Errorf("repointing %s.%s: %w", ref.table, ref.column, err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM tag WHERE id=$1", aliasID); err != nil {
		return fmt.Errorf("retiring tag %q: %w", alias, err)
	}
	if err := c.insertTagAlias(ctx, tx, canonicalID, alias); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing alias merge: %w", err)
	}
	c.log.Info("merged tag alias", "canonical", canonical, "alias", alias)
	return nil
}
