package postgres

import (
	"context"
	"fmt"
	"time"

	"ficdex/internal/core"
	"ficdex/internal/store"
)

// UpsertWork persists a work and everything it references. A work is matched
// by its link first, falling back to its title. First sight inserts the row
// and wires all relations; a re-ingested work is reconciled in place and
// never duplicated.
//
// No transaction spans the whole upsert: a crash mid-way can leave a work
// row without some of its relations. Re-running the batch converges, since
// every step is resolve-then-create.
func (c *Client) UpsertWork(ctx context.Context, w core.Work) (int64, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	return c.upsertWork(ctx, conn, w)
}

func (c *Client) upsertWork(ctx context.Context, q querier, w core.Work) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	id, ok, err := c.idBy(ctx, q, "work", "link", w.Link)
	if err != nil {
		return 0, err
	}
	if !ok {
		id, ok, err = c.idBy(ctx, q, "work", "title", w.Title)
		if err != nil {
			return 0, err
		}
	}
	if !ok {
		return c.insertWork(ctx, q, w)
	}
	if err := c.reconcileWork(ctx, q, w, id); err != nil {
		return 0, err
	}
	return id, nil
}

// resolveWorkRefs resolves the optional language and rating ids. Languages
// are auto-created; an unknown rating is fatal.
func (c *Client) resolveWorkRefs(ctx context.Context, q querier, w core.Work) (langID, ratingID *int64, err error) {
	if w.Language != nil {
		id, err := c.upsertLanguage(ctx, q, *w.Language)
		if err != nil {
			return nil, nil, err
		}
		langID = &id
	}
	if w.Rating != nil {
		id, err := c.resolveRating(ctx, q, *w.Rating)
		if err != nil {
			return nil, nil, err
		}
		ratingID = &id
	}
	return langID, ratingID, nil
}

func (c *Client) insertWork(ctx context.Context, q querier, w core.Work) (int64, error) {
	langID, ratingID, err := c.resolveWorkRefs(ctx, q, w)
	if err != nil {
		return 0, err
	}

	lastChecked := w.LastChecked
	if lastChecked.IsZero() {
		lastChecked = time.Now()
	}

	query, args := newStmt("work").
		set("title", w.Title).
		set("chapters", w.Chapters).
		set("words", w.Words).
		setID("lang_id", langID).
		setID("rating_id", ratingID).
		set("warning_none_given", w.Warnings.NoneGiven).
		set("warning_none_apply", w.Warnings.NoneApply).
		set("warning_violence", w.Warnings.Violence).
		set("warning_rape", w.Warnings.Rape).
		set("warning_death", w.Warnings.Death).
		set("warning_underage", w.Warnings.Underage).
		set("cat_ff", w.Categories.FF).
		set("cat_fm", w.Categories.FM).
		set("cat_mm", w.Categories.MM).
		set("cat_gen", w.Categories.Gen).
		set("cat_multi", w.Categories.Multi).
		set("cat_other", w.Categories.Other).
		set("completed", w.Completed).
		set("last_updated", w.LastUpdated).
		set("last_checked", lastChecked).
		set("link", w.Link).
		insert()
	c.log.Debug("executing sql", "sql", query)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("inserting work %q: %w", w.Title, err)
	}

	id, ok, err := c.idBy(ctx, q, "work", "title", w.Title)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: freshly created work %q has vanished", store.ErrConsistency, w.Title)
	}

	if err := c.wireWorkRefs(ctx, q, w, id); err != nil {
		return 0, err
	}
	return id, nil
}

// wireWorkRefs upserts every referenced author, tag, and crossover fandom,
// then reconciles the three relation sets.
func (c *Client) wireWorkRefs(ctx context.Context, q querier, w core.Work, id int64) error {
	authorNames := make([]string, len(w.Authors))
	for i, a := range w.Authors {
		if _, err := c.upsertAuthor(ctx, q, a, false); err != nil {
			return err
		}
		authorNames[i] = a.Name
	}
	if err := c.reconcileRefs(ctx, q, authoredRelation, id, authorNames); err != nil {
		return err
	}

	tagNames := make([]string, len(w.Tags))
	for i, t := range w.Tags {
		if _, err := c.upsertTag(ctx, q, t); err != nil {
			return err
		}
		tagNames[i] = t.Name
	}
	if err := c.reconcileRefs(ctx, q, taggedRelation, id, tagNames); err != nil {
		return err
	}

	fandomNames := make([]string, len(w.Crossovers))
	for i, f := range w.Crossovers {
		if _, err := c.upsertFandom(ctx, q, f); err != nil {
			return err
		}
		fandomNames[i] = f.Name
	}
	return c.reconcileRefs(ctx, q, crossedOverRelation, id, fandomNames)
}

// reconcileWork applies a re-ingested work onto its existing row: scalar
// columns are compared against the stored values and only changed ones are
// rewritten, then the relation sets are reconciled additively.
func (c *Client) reconcileWork(ctx context.Context, q querier, w core.Work, id int64) error {
	langID, ratingID, err := c.resolveWorkRefs(ctx, q, w)
	if err != nil {
		return err
	}

	query := `SELECT title, chapters, words, lang_id, rating_id,
       warning_none_given, warning_none_apply, warning_violence, warning_rape, warning_death, warning_underage,
       cat_ff, cat_fm, cat_mm, cat_gen, cat_multi, cat_other,
       completed, last_updated
FROM work WHERE id=$1`
	c.log.Debug("executing sql", "sql", query)

	var (
		curTitle       string
		curChapters    int
		curWords       int
		curLangID      *int64
		curRatingID    *int64
		curWarnings    core.Warnings
		curCategories  core.Categories
		curCompleted   bool
		curLastUpdated time.Time
	)
	err = q.QueryRow(ctx, query, id).Scan(
		&curTitle, &curChapters, &curWords, &curLangID, &curRatingID,
		&curWarnings.NoneGiven, &curWarnings.NoneApply, &curWarnings.Violence,
		&curWarnings.Rape, &curWarnings.Death, &curWarnings.Underage,
		&curCategories.FF, &curCategories.FM, &curCategories.MM,
		&curCategories.Gen, &curCategories.Multi, &curCategories.Other,
		&curCompleted, &curLastUpdated,
	)
	if err != nil {
		return fmt.Errorf("reading work %q: %w", w.Title, err)
	}

	upd := newStmt("work")
	if curTitle != w.Title {
		upd.set("title", w.Title)
	}
	if curChapters != w.Chapters {
		upd.set("chapters", w.Chapters)
	}
	if curWords != w.Words {
		upd.set("words", w.Words)
	}
	if langID != nil && (curLangID == nil || *curLangID != *langID) {
		upd.set("lang_id", *langID)
	}
	if ratingID != nil && (curRatingID == nil || *curRatingID != *ratingID) {
		upd.set("rating_id", *ratingID)
	}
	if curWarnings != w.Warnings {
		upd.set("warning_none_given", w.Warnings.NoneGiven).
			set("warning_none_apply", w.Warnings.NoneApply).
			set("warning_violence", w.Warnings.Violence).
			set("warning_rape", w.Warnings.Rape).
			set("warning_death", w.Warnings.Death).
			set("warning_underage", w.Warnings.Underage)
	}
	if curCategories != w.Categories {
		upd.set("cat_ff", w.Categories.FF).
			set("cat_fm", w.Categories.FM).
			set("cat_mm", w.Categories.MM).
			set("cat_gen", w.Categories.Gen).
			set("cat_multi", w.Categories.Multi).
			set("cat_other", w.Categories.Other)
	}
	if curCompleted != w.Completed {
		upd.set("completed", w.Completed)
	}
	if !curLastUpdated.Equal(w.LastUpdated) {
		upd.set("last_updated", w.LastUpdated)
	}
	// Every sighting refreshes last_checked, defaulting to ingestion time.
	lastChecked := w.LastChecked
	if lastChecked.IsZero() {
		lastChecked = time.Now()
	}
	upd.set("last_checked", lastChecked)

	updateSQL, args := upd.update("id", id)
	c.log.Debug("executing sql", "sql", updateSQL)
	if _, err := q.Exec(ctx, updateSQL, args...); err != nil {
		return fmt.Errorf("updating work %q: %w", w.Title, err)
	}

	return c.wireWorkRefs(ctx, q, w, id)
}

// WorkUploadTimes returns every work id with its last-updated timestamp.
func (c *Client) WorkUploadTimes(ctx context.Context) (map[int64]time.Time, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, "SELECT id, last_updated FROM work")
	if err != nil {
		return nil, fmt.Errorf("reading upload times: %w", err)
	}
	defer rows.Close()

	times := make(map[int64]time.Time)
	for rows.Next() {
		var id int64
		var updated time.Time
		if err := rows.Scan(&id, &updated); err != nil {
			return nil, fmt.Errorf("scanning upload time: %w", err)
		}
		times[id] = updated
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating upload times: %w", err)
	}
	return times, nil
}
