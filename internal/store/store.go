package store

import (
	"context"
	"time"

	"ficdex/internal/core"
	"ficdex/internal/pipeline"
)

// Store is the engine's boundary to the relational database. All writes are
// insert-or-update by natural key, so repeated ingestion runs converge
// instead of duplicating rows.
type Store interface {
	Close(ctx context.Context) error

	// Setup runs the embedded table setup script; it is idempotent.
	// Teardown drops everything and fails when the tables are absent; the
	// caller decides whether that failure matters.
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error

	// Upserts resolve an entity by its unique name and create or
	// sparse-update it, returning the surrogate id. Fandoms and languages
	// referenced by other entities are auto-created; ratings must pre-exist.
	UpsertFandom(ctx context.Context, f core.Fandom) (int64, error)
	UpsertTag(ctx context.Context, t core.Tag) (int64, error)
	UpsertAuthor(ctx context.Context, a core.Author, replaceLinks bool) (int64, error)
	UpsertWork(ctx context.Context, w core.Work) (int64, error)

	// Drains consume a scraper-fed queue until it terminates, dispatching
	// each record to the matching upsert on a single pooled connection.
	// They are fail-fast and report how many records were applied.
	DrainTags(ctx context.Context, q *pipeline.Queue[core.Tag]) (int, error)
	DrainWorks(ctx context.Context, q *pipeline.Queue[core.Work]) (int, error)

	// AddTagAlias records an alternate name for an existing tag. The merge
	// operations retire the row named alias in favor of canonical,
	// repointing every reference before the alias record is written.
	AddTagAlias(ctx context.Context, name, alias string) error
	MergeTagAlias(ctx context.Context, canonical, alias string) error
	MergeAuthorAlias(ctx context.Context, canonical, alias string) error

	// WorkUploadTimes returns every work id with its last-updated timestamp,
	// feeding the uploads-per-day report.
	WorkUploadTimes(ctx context.Context) (map[int64]time.Time, error)
}
