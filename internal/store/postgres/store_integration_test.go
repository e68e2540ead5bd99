//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ficdex/internal/config"
	"ficdex/internal/core"
	"ficdex/internal/pipeline"
	"ficdex/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "ficdex_test",
			User:     "postgres",
			Password: "changeme",
		},
	}
	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })

	// Fresh schema per test; teardown fails harmlessly on the first run.
	_ = client.Teardown(ctx)
	if err := client.Setup(ctx); err != nil {
		t.Fatalf("setting up tables: %v", err)
	}
	return client
}

func rowCount(t *testing.T, c *Client, table string) int {
	t.Helper()
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s", table)
	if err := c.pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("counting %s rows: %v", table, err)
	}
	return n
}

func TestSetup_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	if err := client.Setup(ctx); err != nil {
		t.Fatalf("second setup: %v", err)
	}
	if got := rowCount(t, client, "rating"); got != 5 {
		t.Fatalf("got %d rating seeds, want 5", got)
	}
	if got := rowCount(t, client, "author"); got != 1 {
		t.Fatalf("got %d seeded authors, want 1", got)
	}
}

func TestUpsertFandom_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	id1, err := client.UpsertFandom(ctx, core.Fandom{Name: "Example Fandom"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	link := "https://example.org/fandom"
	id2, err := client.UpsertFandom(ctx, core.Fandom{Name: "Example Fandom", Link: &link})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids diverged: %d vs %d", id1, id2)
	}
	if got := rowCount(t, client, "fandom"); got != 1 {
		t.Fatalf("got %d fandom rows, want 1", got)
	}

	var stored *string
	if err := client.pool.QueryRow(ctx, "SELECT link FROM fandom WHERE id=$1", id1).Scan(&stored); err != nil {
		t.Fatalf("reading link: %v", err)
	}
	if stored == nil || *stored != link {
		t.Fatalf("link not applied on re-upsert: %v", stored)
	}
}

func TestUpsertTag_AutoCreatesFandom(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	fandom := "Example Fandom"
	desc := "the protagonist"
	tag, err := core.NewTag("Lead", &desc, true, false, &fandom, nil)
	if err != nil {
		t.Fatalf("building tag: %v", err)
	}
	id1, err := client.UpsertTag(ctx, tag)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if got := rowCount(t, client, "fandom"); got != 1 {
		t.Fatalf("fandom not auto-created, got %d rows", got)
	}

	// A later sighting without the description must not clear it.
	sparse, err := core.NewTag("Lead", nil, true, false, nil, nil)
	if err != nil {
		t.Fatalf("building sparse tag: %v", err)
	}
	id2, err := client.UpsertTag(ctx, sparse)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids diverged: %d vs %d", id1, id2)
	}
	var stored *string
	if err := client.pool.QueryRow(ctx, "SELECT description FROM tag WHERE id=$1", id1).Scan(&stored); err != nil {
		t.Fatalf("reading description: %v", err)
	}
	if stored == nil || *stored != desc {
		t.Fatalf("sparse update clobbered description: %v", stored)
	}
}

func TestUpsertAuthor_MergesLinks(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	a, err := core.NewAuthor("Quill", []string{"https://example.org/quill"})
	if err != nil {
		t.Fatalf("building author: %v", err)
	}
	id1, err := client.UpsertAuthor(ctx, a, false)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	b, err := core.NewAuthor("Quill", []string{"https://example.org/quill", "https://example.net/quill"})
	if err != nil {
		t.Fatalf("building author: %v", err)
	}
	id2, err := client.UpsertAuthor(ctx, b, false)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids diverged: %d vs %d", id1, id2)
	}
	if got := rowCount(t, client, "profile"); got != 2 {
		t.Fatalf("got %d profile rows, want 2", got)
	}

	// Replace mode with an empty set must leave the stored links alone.
	bare, err := core.NewAuthor("Quill", nil)
	if err != nil {
		t.Fatalf("building author: %v", err)
	}
	if _, err := client.UpsertAuthor(ctx, bare, true); err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	if got := rowCount(t, client, "profile"); got != 2 {
		t.Fatalf("empty replace dropped links, got %d rows", got)
	}
}

func testWork(t *testing.T) core.Work {
	t.Helper()
	w, err := core.NewWork("The Long Watch", 3, 12000,
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), "https://example.org/w/1")
	if err != nil {
		t.Fatalf("building work: %v", err)
	}
	lang := "English"
	rating := "Teen And Up Audiences"
	w.Language = &lang
	w.Rating = &rating

	author, err := core.NewAuthor("Quill", nil)
	if err != nil {
		t.Fatalf("building author: %v", err)
	}
	w.Authors = []core.Author{author}

	fandom := "Example Fandom"
	tag, err := core.NewTag("Lead", nil, true, false, &fandom, nil)
	if err != nil {
		t.Fatalf("building tag: %v", err)
	}
	w.Tags = []core.Tag{tag}

	crossover, err := core.NewFandom("Other Fandom", nil)
	if err != nil {
		t.Fatalf("building fandom: %v", err)
	}
	w.Crossovers = []core.Fandom{crossover}
	return w
}

func TestUpsertWork_FullGraph(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	w := testWork(t)

	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Re-ingesting the identical work must not grow any table.
	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	counts := map[string]int{
		"work":         1,
		"authored":     1,
		"tagged":       1,
		"crossed_over": 1,
		"tag":          1,
		"fandom":       2, // tag fandom plus crossover
		"lang":         1,
		"author":       2, // Quill plus the Anonymous seed
	}
	for table, want := range counts {
		if got := rowCount(t, client, table); got != want {
			t.Errorf("got %d %s rows, want %d", got, table, want)
		}
	}
}

func TestUpsertWork_ReingestUpdatesScalars(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w := testWork(t)
	id, err := client.UpsertWork(ctx, w)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	w.Chapters = 5
	w.Words = 20000
	w.Completed = true
	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}

	var chapters, words int
	var completed bool
	err = client.pool.QueryRow(ctx,
		"SELECT chapters, words, completed FROM work WHERE id=$1", id).
		Scan(&chapters, &words, &completed)
	if err != nil {
		t.Fatalf("reading work: %v", err)
	}
	if chapters != 5 || words != 20000 || !completed {
		t.Fatalf("scalars not reconciled: chapters=%d words=%d completed=%v", chapters, words, completed)
	}
}

func TestUpsertWork_AnonymousDefault(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w, err := core.NewWork("Unsigned", 1, 500,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "https://example.org/w/2")
	if err != nil {
		t.Fatalf("building work: %v", err)
	}
	id, err := client.UpsertWork(ctx, w)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}

	var authorID int64
	if err := client.pool.QueryRow(ctx, "SELECT author_id FROM authored WHERE work_id=$1", id).Scan(&authorID); err != nil {
		t.Fatalf("reading authorship: %v", err)
	}
	if authorID != anonymousAuthorID {
		t.Fatalf("got author id %d, want the anonymous seed %d", authorID, anonymousAuthorID)
	}
	if got := rowCount(t, client, "authored"); got != 1 {
		t.Fatalf("anonymous link duplicated, got %d rows", got)
	}
}

func TestUpsertWork_UnknownRating(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w, err := core.NewWork("Misrated", 1, 500,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "https://example.org/w/3")
	if err != nil {
		t.Fatalf("building work: %v", err)
	}
	rating := "Scandalous"
	w.Rating = &rating

	_, err = client.UpsertWork(ctx, w)
	if !errors.Is(err, store.ErrMissingRef) {
		t.Fatalf("got %v, want ErrMissingRef", err)
	}
	if got := rowCount(t, client, "work"); got != 0 {
		t.Fatalf("work persisted despite unknown rating, got %d rows", got)
	}
}

func TestMergeTagAlias_RepointsAndRetires(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w := testWork(t)
	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("seeding work: %v", err)
	}
	dup, err := core.NewTag("The Lead", nil, true, false, nil, nil)
	if err != nil {
		t.Fatalf("building tag: %v", err)
	}
	dupID, err := client.UpsertTag(ctx, dup)
	if err != nil {
		t.Fatalf("seeding duplicate tag: %v", err)
	}
	if _, err := client.pool.Exec(ctx,
		"INSERT INTO tagged (work_id, tag_id) SELECT work_id, $1 FROM tagged", dupID); err != nil {
		t.Fatalf("linking duplicate tag: %v", err)
	}

	if err := client.MergeTagAlias(ctx, "Lead", "The Lead"); err != nil {
		t.Fatalf("merging alias: %v", err)
	}

	if got := rowCount(t, client, "tag"); got != 1 {
		t.Fatalf("retired tag still present, got %d rows", got)
	}
	// The work referenced both names; after the merge exactly one link remains.
	if got := rowCount(t, client, "tagged"); got != 1 {
		t.Fatalf("got %d tagged rows, want 1", got)
	}
	var alias string
	if err := client.pool.QueryRow(ctx, "SELECT alias FROM tag_alias").Scan(&alias); err != nil {
		t.Fatalf("reading alias: %v", err)
	}
	if alias != "The Lead" {
		t.Fatalf("got alias %q", alias)
	}

	// Merging onto the canonical name again must carry earlier aliases along.
	third, err := core.NewTag("Leading Role", nil, true, false, nil, nil)
	if err != nil {
		t.Fatalf("building tag: %v", err)
	}
	if _, err := client.UpsertTag(ctx, third); err != nil {
		t.Fatalf("seeding third tag: %v", err)
	}
	if err := client.MergeTagAlias(ctx, "Lead", "Leading Role"); err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if got := rowCount(t, client, "tag_alias"); got != 2 {
		t.Fatalf("got %d alias rows, want 2", got)
	}

	if err := client.MergeTagAlias(ctx, "Lead", "No Such Tag"); !errors.Is(err, store.ErrMissingRef) {
		t.Fatalf("got %v, want ErrMissingRef", err)
	}
}

func TestMergeAuthorAlias_RepointsAndRetires(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w := testWork(t)
	if _, err := client.UpsertWork(ctx, w); err != nil {
		t.Fatalf("seeding work: %v", err)
	}
	dup, err := core.NewAuthor("Quill Alt", []string{"https://example.net/quill-alt"})
	if err != nil {
		t.Fatalf("building author: %v", err)
	}
	if _, err := client.UpsertAuthor(ctx, dup, false); err != nil {
		t.Fatalf("seeding duplicate author: %v", err)
	}

	if err := client.MergeAuthorAlias(ctx, "Quill", "Quill Alt"); err != nil {
		t.Fatalf("merging alias: %v", err)
	}

	if got := rowCount(t, client, "author"); got != 2 { // Quill plus Anonymous
		t.Fatalf("got %d author rows, want 2", got)
	}
	var ownerID int64
	if err := client.pool.QueryRow(ctx,
		"SELECT author_id FROM profile WHERE link=$1", "https://example.net/quill-alt").Scan(&ownerID); err != nil {
		t.Fatalf("reading repointed profile: %v", err)
	}
	canonicalID, ok, err := client.idBy(ctx, client.pool, "author", "name", "Quill")
	if err != nil || !ok {
		t.Fatalf("resolving canonical: ok=%v err=%v", ok, err)
	}
	if ownerID != canonicalID {
		t.Fatalf("profile not repointed: got %d, want %d", ownerID, canonicalID)
	}
}

func TestAddTagAlias(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	tag, err := core.NewTag("Lead", nil, true, false, nil, nil)
	if err != nil {
		t.Fatalf("building tag: %v", err)
	}
	if _, err := client.UpsertTag(ctx, tag); err != nil {
		t.Fatalf("seeding tag: %v", err)
	}
	if err := client.AddTagAlias(ctx, "Lead", "Protagonist"); err != nil {
		t.Fatalf("adding alias: %v", err)
	}
	if got := rowCount(t, client, "tag"); got != 1 {
		t.Fatalf("alias add must not retire rows, got %d tags", got)
	}
	if err := client.AddTagAlias(ctx, "No Such Tag", "X"); !errors.Is(err, store.ErrMissingRef) {
		t.Fatalf("got %v, want ErrMissingRef", err)
	}
}

func TestDrainTags_StopsAtSentinel(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	q := pipeline.NewQueue[core.Tag](8)
	q.Push(core.Tag{Name: "Alpha"})
	q.Push(core.Tag{Name: "Beta"})
	q.Push(core.Tag{}) // sentinel

	applied, err := client.DrainTags(ctx, q)
	if err != nil {
		t.Fatalf("draining: %v", err)
	}
	if applied != 2 {
		t.Fatalf("got %d applied, want 2", applied)
	}
	if got := rowCount(t, client, "tag"); got != 2 {
		t.Fatalf("got %d tag rows, want 2", got)
	}
}

func TestDrainWorks_FailFast(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	good := testWork(t)
	bad, err := core.NewWork("Misrated", 1, 500,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "https://example.org/w/9")
	if err != nil {
		t.Fatalf("building work: %v", err)
	}
	rating := "Scandalous"
	bad.Rating = &rating

	q := pipeline.NewQueue[core.Work](8)
	q.Push(good)
	q.Push(bad)
	q.Push(good)
	q.Close()

	applied, err := client.DrainWorks(ctx, q)
	if !errors.Is(err, store.ErrMissingRef) {
		t.Fatalf("got %v, want ErrMissingRef", err)
	}
	if applied != 1 {
		t.Fatalf("got %d applied before failure, want 1", applied)
	}
}

func TestWorkUploadTimes(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	w := testWork(t)
	id, err := client.UpsertWork(ctx, w)
	if err != nil {
		t.Fatalf("seeding work: %v", err)
	}
	times, err := client.WorkUploadTimes(ctx)
	if err != nil {
		t.Fatalf("reading upload times: %v", err)
	}
	if len(times) != 1 {
		t.Fatalf("got %d entries, want 1", len(times))
	}
	if !times[id].Equal(w.LastUpdated) {
		t.Fatalf("got %v, want %v", times[id], w.LastUpdated)
	}
}
