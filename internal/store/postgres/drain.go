package postgres

import (
	"context"
	"time"

	"ficdex/internal/core"
	"ficdex/internal/pipeline"
)

// DrainTags consumes the tag queue until its sentinel or close, upserting
// each record on a single pooled connection. The count of records applied
// before any failure is returned alongside the error.
func (c *Client) DrainTags(ctx context.Context, q *pipeline.Queue[core.Tag]) (int, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	c.log.Info("adding tags")
	start := time.Now()
	applied, err := pipeline.Drain(q, func(t core.Tag) error {
		_, err := c.upsertTag(ctx, conn, t)
		return err
	})
	if err != nil {
		return applied, err
	}
	c.log.Info("tags added", "count", applied, "elapsed", time.Since(start))
	return applied, nil
}

// DrainWorks consumes the work queue until its sentinel or close.
func (c *Client) DrainWorks(ctx context.Context, q *pipeline.Queue[core.Work]) (int, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	c.log.Info("adding works")
	start := time.Now()
	applied, err := pipeline.Drain(q, func(w core.Work) error {
		_, err := c.upsertWork(ctx, conn, w)
		return err
	})
	if err != nil {
		return applied, err
	}
	c.log.Info("works added", "count", applied, "elapsed", time.Since(start))
	return applied, nil
}
