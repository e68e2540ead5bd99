package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"
)

//go:embed setup.sql
var setupScript string

//go:embed teardown.sql
var teardownScript string

// Setup creates all tables, views, seed rows, and indexes. The whole script
// runs as one batched statement inside PostgreSQL's implicit transaction and
// is idempotent.
func (c *Client) Setup(ctx context.Context) error {
	c.log.Info("setting up tables")
	start := time.Now()
	if _, err := c.pool.Exec(ctx, setupScript); err != nil {
		return fmt.Errorf("setting up tables: %w", err)
	}
	c.log.Info("tables ready", "elapsed", time.Since(start))
	return nil
}

// Teardown drops every table and view. Running it against a database without
// the tables fails; operator tooling treats that as expected, the engine does
// not swallow it.
func (c *Client) Teardown(ctx context.Context) error {
	c.log.Info("tearing down tables")
	start := time.Now()
	if _, err := c.pool.Exec(ctx, teardownScript); err != nil {
		return fmt.Errorf("tearing down tables: %w", err)
	}
	c.log.Info("tables dropped", "elapsed", time.Since(start))
	return nil
}
