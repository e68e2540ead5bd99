package main

import (
	"context"

	"ficdex/internal/config"
	"ficdex/internal/store/postgres"
)

const configPath = "ficdex.yaml"

func openStore(ctx context.Context) (*postgres.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return postgres.New(ctx, cfg)
}
