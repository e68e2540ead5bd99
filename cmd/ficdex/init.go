package main

import (
	"context"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create all tables, views, and seed rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)
			return client.Setup(ctx)
		},
	}
}
