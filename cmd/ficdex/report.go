package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ficdex/internal/report"
)

func reportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the uploads-per-day CSV report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			times, err := client.WorkUploadTimes(ctx)
			if err != nil {
				return err
			}

			if out == "" {
				return report.DailyUploads(os.Stdout, times)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer file.Close()
			return report.DailyUploads(file, times)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	return cmd
}
