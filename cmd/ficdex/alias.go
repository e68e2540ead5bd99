package main

import (
	"context"

	"github.com/spf13/cobra"
)

func aliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage alternate names for tags and authors",
	}
	cmd.AddCommand(aliasTagCmd())
	cmd.AddCommand(aliasAuthorCmd())
	cmd.AddCommand(aliasAddCmd())
	return cmd
}

func aliasTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <canonical> <alias>",
		Short: "Merge the tag named alias into canonical",
		Long: "Merge the tag named alias into canonical: every work link, " +
			"relation, and earlier alias is repointed, the duplicate row is " +
			"removed, and the alias is recorded as an alternate name.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)
			return client.MergeTagAlias(ctx, args[0], args[1])
		},
	}
}

func aliasAuthorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "author <canonical> <alias>",
		Short: "Merge the author named alias into canonical",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)
			return client.MergeAuthorAlias(ctx, args[0], args[1])
		},
	}
}

func aliasAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <tag> <alias>",
		Short: "Record an alternate name for a tag without merging rows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)
			return client.AddTagAlias(ctx, args[0], args[1])
		},
	}
}
