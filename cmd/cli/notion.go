package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/finsight/internal/bootstrap"
	"github.com/dvloznov/finsight/internal/notionsync"
)

func newSyncNotionCmd(root *rootOptions) *cobra.Command {
	var (
		user   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "sync-notion",
		Short: "Export a user's transactions to the configured Notion database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if !bootstrap.NotionEnabled(app.Config) {
				return fmt.Errorf("notion.token and notion.database_id must be configured")
			}

			client := notionsync.NewNotionClient(app.Config.Notion.Token)
			result, err := notionsync.SyncTransactions(ctx, app.Repo, client, app.Config.Notion.DatabaseID, user, dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing to Notion")
	return cmd
}
