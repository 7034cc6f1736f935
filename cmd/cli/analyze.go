package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/finsight/internal/bootstrap"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/gcsuploader"
	"github.com/dvloznov/finsight/internal/ingest"
	"github.com/dvloznov/finsight/internal/pipeline"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		historyPath    string
		user           string
		commit         bool
		skipDuplicates bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a transaction table and print the report",
		Long: `Analyze reads a delimited transaction table from a local path or a gs:// URI
and prints the analysis report as JSON.

Without --user the history comes from --history (another table) or is empty.
With --user the history is read from the configured store, and --commit
imports the analyzed transactions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := root.load(cmd)
			if err != nil {
				return err
			}

			data, err := readSource(ctx, args[0])
			if err != nil {
				return err
			}

			if user == "" {
				if commit {
					return fmt.Errorf("--commit requires --user")
				}
				var history []domain.Transaction
				if historyPath != "" {
					hist, err := readSource(ctx, historyPath)
					if err != nil {
						return err
					}
					parsed, err := ingest.Parse(ctx, bytes.NewReader(hist), cfg.Upload.MaxBytes)
					if err != nil {
						return fmt.Errorf("history: %w", err)
					}
					history = parsed.Transactions
				}

				parsed, err := ingest.Parse(ctx, bytes.NewReader(data), cfg.Upload.MaxBytes)
				if err != nil {
					return err
				}
				report, err := pipeline.Analyze(ctx, parsed.Transactions, history, cfg.PipelineOptions())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			}

			app, err := bootstrap.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Service.AnalyzeUpload(ctx, user, gcsuploader.ExtractFilenameFromGCSURI(args[0]), bytes.NewReader(data))
			if err != nil {
				return err
			}
			if commit {
				n, err := app.Service.ConfirmUpload(ctx, user, result.UploadID, skipDuplicates)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d transactions from upload %s\n", n, result.UploadID)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", "", "table of existing transactions for duplicate detection and training")
	cmd.Flags().StringVar(&user, "user", "", "analyze against this user's stored history")
	cmd.Flags().BoolVar(&commit, "commit", false, "import the analyzed transactions (requires --user)")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "leave flagged duplicates out of the import")
	return cmd
}

// readSource reads a local file or a gs:// object.
func readSource(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "gs://") {
		return gcsuploader.FetchFromGCS(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}
