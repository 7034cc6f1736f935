// Command migrate applies the versioned BigQuery schema migrations.
package main

import (
	"context"
	"flag"
	"io/fs"
	"os"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/migrations"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to a config file (optional)")
		projectID     = flag.String("project", "", "GCP project ID (overrides gcp.project_id)")
		datasetID     = flag.String("dataset", "", "BigQuery dataset ID (overrides gcp.dataset)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name recorded against each applied migration")
		migrationsDir = flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(logger.ParseLevel(cfg.Log.Level))
	ctx := logger.WithContext(context.Background(), log)

	target := migrationTarget{
		ProjectID: firstNonEmpty(*projectID, cfg.GCP.ProjectID),
		DatasetID: firstNonEmpty(*datasetID, cfg.GCP.Dataset),
		AppliedBy: *appliedBy,
	}
	if target.ProjectID == "" {
		log.Fatal().Msg("A GCP project is required: pass -project or set gcp.project_id")
	}

	var source fs.FS
	if *migrationsDir != "" {
		source = os.DirFS(*migrationsDir)
	} else {
		source, err = fs.Sub(migrations.BigQuery, migrations.BigQueryDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open embedded migrations")
		}
	}

	all, err := parseMigrations(source, target)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(all)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, target.ProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().
		Str("project", target.ProjectID).
		Str("dataset", target.DatasetID).
		Msg("Connected to BigQuery")

	m := &migrator{client: client, target: target}
	applied, err := m.run(ctx, all, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	switch {
	case *dryRun:
		log.Info().Int("pending", applied).Msg("Dry run complete")
	case applied == 0:
		log.Info().Msg("No new migrations to apply, dataset is up to date")
	default:
		log.Info().Int("applied", applied).Msg("Migrations applied")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
