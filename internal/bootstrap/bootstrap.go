// Package bootstrap builds the service graph from configuration for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/gcsuploader"
	"github.com/dvloznov/finsight/internal/infra/bigquery"
	"github.com/dvloznov/finsight/internal/infra/sqlite"
	"github.com/dvloznov/finsight/internal/jobs"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/notionsync"
	"github.com/dvloznov/finsight/internal/service"
	"github.com/dvloznov/finsight/internal/store"
)

// App holds the long-lived collaborators of a process.
type App struct {
	Config  *config.Config
	Repo    store.Repository
	Service *service.Service

	archiver *gcsuploader.GCSArchiver
}

// New opens the configured backend, forecast engine and archive bucket.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(ctx, cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}

	app := &App{Config: cfg, Repo: repo}

	var archiver gcsuploader.Archiver
	if cfg.GCS.Bucket != "" {
		app.archiver, err = gcsuploader.NewGCSArchiver(ctx, cfg.GCS.Bucket)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		archiver = app.archiver
	}

	app.Service = service.New(repo, engine, archiver, ServiceOptions(cfg))
	return app, nil
}

// Close releases the store and storage clients.
func (a *App) Close() error {
	var errs []error
	if a.archiver != nil {
		errs = append(errs, a.archiver.Close())
	}
	errs = append(errs, a.Repo.Close())
	return errors.Join(errs...)
}

// ServiceOptions maps configuration onto service options.
func ServiceOptions(cfg *config.Config) service.Options {
	return service.Options{
		Pipeline:       cfg.PipelineOptions(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		DefaultCash:    cfg.Finance.DefaultCashOnHand,
		HorizonDays:    cfg.Forecast.HorizonDays,
	}
}

// OpenRepository opens the configured store backend.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return db, nil
	case config.BackendBigQuery:
		repo, err := bigquery.NewRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset)
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("OpenRepository: unknown backend %q", cfg.Store.Backend)
	}
}

// NewEngine builds the configured forecast engine.
func NewEngine(ctx context.Context, cfg *config.Config) (forecast.Engine, error) {
	switch cfg.Forecast.Engine {
	case config.EngineLinear, "":
		return forecast.LinearEngine{}, nil
	case config.EngineGemini:
		engine, err := forecast.NewGeminiEngine(ctx, cfg.Forecast.Model)
		if err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("NewEngine: unknown engine %q", cfg.Forecast.Engine)
	}
}

// NotionEnabled reports whether a Notion token and database are configured.
func NotionEnabled(cfg *config.Config) bool {
	return cfg.Notion.Token != "" && cfg.Notion.DatabaseID != ""
}

// SyncNotionHandler runs Notion export jobs against repo.
func SyncNotionHandler(repo store.TransactionRepository, client notionsync.NotionService, databaseID string) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.SyncNotionJob) error {
		ctx = logger.WithUser(ctx, job.UserID)
		result, err := notionsync.SyncTransactions(ctx, repo, client, databaseID, job.UserID, job.DryRun)
		if err != nil {
			return fmt.Errorf("sync notion job %s: %w", job.JobID, err)
		}
		job.Result = &result
		return nil
	}
}
