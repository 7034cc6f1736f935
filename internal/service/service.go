// Package service exposes the finance operations on top of the analysis core,
// the persistence contracts and the forecast engine.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/gcsuploader"
	"github.com/dvloznov/finsight/internal/ingest"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/pipeline"
	"github.com/dvloznov/finsight/internal/store"
)

// Audit actions.
const (
	ActionUploadAnalyzed    = "UPLOAD_ANALYZED"
	ActionUploadConfirmed   = "UPLOAD_CONFIRMED"
	ActionSimulateHiring    = "SIMULATE_HIRING"
	ActionAddTransaction    = "ADD_TRANSACTION"
	ActionDeleteTransaction = "DELETE_TRANSACTION"
	ActionUpdateCash        = "UPDATE_CASH"
)

// DefaultCashOnHand is used for users who never set a cash balance.
const DefaultCashOnHand = 7_500_000

// Options tunes a Service.
type Options struct {
	Pipeline       pipeline.Options
	MaxUploadBytes int64
	DefaultCash    float64
	HorizonDays    int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Pipeline:       pipeline.DefaultOptions(),
		MaxUploadBytes: ingest.DefaultMaxBytes,
		DefaultCash:    DefaultCashOnHand,
		HorizonDays:    forecast.DefaultHorizonDays,
	}
}

// Service implements the exposed operations. It is safe for concurrent use
// as long as its collaborators are.
type Service struct {
	transactions store.TransactionRepository
	cash         store.CashRepository
	activity     store.ActivityRepository
	uploads      store.UploadRepository
	archiver     gcsuploader.Archiver
	engine       forecast.Engine
	opts         Options

	now   func() time.Time
	newID func() string
}

// New wires a Service. archiver may be nil to disable raw upload archiving;
// a nil engine falls back to the linear trend engine.
func New(repo store.Repository, engine forecast.Engine, archiver gcsuploader.Archiver, opts Options) *Service {
	if engine == nil {
		engine = forecast.LinearEngine{}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = forecast.DefaultHorizonDays
	}
	return &Service{
		transactions: repo,
		cash:         repo,
		activity:     repo,
		uploads:      repo,
		archiver:     archiver,
		engine:       engine,
		opts:         opts,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func opLogger(ctx context.Context, op, userID string) zerolog.Logger {
	return logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"op":      op,
		"user_id": userID,
	})
}

func requireUser(userID string) error {
	if userID == "" {
		return domain.NewValidationError(domain.ErrInvalidInput, "user id is required")
	}
	return nil
}

// recordActivity writes an audit entry. Failures are logged and swallowed.
func (s *Service) recordActivity(ctx context.Context, userID, action, details string) {
	entry := domain.ActivityEntry{
		ID:        s.newID(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if err := s.activity.RecordActivity(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("action", action).
			Msg("Failed to record activity")
	}
}

// ListActivity returns the user's audit trail, newest first.
func (s *Service) ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListActivity(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListActivity: user %s: %w", userID, err)
	}
	return entries, nil
}
