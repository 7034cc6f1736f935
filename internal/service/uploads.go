package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/ingest"
	"github.com/dvloznov/finsight/internal/pipeline"
	"github.com/dvloznov/finsight/internal/store"
)

const defaultUploadName = "upload.csv"

// UploadResult is returned by AnalyzeUpload.
type UploadResult struct {
	UploadID   string                  `json:"upload_id"`
	Filename   string                  `json:"filename"`
	ArchiveURI string                  `json:"archive_uri,omitempty"`
	Encoding   string                  `json:"encoding"`
	Columns    map[string]ingest.Field `json:"columns"`
	Stats      ingest.CleanStats       `json:"stats"`
	Report     *domain.AnalysisReport  `json:"report"`
}

// AnalyzeUpload parses an uploaded table, runs the analysis pipeline against
// the user's history and stages the report for confirmation. Nothing is
// committed to the transaction store.
func (s *Service) AnalyzeUpload(ctx context.Context, userID, filename string, r io.Reader) (*UploadResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	start := s.now()
	log := opLogger(ctx, "AnalyzeUpload", userID)
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" {
		filename = defaultUploadName
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("AnalyzeUpload: read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, domain.NewValidationError(domain.ErrFileTooLarge, "limit is %d bytes", s.opts.MaxUploadBytes)
	}

	uploadID := s.newID()
	log.Info().
		Str("upload_id", uploadID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("Analyzing upload")

	parsed, err := ingest.Parse(ctx, bytes.NewReader(data), s.opts.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeUpload: %w", err)
	}

	history, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeUpload: list history: %w", err)
	}

	report, err := pipeline.Analyze(ctx, parsed.Transactions, history, s.opts.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeUpload: %w", err)
	}

	// archived only once the upload has passed validation
	var archiveURI string
	if s.archiver != nil {
		archiveURI, err = s.archiver.Archive(ctx, userID, uploadID, filename, data)
		if err != nil {
			log.Warn().Err(err).Str("upload_id", uploadID).Msg("Failed to archive raw upload")
			archiveURI = ""
		}
	}

	upload := &store.Upload{
		UploadID:          uploadID,
		UserID:            userID,
		Filename:          filename,
		Status:            store.UploadStatusAnalyzed,
		TotalTransactions: report.TransactionCount,
		ArchiveURI:        archiveURI,
		Report:            report,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.uploads.InsertUpload(ctx, upload); err != nil {
		return nil, fmt.Errorf("AnalyzeUpload: stage upload %s: %w", uploadID, err)
	}

	s.recordActivity(ctx, userID, ActionUploadAnalyzed, fmt.Sprintf(
		"upload_id=%s filename=%s transactions=%d anomalies=%d duplicates=%d",
		uploadID, filename, report.TransactionCount, len(report.Anomalies), len(report.Duplicates)))

	log.Info().
		Str("upload_id", uploadID).
		Int("rows", report.TransactionCount).
		Int("anomalies", len(report.Anomalies)).
		Int("duplicates", len(report.Duplicates)).
		Dur("duration", s.now().Sub(start)).
		Msg("Upload analyzed")

	return &UploadResult{
		UploadID:   uploadID,
		Filename:   filename,
		ArchiveURI: archiveURI,
		Encoding:   parsed.Encoding,
		Columns:    parsed.Columns,
		Stats:      parsed.Stats,
		Report:     report,
	}, nil
}

// ConfirmUpload commits a staged report and returns the number of
// transactions written. A staged upload can be confirmed only once.
func (s *Service) ConfirmUpload(ctx context.Context, userID, uploadID string, skipDuplicates bool) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	start := s.now()
	log := opLogger(ctx, "ConfirmUpload", userID)

	upload, err := s.uploads.GetUpload(ctx, userID, uploadID)
	if err != nil {
		return 0, fmt.Errorf("ConfirmUpload: upload %s: %w", uploadID, err)
	}
	if upload.Status == store.UploadStatusConfirmed {
		return 0, domain.NewValidationError(domain.ErrInvalidInput, "upload %s is already confirmed", uploadID)
	}
	if upload.Report == nil {
		return 0, fmt.Errorf("ConfirmUpload: upload %s has no staged report", uploadID)
	}

	committed := CommitReport(upload.Report, skipDuplicates, s.newID)
	if len(committed) > 0 {
		if err := s.transactions.InsertTransactions(ctx, userID, committed); err != nil {
			return 0, fmt.Errorf("ConfirmUpload: insert transactions: %w", err)
		}
	}

	if err := s.uploads.MarkUploadConfirmed(ctx, userID, uploadID, len(committed)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, domain.NewValidationError(domain.ErrInvalidInput, "upload %s was confirmed concurrently", uploadID)
		}
		return 0, fmt.Errorf("ConfirmUpload: mark confirmed: %w", err)
	}

	s.recordActivity(ctx, userID, ActionUploadConfirmed, fmt.Sprintf(
		"upload_id=%s imported=%d skipped=%d", uploadID, len(committed), len(upload.Report.Transactions)-len(committed)))

	log.Info().
		Str("upload_id", uploadID).
		Int("rows", len(committed)).
		Bool("skip_duplicates", skipDuplicates).
		Dur("duration", s.now().Sub(start)).
		Msg("Upload confirmed")

	return len(committed), nil
}

// ConfirmReport commits a report that was never staged, such as one produced
// by the CLI. It returns the number of transactions written.
func (s *Service) ConfirmReport(ctx context.Context, userID string, report *domain.AnalysisReport, skipDuplicates bool) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	if report == nil {
		return 0, domain.NewValidationError(domain.ErrInvalidInput, "report is required")
	}

	committed := CommitReport(report, skipDuplicates, s.newID)
	if len(committed) == 0 {
		return 0, nil
	}
	if err := s.transactions.InsertTransactions(ctx, userID, committed); err != nil {
		return 0, fmt.Errorf("ConfirmReport: insert transactions: %w", err)
	}

	s.recordActivity(ctx, userID, ActionUploadConfirmed, fmt.Sprintf("imported=%d", len(committed)))
	return len(committed), nil
}

// CommitReport turns the report's transactions into store records. Each gets
// a fresh persisted id; batch ids are cleared. Transactions flagged as
// duplicates are left out when skipDuplicates is set.
func CommitReport(report *domain.AnalysisReport, skipDuplicates bool, newID func() string) []domain.Transaction {
	var skip map[int]bool
	if skipDuplicates {
		skip = report.DuplicateBatchIDs()
	}

	out := make([]domain.Transaction, 0, len(report.Transactions))
	for _, tx := range report.Transactions {
		if skip[tx.BatchID] {
			continue
		}
		tx.BatchID = 0
		tx.ID = newID()
		out = append(out, tx)
	}
	return out
}
