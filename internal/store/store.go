// Package store declares the persistence contracts consumed by the service layer.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository stores confirmed transactions per user.
type TransactionRepository interface {
	// ListTransactions returns every transaction of the user, newest first.
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)

	// InsertTransactions appends transactions. Each must carry a persisted ID.
	InsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error

	// DeleteTransaction removes one transaction, or returns ErrNotFound.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// CashRepository stores the cash-on-hand scalar per user.
type CashRepository interface {
	// GetCashOnHand returns ErrNotFound when the user never set a value.
	GetCashOnHand(ctx context.Context, userID string) (float64, error)
	SetCashOnHand(ctx context.Context, userID string, amount float64) error
}

// ActivityRepository is the audit log sink.
type ActivityRepository interface {
	RecordActivity(ctx context.Context, entry domain.ActivityEntry) error

	// ListActivity returns at most limit entries, newest first. limit <= 0 means all.
	ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error)
}

// UploadRepository stages analyzed uploads until they are confirmed.
type UploadRepository interface {
	InsertUpload(ctx context.Context, upload *Upload) error

	// GetUpload returns ErrNotFound for unknown ids or ids owned by another user.
	GetUpload(ctx context.Context, userID, uploadID string) (*Upload, error)

	MarkUploadConfirmed(ctx context.Context, userID, uploadID string, imported int) error
}

// Repository bundles every contract a backend implements.
type Repository interface {
	TransactionRepository
	CashRepository
	ActivityRepository
	UploadRepository
	Close() error
}

// Upload statuses.
const (
	UploadStatusAnalyzed  = "analyzed"
	UploadStatusConfirmed = "confirmed"
)

// Upload is a staged batch together with its analysis report.
type Upload struct {
	UploadID          string
	UserID            string
	Filename          string
	Status            string
	TotalTransactions int
	ImportedCount     int
	ArchiveURI        string
	Report            *domain.AnalysisReport
	CreatedAt         time.Time
	ConfirmedAt       *time.Time
}
