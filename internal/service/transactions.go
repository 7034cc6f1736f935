package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/finsight/internal/analysis"
	"github.com/dvloznov/finsight/internal/domain"
)

// NewTransaction is a manually entered transaction.
type NewTransaction struct {
	Date        time.Time
	Description string
	Amount      float64
	Category    string
	Vendor      string
	Notes       string
}

// AddTransaction validates and stores one transaction. A zero date means
// today; a missing category or vendor is derived from the description.
func (s *Service) AddTransaction(ctx context.Context, userID string, in NewTransaction) (*domain.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "description is required")
	}
	if in.Amount == 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "amount must be a non-zero number")
	}
	category := strings.TrimSpace(in.Category)
	if category != "" && !domain.IsKnownCategory(category) {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "unknown category %q", category)
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	y, m, d := date.Date()

	tx := domain.Transaction{
		ID:          s.newID(),
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      in.Amount,
		Category:    category,
		Vendor:      strings.TrimSpace(in.Vendor),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if tx.Category == "" {
		tx.Category = analysis.NewCategorizer(s.opts.Pipeline.Categorizer).Predict(description).Category
	}
	if tx.Vendor == "" {
		tx.Vendor = analysis.ExtractVendor(description)
	}

	if err := s.transactions.InsertTransactions(ctx, userID, []domain.Transaction{tx}); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	s.recordActivity(ctx, userID, ActionAddTransaction, fmt.Sprintf(
		"id=%s amount=%.2f category=%s description=%s", tx.ID, tx.Amount, tx.Category, tx.Description))

	return &tx, nil
}

// ListTransactions returns up to limit transactions, newest first. limit <= 0 means all.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	txs, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// DeleteTransaction removes one of the user's transactions.
func (s *Service) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if transactionID == "" {
		return domain.NewValidationError(domain.ErrInvalidInput, "transaction id is required")
	}
	if err := s.transactions.DeleteTransaction(ctx, userID, transactionID); err != nil {
		return fmt.Errorf("DeleteTransaction: %s: %w", transactionID, err)
	}
	s.recordActivity(ctx, userID, ActionDeleteTransaction, "id="+transactionID)
	return nil
}
