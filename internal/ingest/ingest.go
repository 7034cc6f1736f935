// Package ingest turns an uploaded delimited table into canonical transactions.
package ingest

import (
	"context"
	"io"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/logger"
)

// Result is the outcome of ingesting one upload.
type Result struct {
	Transactions []domain.Transaction
	Columns      map[string]Field
	Encoding     string
	Stats        CleanStats
}

// Parse reads, maps and cleans an uploaded table. Any ValidationError rejects
// the whole upload; row defects only show up in Stats.
func Parse(ctx context.Context, r io.Reader, maxBytes int64) (*Result, error) {
	log := logger.FromContext(ctx)

	table, err := ReadTable(r, maxBytes)
	if err != nil {
		return nil, err
	}

	cols, err := MapColumns(table.Header)
	if err != nil {
		return nil, err
	}

	txs, stats := Clean(table, cols)

	log.Debug().
		Str("encoding", table.Encoding).
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("invalid_dates", stats.InvalidDates).
		Int("invalid_amounts", stats.InvalidAmounts).
		Int("duplicates", stats.Duplicates).
		Msg("Cleaned uploaded table")

	return &Result{
		Transactions: txs,
		Columns:      cols.Headers(),
		Encoding:     table.Encoding,
		Stats:        stats,
	}, nil
}
