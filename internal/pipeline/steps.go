package pipeline

import (
	"context"

	"github.com/dvloznov/finsight/internal/analysis"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/logger"
)

// PipelineStep represents a single stage of an analysis run.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Options     Options
	Batch       []domain.Transaction
	History     []domain.Transaction
	Categorizer *analysis.Categorizer
	Report      *domain.AnalysisReport
}

// NewPipelineState copies batch so that the caller's slice is left untouched
// while steps fill categories and vendors in place.
func NewPipelineState(batch, history []domain.Transaction, opts Options) *PipelineState {
	owned := make([]domain.Transaction, len(batch))
	copy(owned, batch)
	return &PipelineState{
		Options:     opts,
		Batch:       owned,
		History:     history,
		Categorizer: analysis.NewCategorizer(opts.Categorizer),
		Report: &domain.AnalysisReport{
			CategorySuggestions: []domain.CategorySuggestion{},
			VendorSuggestions:   []domain.VendorSuggestion{},
			Anomalies:           []domain.AnomalyFinding{},
			Duplicates:          []domain.DuplicateFinding{},
		},
	}
}

// TrainCategorizerStep fits the categorizer on the labelled history, if any.
type TrainCategorizerStep struct{}

func (s *TrainCategorizerStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.History) == 0 {
		return nil
	}
	trained := state.Categorizer.Train(state.History)
	log := logger.FromContext(ctx)
	log.Debug().
		Int("history", len(state.History)).
		Bool("trained", trained).
		Msg("categorizer training")
	return nil
}

// CategorizeStep fills missing categories and records a suggestion for each.
type CategorizeStep struct{}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	for i := range state.Batch {
		tx := &state.Batch[i]
		if tx.Category != "" {
			continue
		}
		p := state.Categorizer.Predict(tx.Description)
		tx.Category = p.Category
		state.Report.CategorySuggestions = append(state.Report.CategorySuggestions, domain.CategorySuggestion{
			TransactionID:     tx.BatchID,
			Description:       tx.Description,
			SuggestedCategory: p.Category,
			Confidence:        p.Confidence,
		})
	}
	return nil
}

// ExtractVendorsStep fills missing vendors and records a suggestion for each.
type ExtractVendorsStep struct{}

func (s *ExtractVendorsStep) Execute(ctx context.Context, state *PipelineState) error {
	for i := range state.Batch {
		tx := &state.Batch[i]
		if tx.Vendor != "" {
			continue
		}
		vendor := analysis.ExtractVendor(tx.Description)
		if vendor == "" {
			continue
		}
		tx.Vendor = vendor
		state.Report.VendorSuggestions = append(state.Report.VendorSuggestions, domain.VendorSuggestion{
			TransactionID:   tx.BatchID,
			Description:     tx.Description,
			ExtractedVendor: vendor,
		})
	}
	return nil
}

// DetectAnomaliesStep flags statistical outliers in the categorized batch.
type DetectAnomaliesStep struct{}

func (s *DetectAnomaliesStep) Execute(ctx context.Context, state *PipelineState) error {
	if found := analysis.DetectAnomalies(state.Batch, state.Options.Anomaly); len(found) > 0 {
		state.Report.Anomalies = found
	}
	return nil
}

// DetectDuplicatesStep compares the batch against the history, if any.
type DetectDuplicatesStep struct{}

func (s *DetectDuplicatesStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.History) == 0 {
		return nil
	}
	if found := analysis.DetectDuplicates(state.Batch, state.History, state.Options.Duplicate); len(found) > 0 {
		state.Report.Duplicates = found
	}
	return nil
}

// SummarizeStep computes batch aggregates and attaches the final batch.
type SummarizeStep struct{}

func (s *SummarizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Report.TransactionCount = len(state.Batch)
	state.Report.Transactions = state.Batch
	state.Report.Summary = Summarize(state.Batch)
	return nil
}

// Summarize aggregates totals, category counts and the date span of txs.
func Summarize(txs []domain.Transaction) domain.Summary {
	sum := domain.Summary{CategoryCounts: make(map[string]int)}
	for i, tx := range txs {
		sum.TotalAmount += tx.Amount
		if tx.Amount < 0 {
			sum.TotalExpenses += tx.Amount
		} else if tx.Amount > 0 {
			sum.TotalRevenue += tx.Amount
		}
		if tx.Category != "" {
			sum.CategoryCounts[tx.Category]++
		}

		if i == 0 {
			sum.DateRange = &domain.DateRange{Start: tx.Date, End: tx.Date}
			continue
		}
		if tx.Date.Before(sum.DateRange.Start) {
			sum.DateRange.Start = tx.Date
		}
		if tx.Date.After(sum.DateRange.End) {
			sum.DateRange.End = tx.Date
		}
	}
	return sum
}
