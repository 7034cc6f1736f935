// Package pipeline sequences the analysis stages over one uploaded batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finsight/internal/analysis"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/logger"
)

// Options carries the tunable thresholds of every stage.
type Options struct {
	Categorizer analysis.CategorizerOptions
	Anomaly     analysis.AnomalyOptions
	Duplicate   analysis.DuplicateOptions
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		Categorizer: analysis.DefaultCategorizerOptions(),
		Anomaly:     analysis.DefaultAnomalyOptions(),
		Duplicate:   analysis.DefaultDuplicateOptions(),
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first error or when
// ctx is cancelled.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d cancelled: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline returns the standard analysis stages. Categorization
// runs before vendor extraction and both run before anomaly detection so that
// later stages see the filled-in fields.
func NewAnalysisPipeline() *Pipeline {
	return NewPipeline(
		&TrainCategorizerStep{},
		&CategorizeStep{},
		&ExtractVendorsStep{},
		&DetectAnomaliesStep{},
		&DetectDuplicatesStep{},
		&SummarizeStep{},
	)
}

// Analyze runs the standard pipeline over a cleaned batch. history may be nil,
// in which case no model is trained and duplicate detection is skipped.
func Analyze(ctx context.Context, batch, history []domain.Transaction, opts Options) (*domain.AnalysisReport, error) {
	start := time.Now()
	state := NewPipelineState(batch, history, opts)

	if err := NewAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("rows", state.Report.TransactionCount).
		Int("category_suggestions", len(state.Report.CategorySuggestions)).
		Int("vendor_suggestions", len(state.Report.VendorSuggestions)).
		Int("anomalies", len(state.Report.Anomalies)).
		Int("duplicates", len(state.Report.Duplicates)).
		Dur("duration", time.Since(start)).
		Msg("analysis complete")

	return state.Report, nil
}
