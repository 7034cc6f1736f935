package analysis

import (
	"fmt"
	"math"

	"github.com/dvloznov/finsight/internal/domain"
)

// Defaults for anomaly detection.
const (
	DefaultMinAnomalyRows     = 5
	DefaultGlobalZThreshold   = 3.0
	DefaultCategoryZThreshold = 2.5
)

// AnomalyOptions sets the batch minimum and the z-score cutoffs.
type AnomalyOptions struct {
	MinRows   int
	GlobalZ   float64
	CategoryZ float64
}

// DefaultAnomalyOptions returns the stock thresholds.
func DefaultAnomalyOptions() AnomalyOptions {
	return AnomalyOptions{
		MinRows:   DefaultMinAnomalyRows,
		GlobalZ:   DefaultGlobalZThreshold,
		CategoryZ: DefaultCategoryZThreshold,
	}
}

// DetectAnomalies flags unusual transactions in two passes: unsigned amounts
// against the whole batch, then signed amounts against their own category.
// A transaction may be reported by both passes. Batches below MinRows yield
// no findings; a pass is skipped where the standard deviation is zero.
func DetectAnomalies(txs []domain.Transaction, opts AnomalyOptions) []domain.AnomalyFinding {
	if len(txs) < opts.MinRows {
		return nil
	}

	var findings []domain.AnomalyFinding

	unsigned := make([]float64, len(txs))
	for i, tx := range txs {
		unsigned[i] = math.Abs(tx.Amount)
	}
	if mean, std, ok := meanStd(unsigned); ok && std > 0 {
		for i, tx := range txs {
			z := math.Abs(unsigned[i]-mean) / std
			if z > opts.GlobalZ {
				findings = append(findings, domain.AnomalyFinding{
					Transaction: tx,
					Kind:        domain.AnomalyUnusualAmount,
					Explanation: fmt.Sprintf("Amount is %.1f standard deviations from mean", z),
					ZScore:      z,
				})
			}
		}
	}

	type catStats struct{ mean, std float64 }
	byCategory := make(map[string][]float64)
	for _, tx := range txs {
		if tx.Category == "" {
			continue
		}
		byCategory[tx.Category] = append(byCategory[tx.Category], tx.Amount)
	}
	stats := make(map[string]catStats, len(byCategory))
	for cat, amounts := range byCategory {
		if mean, std, ok := meanStd(amounts); ok && std > 0 {
			stats[cat] = catStats{mean: mean, std: std}
		}
	}

	for _, tx := range txs {
		s, ok := stats[tx.Category]
		if !ok {
			continue
		}
		z := math.Abs(tx.Amount-s.mean) / s.std
		if z > opts.CategoryZ {
			findings = append(findings, domain.AnomalyFinding{
				Transaction: tx,
				Kind:        domain.AnomalyUnusualForCategory,
				Explanation: fmt.Sprintf("Unusual amount for %s category", tx.Category),
				ZScore:      z,
			})
		}
	}

	return findings
}
