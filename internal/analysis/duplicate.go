package analysis

import (
	"math"
	"strings"

	"github.com/dvloznov/finsight/internal/domain"
)

// Defaults for duplicate detection.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultAmountTolerance     = 0.01
)

// DuplicateOptions sets the similarity cutoff and amount tolerance.
type DuplicateOptions struct {
	Similarity      float64
	AmountTolerance float64
}

// DefaultDuplicateOptions returns the stock thresholds.
func DefaultDuplicateOptions() DuplicateOptions {
	return DuplicateOptions{
		Similarity:      DefaultSimilarityThreshold,
		AmountTolerance: DefaultAmountTolerance,
	}
}

// DetectDuplicates flags new transactions that probably already exist.
// A candidate shares the calendar date, differs in amount by less than the
// tolerance and has a description similarity above the cutoff. The first
// qualifying existing transaction wins.
func DetectDuplicates(batch, existing []domain.Transaction, opts DuplicateOptions) []domain.DuplicateFinding {
	var findings []domain.DuplicateFinding

	for _, tx := range batch {
		for _, ex := range existing {
			if !tx.SameDay(ex) || math.Abs(tx.Amount-ex.Amount) >= opts.AmountTolerance {
				continue
			}
			sim := Jaccard(tx.Description, ex.Description)
			if sim > opts.Similarity {
				findings = append(findings, domain.DuplicateFinding{
					Transaction:       tx,
					MatchedExistingID: ex.ID,
					Similarity:        sim,
				})
				break
			}
		}
	}

	return findings
}

// Jaccard returns the Jaccard index of the lowercase whitespace-separated
// word sets of a and b, or 0 when either has no words.
func Jaccard(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
