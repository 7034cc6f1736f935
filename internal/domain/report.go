package domain

import (
	"time"
)

// AnomalyKind tags which detection pass produced a finding.
type AnomalyKind string

const (
	AnomalyUnusualAmount      AnomalyKind = "unusual_amount"
	AnomalyUnusualForCategory AnomalyKind = "unusual_for_category"
)

// CategorySuggestion records a category filled in by the categorizer.
type CategorySuggestion struct {
	TransactionID     int     `json:"transaction_id"`
	Description       string  `json:"description"`
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
}

// VendorSuggestion records a vendor filled in by the vendor extractor.
type VendorSuggestion struct {
	TransactionID   int    `json:"transaction_id"`
	Description     string `json:"description"`
	ExtractedVendor string `json:"extracted_vendor"`
}

// AnomalyFinding flags a statistically unusual transaction.
type AnomalyFinding struct {
	Transaction Transaction `json:"transaction"`
	Kind        AnomalyKind `json:"anomaly_kind"`
	Explanation string      `json:"explanation"`
	ZScore      float64     `json:"z_score"`
}

// DuplicateFinding flags a new transaction that probably already exists in the history.
type DuplicateFinding struct {
	Transaction       Transaction `json:"transaction"`
	MatchedExistingID string      `json:"matched_existing_id"`
	Similarity        float64     `json:"similarity_score"`
}

// DateRange is the inclusive span of transaction dates in a batch.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary holds the batch-level aggregates of an analysis run.
type Summary struct {
	TotalAmount    float64        `json:"total_amount"`
	TotalExpenses  float64        `json:"total_expenses"`
	TotalRevenue   float64        `json:"total_revenue"`
	CategoryCounts map[string]int `json:"category_counts"`
	DateRange      *DateRange     `json:"date_range,omitempty"`
}

// AnalysisReport is the output of one analysis run over an uploaded batch.
// Transactions carries the batch with category and vendor filled in so that a
// caller can commit it once the report is confirmed.
type AnalysisReport struct {
	TransactionCount    int                  `json:"transaction_count"`
	Transactions        []Transaction        `json:"transactions"`
	CategorySuggestions []CategorySuggestion `json:"categorization_suggestions"`
	VendorSuggestions   []VendorSuggestion   `json:"vendor_suggestions"`
	Anomalies           []AnomalyFinding     `json:"anomalies"`
	Duplicates          []DuplicateFinding   `json:"duplicates"`
	Summary             Summary              `json:"summary"`
}

// DuplicateBatchIDs returns the batch ids of every transaction flagged as a duplicate.
func (r *AnalysisReport) DuplicateBatchIDs() map[int]bool {
	ids := make(map[int]bool, len(r.Duplicates))
	for _, d := range r.Duplicates {
		ids[d.Transaction.BatchID] = true
	}
	return ids
}
