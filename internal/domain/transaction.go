package domain

import (
	"time"
)

// Transaction is the canonical transaction record every analysis stage works on.
// BatchID identifies the row within one analysis run and is never persisted;
// ID is the store's primary key and is only set once a transaction is committed.
type Transaction struct {
	BatchID     int       `json:"batch_id"`
	ID          string    `json:"id,omitempty"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"` // negative = expense, positive = revenue
	Category    string    `json:"category,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// SameDay reports whether both transactions fall on the same calendar date.
func (t Transaction) SameDay(other Transaction) bool {
	y1, m1, d1 := t.Date.Date()
	y2, m2, d2 := other.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
