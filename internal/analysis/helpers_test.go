package analysis

import (
	"testing"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func txn(id int, date time.Time, desc string, amount float64, category string) domain.Transaction {
	return domain.Transaction{
		BatchID:     id,
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    category,
	}
}
