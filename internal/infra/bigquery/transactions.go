package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Description     string     `bigquery:"description"`      // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC

	Category bigquery.NullString `bigquery:"category"` // NULLABLE
	Vendor   bigquery.NullString `bigquery:"vendor"`   // NULLABLE
	Notes    bigquery.NullString `bigquery:"notes"`    // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// NewTransactionRow converts a domain transaction for insertion.
func NewTransactionRow(userID string, tx domain.Transaction, created time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          userID,
		TransactionDate: civil.DateOf(tx.Date),
		Description:     tx.Description,
		Amount:          decimal.NewFromFloat(tx.Amount).Rat(),
		Category:        nullString(tx.Category),
		Vendor:          nullString(tx.Vendor),
		Notes:           nullString(tx.Notes),
		CreatedTS:       created,
	}
}

// ToDomain converts the row back to a domain transaction.
func (r *TransactionRow) ToDomain() domain.Transaction {
	var amount float64
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}
	return domain.Transaction{
		ID:          r.TransactionID,
		Date:        r.TransactionDate.In(time.UTC),
		Description: r.Description,
		Amount:      amount,
		Category:    r.Category.StringVal,
		Vendor:      r.Vendor.StringVal,
		Notes:       r.Notes.StringVal,
	}
}
