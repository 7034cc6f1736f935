package bigquery

import (
	"testing"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRow_RoundTrip(t *testing.T) {
	tx := domain.Transaction{
		ID:          "tx-1",
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "AWS Monthly Bill",
		Amount:      -500.25,
		Category:    domain.CategoryCloudServices,
		Vendor:      "AWS Monthly",
	}
	created := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)

	row := NewTransactionRow("alice", tx, created)

	assert.Equal(t, "alice", row.UserID)
	assert.Equal(t, "2024-01-05", row.TransactionDate.String())
	assert.Equal(t, "-500.25", row.Amount.FloatString(2))
	assert.True(t, row.Category.Valid)
	assert.False(t, row.Notes.Valid)

	assert.Equal(t, tx, row.ToDomain())
}

func TestUploadRow_ToStore(t *testing.T) {
	row := &UploadRow{
		UploadID:          "up-1",
		UserID:            "alice",
		Filename:          "jan.csv",
		Status:            store.UploadStatusAnalyzed,
		TotalTransactions: 2,
		ReportJSON:        `{"transaction_count":2,"transactions":[],"summary":{"total_amount":-10}}`,
	}

	u, err := row.toStore()
	require.NoError(t, err)

	assert.Equal(t, 2, u.TotalTransactions)
	assert.Nil(t, u.ConfirmedAt)
	require.NotNil(t, u.Report)
	assert.Equal(t, 2, u.Report.TransactionCount)
	assert.Equal(t, -10.0, u.Report.Summary.TotalAmount)

	row.ReportJSON = "{"
	_, err = row.toStore()
	assert.Error(t, err)
}

func TestQualifiedTable(t *testing.T) {
	assert.Equal(t, "`proj.finance.transactions`", qualifiedTable("proj", "finance", transactionsTable))
}
