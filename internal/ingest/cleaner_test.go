package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanCSV(t *testing.T, input string) ([]domain.Transaction, CleanStats) {
	t.Helper()
	table, err := ReadTable(strings.NewReader(input), 0)
	require.NoError(t, err)
	cols, err := MapColumns(table.Header)
	require.NoError(t, err)
	return Clean(table, cols)
}

func TestClean_DebitCredit(t *testing.T) {
	input := "date,description,debit,credit\n" +
		"2024-01-05,Office chairs,120,\n" +
		"2024-01-06,Client payment,,75\n" +
		"2024-01-07,Refund,0.00,30\n" +
		"2024-01-08,Waived fee,0,\n"

	txs, stats := cleanCSV(t, input)

	require.Len(t, txs, 4)
	assert.Equal(t, -120.0, txs[0].Amount)
	assert.Equal(t, 75.0, txs[1].Amount)
	assert.Equal(t, 30.0, txs[2].Amount)
	assert.Equal(t, "Waived fee", txs[3].Description)
	assert.Zero(t, txs[3].Amount)
	assert.Equal(t, 4, stats.Kept)
	assert.Zero(t, stats.InvalidAmounts)
}

func TestClean_DropsDefectiveRows(t *testing.T) {
	input := "date,description,amount\n" +
		"2024-01-05,AWS Monthly Bill,-500\n" +
		"not a date,Broken,-10\n" +
		"2024-01-06,Broken amount,abc\n" +
		"2024-01-07,   ,-10\n" +
		"2024-01-05,AWS Monthly Bill,-500.00\n" +
		"2024-01-08,Stripe payout,\"₹1,50,000\"\n" +
		"2024-01-09,Huge,1e400\n" +
		"2024-01-10,Huge refund,-1e400\n"

	txs, stats := cleanCSV(t, input)

	require.Len(t, txs, 2)
	assert.Equal(t, "AWS Monthly Bill", txs[0].Description)
	assert.Equal(t, 1, txs[0].BatchID)
	assert.Equal(t, 150000.0, txs[1].Amount)
	assert.Equal(t, 6, txs[1].BatchID)

	assert.Equal(t, 1, stats.InvalidDates)
	assert.Equal(t, 3, stats.InvalidAmounts)
	assert.Equal(t, 1, stats.EmptyDescriptions)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestClean_NoDuplicateTriples(t *testing.T) {
	input := "date,description,amount\n" +
		"2024-01-05,A,-1\n2024-01-05,A,-1\n2024-01-05,A,-2\n2024-01-06,A,-1\n2024-01-05,B,-1\n"

	txs, _ := cleanCSV(t, input)

	seen := map[string]bool{}
	for _, tx := range txs {
		key := fmt.Sprintf("%s|%s|%.2f", tx.Date.Format(time.DateOnly), tx.Description, tx.Amount)
		assert.False(t, seen[key], "duplicate triple %v", tx)
		seen[key] = true
	}
	assert.Len(t, txs, 4)
}

func TestClean_OptionalColumns(t *testing.T) {
	input := "Transaction Date,Details,Value,Category,Payee,Remarks\n" +
		"2024-03-01,Figma seat,-45,software,Figma,design team\n" +
		"2024-03-02,Team lunch,-80,Food,,\n"

	txs, stats := cleanCSV(t, input)

	require.Len(t, txs, 2)
	assert.Equal(t, domain.CategorySoftware, txs[0].Category)
	assert.Equal(t, "Figma", txs[0].Vendor)
	assert.Equal(t, "design team", txs[0].Notes)
	assert.Empty(t, txs[1].Category)
	assert.Equal(t, 1, stats.UnknownCategories)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"-500", "-500", true},
		{"$1,200.50", "1200.5", true},
		{"€ 99", "99", true},
		{"(250.00)", "-250", true},
		{"120-", "-120", true},
		{"£-3.5", "-3.5", true},
		{"", "", false},
		{"abc", "", false},
		{"NaN", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-05", "2024/01/05", "01/05/2024", "05 Jan 2024", "Jan 5, 2024", "20240105"} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	input := "date,description,amount\n2024-01-05,AWS Monthly Bill,-500\n"

	res, err := Parse(context.Background(), strings.NewReader(input), DefaultMaxBytes)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, FieldAmount, res.Columns["amount"])

	_, err = Parse(context.Background(), strings.NewReader("foo,bar\n1,2\n"), DefaultMaxBytes)
	assert.True(t, domain.IsValidationError(err))
}
