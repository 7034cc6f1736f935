package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; month-first wins over day-first for
// ambiguous slash dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"01/02/06",
	"02-01-2006",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// amountReplacer strips currency symbols, grouping separators and spaces.
var amountReplacer = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "", "¥", "",
	",", "", " ", "", "\u00a0", "", "'", "",
)

// CleanStats counts the rows dropped while cleaning a table.
type CleanStats struct {
	Rows              int `json:"rows"`
	Kept              int `json:"kept"`
	InvalidDates      int `json:"invalid_dates"`
	InvalidAmounts    int `json:"invalid_amounts"`
	EmptyDescriptions int `json:"empty_descriptions"`
	Duplicates        int `json:"duplicates"`
	UnknownCategories int `json:"unknown_categories"`
}

// Clean converts table rows into canonical transactions. Rows with an
// unparseable date, an amount that is not a finite float64, or an empty
// description are dropped. Rows
// repeating an earlier (date, description, amount) triple are dropped too.
// BatchID is the 1-based data row number in the source table.
func Clean(table *Table, cols *ColumnMap) ([]domain.Transaction, CleanStats) {
	stats := CleanStats{Rows: len(table.Rows)}
	seen := make(map[string]bool, len(table.Rows))
	txs := make([]domain.Transaction, 0, len(table.Rows))

	for i, rec := range table.Rows {
		date, ok := ParseDate(cols.Value(rec, FieldDate))
		if !ok {
			stats.InvalidDates++
			continue
		}

		amount, ok := rowAmount(rec, cols)
		if !ok {
			stats.InvalidAmounts++
			continue
		}
		value := amount.InexactFloat64()
		if math.IsInf(value, 0) || math.IsNaN(value) {
			stats.InvalidAmounts++
			continue
		}

		desc := strings.TrimSpace(cols.Value(rec, FieldDescription))
		if desc == "" {
			stats.EmptyDescriptions++
			continue
		}

		key := fmt.Sprintf("%s|%s|%s", date.Format(time.RFC3339Nano), desc, amount.String())
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true

		category, known := normalizeCategory(cols.Value(rec, FieldCategory))
		if !known {
			stats.UnknownCategories++
		}

		txs = append(txs, domain.Transaction{
			BatchID:     i + 1,
			Date:        date,
			Description: desc,
			Amount:      value,
			Category:    category,
			Vendor:      cols.Value(rec, FieldVendor),
			Notes:       cols.Value(rec, FieldNotes),
		})
	}

	stats.Kept = len(txs)
	return txs, stats
}

// rowAmount derives the signed amount of a row. With a debit/credit pair a
// non-zero debit wins as an expense, then a present credit is revenue, then a
// zero debit stands. The amount column is the fallback when neither side parses.
func rowAmount(rec []string, cols *ColumnMap) (decimal.Decimal, bool) {
	if cols.HasDebitCredit() {
		debit, debitOK := ParseAmount(cols.Value(rec, FieldDebit))
		if debitOK && !debit.IsZero() {
			return debit.Abs().Neg(), true
		}
		if credit, ok := ParseAmount(cols.Value(rec, FieldCredit)); ok {
			return credit.Abs(), true
		}
		if debitOK {
			return debit.Abs().Neg(), true
		}
	}
	if cols.Has(FieldAmount) {
		return ParseAmount(cols.Value(rec, FieldAmount))
	}
	return decimal.Zero, false
}

// ParseAmount parses a monetary cell. Currency symbols and grouping separators
// are stripped and a parenthesised value is negative.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseDate parses a date cell against the supported layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeCategory maps a category cell onto the known vocabulary,
// ignoring case. An empty cell is absent; an unknown one is absent and reported.
func normalizeCategory(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	for _, c := range domain.Categories {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}
