package ingest

import (
	"strings"

	"github.com/dvloznov/finsight/internal/domain"
)

// Field is a canonical column name.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldCategory    Field = "category"
	FieldVendor      Field = "vendor"
	FieldNotes       Field = "notes"
)

// columnSynonyms lists the accepted headers per canonical field, lowercased.
var columnSynonyms = []struct {
	field    Field
	synonyms []string
}{
	{FieldDate, []string{"date", "transaction date", "txn date", "transaction_date", "txn_date", "datetime"}},
	{FieldDescription, []string{"description", "desc", "details", "transaction details", "particulars"}},
	{FieldAmount, []string{"amount", "value", "transaction amount", "txn amount"}},
	{FieldDebit, []string{"debit", "debit amount", "withdrawal", "withdrawals", "paid out", "money out"}},
	{FieldCredit, []string{"credit", "credit amount", "deposit", "deposits", "paid in", "money in"}},
	{FieldCategory, []string{"category", "type", "transaction type", "txn type"}},
	{FieldVendor, []string{"vendor", "merchant", "payee", "supplier"}},
	{FieldNotes, []string{"notes", "memo", "remarks", "comments"}},
}

// ColumnMap maps canonical fields to column positions of one table.
type ColumnMap struct {
	index   map[Field]int
	headers map[string]Field
}

// MapColumns resolves table headers to canonical fields. Matching is
// case-insensitive on trimmed headers and the first header matching a field wins.
// A table without date, description and either amount or a debit/credit pair
// is rejected.
func MapColumns(headers []string) (*ColumnMap, error) {
	m := &ColumnMap{
		index:   make(map[Field]int),
		headers: make(map[string]Field),
	}

	for i, h := range headers {
		field, ok := lookupField(h)
		if !ok {
			continue
		}
		if _, taken := m.index[field]; taken {
			continue
		}
		m.index[field] = i
		m.headers[h] = field
	}

	var missing []string
	for _, f := range []Field{FieldDate, FieldDescription} {
		if !m.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if !m.Has(FieldAmount) && !m.HasDebitCredit() {
		missing = append(missing, string(FieldAmount))
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(domain.ErrMissingColumns, "%s", strings.Join(missing, ", "))
	}

	return m, nil
}

func lookupField(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	for _, entry := range columnSynonyms {
		for _, s := range entry.synonyms {
			if h == s {
				return entry.field, true
			}
		}
	}
	return "", false
}

// Has reports whether the table carries a column for f.
func (m *ColumnMap) Has(f Field) bool {
	_, ok := m.index[f]
	return ok
}

// HasDebitCredit reports whether both a debit and a credit column are present.
func (m *ColumnMap) HasDebitCredit() bool {
	return m.Has(FieldDebit) && m.Has(FieldCredit)
}

// Headers returns the original header to canonical field mapping.
func (m *ColumnMap) Headers() map[string]Field {
	out := make(map[string]Field, len(m.headers))
	for k, v := range m.headers {
		out[k] = v
	}
	return out
}

// Value returns the trimmed cell for f, or "" when the column is absent or the
// record is short.
func (m *ColumnMap) Value(record []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
