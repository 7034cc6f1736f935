package ingest

import (
	"errors"
	"testing"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[string]Field
		wantErr bool
	}{
		{
			name:    "canonical headers",
			headers: []string{"Date", "Description", "Amount"},
			want: map[string]Field{
				"Date":        FieldDate,
				"Description": FieldDescription,
				"Amount":      FieldAmount,
			},
		},
		{
			name:    "synonyms with padding and case",
			headers: []string{" Txn Date ", "PARTICULARS", "Transaction Amount", "Merchant", "Memo", "Type"},
			want: map[string]Field{
				" Txn Date ":         FieldDate,
				"PARTICULARS":        FieldDescription,
				"Transaction Amount": FieldAmount,
				"Merchant":           FieldVendor,
				"Memo":               FieldNotes,
				"Type":               FieldCategory,
			},
		},
		{
			name:    "first match wins",
			headers: []string{"date", "datetime", "desc", "details", "value"},
			want: map[string]Field{
				"date":  FieldDate,
				"desc":  FieldDescription,
				"value": FieldAmount,
			},
		},
		{
			name:    "debit credit pair replaces amount",
			headers: []string{"date", "description", "debit", "credit"},
			want: map[string]Field{
				"date":        FieldDate,
				"description": FieldDescription,
				"debit":       FieldDebit,
				"credit":      FieldCredit,
			},
		},
		{
			name:    "missing amount",
			headers: []string{"date", "description", "debit"},
			wantErr: true,
		},
		{
			name:    "missing date",
			headers: []string{"description", "amount"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := MapColumns(tt.headers)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrMissingColumns))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cols.Headers())
		})
	}
}

func TestColumnMap_Value(t *testing.T) {
	cols, err := MapColumns([]string{"date", "description", "amount", "notes"})
	require.NoError(t, err)

	assert.Equal(t, "Coffee", cols.Value([]string{"2024-01-01", "  Coffee ", "3"}, FieldDescription))
	assert.Equal(t, "", cols.Value([]string{"2024-01-01", "Coffee", "3"}, FieldNotes))
	assert.Equal(t, "", cols.Value([]string{"2024-01-01"}, FieldVendor))
}
