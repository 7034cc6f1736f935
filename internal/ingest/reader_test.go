package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable_Delimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "comma", input: "date,description,amount\n2024-01-05,AWS,-500\n"},
		{name: "semicolon", input: "date;description;amount\n2024-01-05;AWS;-500\n"},
		{name: "tab", input: "date\tdescription\tamount\n2024-01-05\tAWS\t-500\n"},
		{name: "blank lines skipped", input: "date,description,amount\n\n2024-01-05,AWS,-500\n,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable(strings.NewReader(tt.input), 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"date", "description", "amount"}, table.Header)
			require.Len(t, table.Rows, 1)
			assert.Equal(t, []string{"2024-01-05", "AWS", "-500"}, table.Rows[0])
		})
	}
}

func TestReadTable_QuotedAmounts(t *testing.T) {
	input := "date,description,amount\n2024-01-05,\"Rent, March\",\"$1,200.50\"\n"

	table, err := ReadTable(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Rent, March", table.Rows[0][1])
	assert.Equal(t, "$1,200.50", table.Rows[0][2])
}

func TestReadTable_Encodings(t *testing.T) {
	t.Run("utf-8 with BOM", func(t *testing.T) {
		input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,description,amount\n2024-01-05,Café,-5\n")...)
		table, err := ReadTable(bytes.NewReader(input), 0)
		require.NoError(t, err)
		assert.Equal(t, "utf-8", table.Encoding)
		assert.Equal(t, "date", table.Header[0])
		assert.Equal(t, "Café", table.Rows[0][1])
	})

	t.Run("latin-1", func(t *testing.T) {
		input := []byte("date,description,amount\n2024-01-05,Caf\xe9,-5\n")
		table, err := ReadTable(bytes.NewReader(input), 0)
		require.NoError(t, err)
		assert.Equal(t, "iso-8859-1", table.Encoding)
		assert.Equal(t, "Café", table.Rows[0][1])
	})

	t.Run("windows-1252 smart quotes", func(t *testing.T) {
		input := []byte("date,description,amount\n2024-01-05,\x93Quoted\x94 vendor,-5\n")
		table, err := ReadTable(bytes.NewReader(input), 0)
		require.NoError(t, err)
		assert.Equal(t, "windows-1252", table.Encoding)
		assert.Equal(t, "“Quoted” vendor", table.Rows[0][1])
	})

	t.Run("binary rejected", func(t *testing.T) {
		input := []byte("date,description\x00,amount\n\x00\x01\x02\n")
		_, err := ReadTable(bytes.NewReader(input), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedEncoding))
	})
}

func TestReadTable_Limits(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		input := strings.Repeat("a", 101)
		_, err := ReadTable(strings.NewReader(input), 100)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrFileTooLarge))
	})

	t.Run("exactly at limit", func(t *testing.T) {
		input := "date,description,amount\n"
		_, err := ReadTable(strings.NewReader(input), int64(len(input)))
		require.NoError(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("  \n\n"), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmptyUpload))
	})
}
