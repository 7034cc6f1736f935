package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonths_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   Months
		want string
	}{
		{name: "finite", in: Months(10), want: "10"},
		{name: "fractional", in: Months(4.7), want: "4.7"},
		{name: "infinite", in: InfiniteRunway, want: `"infinite"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back Months
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.in.IsInfinite(), back.IsInfinite())
			if !tt.in.IsInfinite() {
				assert.InDelta(t, float64(tt.in), float64(back), 1e-9)
			}
		})
	}
}

func TestMonths_String(t *testing.T) {
	assert.Equal(t, "infinite", InfiniteRunway.String())
	assert.Equal(t, "10.0", Months(10).String())
}

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("AnalyzeUpload: %w", NewValidationError(ErrMissingColumns, "missing %s", "date"))

	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.False(t, errors.Is(err, ErrFileTooLarge))
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "missing required columns: missing date")
}

func TestTransaction_SameDay(t *testing.T) {
	a := Transaction{Date: mustDate(t, "2024-01-05T09:00:00Z")}
	b := Transaction{Date: mustDate(t, "2024-01-05T23:30:00Z")}
	c := Transaction{Date: mustDate(t, "2024-02-05T09:00:00Z")}

	assert.True(t, a.SameDay(b))
	assert.False(t, a.SameDay(c))
}

func TestIsKnownCategory(t *testing.T) {
	assert.True(t, IsKnownCategory("Cloud Services"))
	assert.False(t, IsKnownCategory("cloud services"))
	assert.False(t, IsKnownCategory(""))
}
