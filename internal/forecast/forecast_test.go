package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestPrepareSeries(t *testing.T) {
	history := []domain.Transaction{
		{Date: day("2024-01-10"), Amount: -300},
		{Date: day("2024-01-02"), Amount: 5000},
		{Date: day("2024-01-01"), Amount: -100},
		{Date: day("2024-01-05"), Amount: -200.5},
	}

	series, err := PrepareSeries(history)
	require.NoError(t, err)
	assert.Equal(t, []Point{
		{Date: day("2024-01-01"), Value: 100},
		{Date: day("2024-01-05"), Value: 200.5},
		{Date: day("2024-01-10"), Value: 300},
	}, series)
}

func TestPrepareSeries_Insufficient(t *testing.T) {
	tests := map[string][]domain.Transaction{
		"empty":        nil,
		"one expense":  {{Date: day("2024-01-01"), Amount: -10}},
		"revenue only": {{Date: day("2024-01-01"), Amount: 10}, {Date: day("2024-01-02"), Amount: 20}},
	}
	for name, history := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := PrepareSeries(history)
			assert.ErrorIs(t, err, ErrForecastUnavailable)
			assert.ErrorIs(t, err, domain.ErrInsufficientData)
		})
	}
}

func TestLinearEngine_Trend(t *testing.T) {
	series := []Point{
		{Date: day("2024-01-01"), Value: 100},
		{Date: day("2024-01-02"), Value: 110},
		{Date: day("2024-01-03"), Value: 120},
	}

	got, err := LinearEngine{}.Forecast(context.Background(), series, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, want := range []float64{130, 140, 150} {
		assert.Equal(t, day("2024-01-04").AddDate(0, 0, i), got[i].Date)
		assert.InDelta(t, want, got[i].Predicted, 1e-9)
		assert.InDelta(t, want, got[i].Lower, 1e-9, "perfect fit has no band")
		assert.InDelta(t, want, got[i].Upper, 1e-9)
	}
}

func TestLinearEngine_SameDayTotals(t *testing.T) {
	series := []Point{
		{Date: day("2024-01-01"), Value: 40},
		{Date: day("2024-01-01"), Value: 60},
	}

	got, err := LinearEngine{}.Forecast(context.Background(), series, 0)
	require.NoError(t, err)
	require.Len(t, got, DefaultHorizonDays)
	assert.InDelta(t, 100, got[0].Predicted, 1e-9)
	assert.InDelta(t, 100, got[DefaultHorizonDays-1].Predicted, 1e-9)
}

func TestLinearEngine_Band(t *testing.T) {
	series := []Point{
		{Date: day("2024-01-01"), Value: 100},
		{Date: day("2024-01-02"), Value: 300},
		{Date: day("2024-01-03"), Value: 100},
		{Date: day("2024-01-04"), Value: 300},
	}

	got, err := LinearEngine{}.Forecast(context.Background(), series, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Less(t, got[0].Lower, got[0].Predicted)
	assert.Greater(t, got[0].Upper, got[0].Predicted)
}

func TestLinearEngine_ClampsAtZero(t *testing.T) {
	series := []Point{
		{Date: day("2024-01-01"), Value: 300},
		{Date: day("2024-01-02"), Value: 200},
		{Date: day("2024-01-03"), Value: 100},
	}

	got, err := LinearEngine{}.Forecast(context.Background(), series, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
	}
	assert.Zero(t, got[4].Predicted)
}

type mockGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: s}}}},
		},
	}
}

func TestGeminiEngine_Forecast(t *testing.T) {
	var gotModel, gotPrompt string
	gen := &mockGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			gotPrompt = contents[0].Parts[0].Text
			return textResponse("```json\n" +
				`[{"date":"2024-01-04","predicted":130,"lower":120,"upper":140},` +
				`{"date":"2024-01-05","predicted":135,"lower":150,"upper":125}]` +
				"\n```"), nil
		},
	}
	engine := newGeminiEngine(gen, "")

	series := []Point{
		{Date: day("2024-01-01"), Value: 100},
		{Date: day("2024-01-03"), Value: 120},
	}
	got, err := engine.Forecast(context.Background(), series, 2)
	require.NoError(t, err)

	assert.Equal(t, DefaultModelName, gotModel)
	assert.Contains(t, gotPrompt, "2024-01-01,100.00\n")
	assert.Contains(t, gotPrompt, "from 2024-01-04 to 2024-01-05")

	require.Len(t, got, 2)
	assert.Equal(t, domain.ForecastPoint{Date: day("2024-01-04"), Predicted: 130, Lower: 120, Upper: 140}, got[0])
	assert.Equal(t, domain.ForecastPoint{Date: day("2024-01-05"), Predicted: 135, Lower: 125, Upper: 150}, got[1])
}

func TestGeminiEngine_Errors(t *testing.T) {
	series := []Point{
		{Date: day("2024-01-01"), Value: 100},
		{Date: day("2024-01-02"), Value: 120},
	}

	tests := []struct {
		name    string
		text    string
		genErr  error
		wantMsg string
	}{
		{name: "generate error", genErr: errors.New("quota"), wantMsg: "quota"},
		{name: "empty", text: "", wantMsg: "empty response"},
		{name: "not json", text: "I cannot forecast that", wantMsg: "unmarshal JSON"},
		{name: "missing day", text: `[{"date":"2024-01-03","predicted":1,"lower":0,"upper":2}]`, wantMsg: "missing prediction for 2024-01-04"},
		{name: "incomplete", text: `[{"date":"2024-01-03","predicted":1}]`, wantMsg: "incomplete point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newGeminiEngine(&mockGenerator{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					if tt.genErr != nil {
						return nil, tt.genErr
					}
					return textResponse(tt.text), nil
				},
			}, "gemini-test")

			_, err := engine.Forecast(context.Background(), series, 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"[1,2]", "[1,2]"},
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[1]\n```", "[1]"},
		{"Here you go: [1, 2] hope it helps", "[1, 2]"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt([]Point{{Date: day("2024-01-01"), Value: 12.5}}, day("2024-01-02"), day("2024-06-29"), 180)
	assert.True(t, strings.HasPrefix(p, "You are a time-series forecaster"))
	assert.Contains(t, p, "2024-01-01,12.50")
	assert.Contains(t, p, "each of the 180 days")
}
