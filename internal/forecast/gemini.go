package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for forecasting.
const DefaultModelName = "gemini-2.5-flash"

// contentGenerator is the subset of genai.Models the engine calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiEngine asks a Gemini model to extrapolate the expense series.
type GeminiEngine struct {
	models contentGenerator
	model  string
}

// NewGeminiEngine creates a GenAI client from the environment
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiEngine(ctx context.Context, model string) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiEngine: create genai client: %w", err)
	}
	return newGeminiEngine(client.Models, model), nil
}

func newGeminiEngine(models contentGenerator, model string) *GeminiEngine {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiEngine{models: models, model: model}
}

type modelPoint struct {
	Date      string   `json:"date"`
	Predicted *float64 `json:"predicted"`
	Lower     *float64 `json:"lower"`
	Upper     *float64 `json:"upper"`
}

// Forecast implements Engine.
func (e *GeminiEngine) Forecast(ctx context.Context, series []Point, horizonDays int) ([]domain.ForecastPoint, error) {
	if len(series) < 2 {
		return nil, ErrForecastUnavailable
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	dates := futureDates(series[len(series)-1].Date, horizonDays)
	prompt := buildPrompt(series, dates[0], dates[len(dates)-1], horizonDays)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("GeminiEngine.Forecast: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("GeminiEngine.Forecast: empty response from model")
	}

	var parsed []modelPoint
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("GeminiEngine.Forecast: unmarshal JSON: %w", err)
	}

	return alignPoints(parsed, dates)
}

// alignPoints maps model rows onto the expected dates. Every date must be
// present exactly once with all three values; the bounds are widened to
// enclose the prediction if the model got them inverted.
func alignPoints(parsed []modelPoint, dates []time.Time) ([]domain.ForecastPoint, error) {
	byDate := make(map[string]modelPoint, len(parsed))
	for _, p := range parsed {
		if p.Predicted == nil || p.Lower == nil || p.Upper == nil {
			return nil, fmt.Errorf("GeminiEngine.Forecast: incomplete point for %q", p.Date)
		}
		byDate[strings.TrimSpace(p.Date)] = p
	}

	out := make([]domain.ForecastPoint, len(dates))
	for i, d := range dates {
		key := d.Format("2006-01-02")
		p, ok := byDate[key]
		if !ok {
			return nil, fmt.Errorf("GeminiEngine.Forecast: missing prediction for %s", key)
		}
		fp := domain.ForecastPoint{Date: d, Predicted: *p.Predicted, Lower: *p.Lower, Upper: *p.Upper}
		if fp.Lower > fp.Upper {
			fp.Lower, fp.Upper = fp.Upper, fp.Lower
		}
		if fp.Predicted < fp.Lower {
			fp.Lower = fp.Predicted
		}
		if fp.Predicted > fp.Upper {
			fp.Upper = fp.Predicted
		}
		out[i] = fp
	}
	return out, nil
}

func buildPrompt(series []Point, first, last time.Time, horizonDays int) string {
	var b strings.Builder
	b.WriteString("You are a time-series forecaster for company expenses.\n\n")
	b.WriteString("Input: daily observations of unsigned expense amounts as CSV (date,amount).\n")
	b.WriteString("Several observations may share a date.\n\n")
	b.WriteString("date,amount\n")
	for _, p := range series {
		fmt.Fprintf(&b, "%s,%.2f\n", p.Date.Format("2006-01-02"), p.Value)
	}
	fmt.Fprintf(&b, "\nTask:\n- Forecast the expense level for each of the %d days from %s to %s inclusive.\n",
		horizonDays, first.Format("2006-01-02"), last.Format("2006-01-02"))
	b.WriteString("- Give an 80% uncertainty interval for every day.\n\n")
	b.WriteString("Each object must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"- \"predicted\": number\n" +
		"- \"lower\": number\n" +
		"- \"upper\": number\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// keep only the outermost array
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
