package forecast

import (
	"context"
	"math"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
)

// z for a two-sided 80% interval
const intervalZ = 1.2816

// LinearEngine fits a least-squares trend to daily expense totals and wraps it
// in a constant residual band. It needs no external service.
type LinearEngine struct{}

// Forecast implements Engine.
func (LinearEngine) Forecast(ctx context.Context, series []Point, horizonDays int) ([]domain.ForecastPoint, error) {
	if len(series) < 2 {
		return nil, ErrForecastUnavailable
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	origin := dayOf(series[0].Date)
	totals := make(map[int]float64)
	var days []int
	for _, p := range series {
		x := daysBetween(origin, dayOf(p.Date))
		if _, ok := totals[x]; !ok {
			days = append(days, x)
		}
		totals[x] += p.Value
	}

	slope, intercept := fitLine(days, totals)

	var resid float64
	for _, x := range days {
		r := totals[x] - (intercept + slope*float64(x))
		resid += r * r
	}
	band := 0.0
	if len(days) > 2 {
		band = intervalZ * math.Sqrt(resid/float64(len(days)-2))
	}

	dates := futureDates(series[len(series)-1].Date, horizonDays)
	out := make([]domain.ForecastPoint, len(dates))
	for i, d := range dates {
		yhat := intercept + slope*float64(daysBetween(origin, d))
		// spend never goes below zero
		out[i] = domain.ForecastPoint{
			Date:      d,
			Predicted: math.Max(yhat, 0),
			Lower:     math.Max(yhat-band, 0),
			Upper:     math.Max(yhat+band, 0),
		}
	}
	return out, nil
}

// fitLine is ordinary least squares over (day, total). A single distinct day
// gives a flat line at its total.
func fitLine(days []int, totals map[int]float64) (slope, intercept float64) {
	n := float64(len(days))
	var sx, sy float64
	for _, x := range days {
		sx += float64(x)
		sy += totals[x]
	}
	mx, my := sx/n, sy/n

	var sxx, sxy float64
	for _, x := range days {
		dx := float64(x) - mx
		sxx += dx * dx
		sxy += dx * (totals[x] - my)
	}
	if sxx == 0 {
		return 0, my
	}
	slope = sxy / sxx
	return slope, my - slope*mx
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
