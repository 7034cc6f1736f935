// Package forecast predicts future expense levels from a transaction history.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
)

// DefaultHorizonDays is how far ahead a forecast reaches by default.
const DefaultHorizonDays = 180

// ErrForecastUnavailable is returned when the history has too few expense points.
var ErrForecastUnavailable = fmt.Errorf("forecast unavailable: %w", domain.ErrInsufficientData)

// Point is one observed expense.
type Point struct {
	Date  time.Time
	Value float64
}

// Engine produces daily predictions for horizonDays days after the last point.
type Engine interface {
	Forecast(ctx context.Context, series []Point, horizonDays int) ([]domain.ForecastPoint, error)
}

// PrepareSeries returns the unsigned expense amounts of history ordered by
// date. Fewer than two points yields ErrForecastUnavailable.
func PrepareSeries(history []domain.Transaction) ([]Point, error) {
	var series []Point
	for _, tx := range history {
		if !tx.IsExpense() {
			continue
		}
		series = append(series, Point{Date: tx.Date, Value: math.Abs(tx.Amount)})
	}
	if len(series) < 2 {
		return nil, ErrForecastUnavailable
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}

// futureDates lists the horizon days following last.
func futureDates(last time.Time, horizonDays int) []time.Time {
	y, m, d := last.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, horizonDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i+1)
	}
	return dates
}
