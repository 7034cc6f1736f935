// Package finance computes burn, runway and hiring projections from a
// transaction history.
package finance

import (
	"math"
	"sort"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/shopspring/decimal"
)

// Burn summarises a history for runway purposes.
type Burn struct {
	TotalExpenses  float64
	TotalRevenue   float64
	AvgMonthlyBurn float64
	Months         int
	Runway         domain.Months
}

// Runway computes burn and runway over the full history. An empty history
// has zero burn and an infinite runway. Burn is the absolute expense total
// spread over the distinct calendar months present, at least one.
func Runway(history []domain.Transaction, cash float64) Burn {
	if len(history) == 0 {
		return Burn{Runway: domain.InfiniteRunway}
	}

	type month struct {
		year int
		m    int
	}
	months := make(map[month]bool)
	var b Burn
	for _, tx := range history {
		months[month{tx.Date.Year(), int(tx.Date.Month())}] = true
		switch {
		case tx.Amount < 0:
			b.TotalExpenses += tx.Amount
		case tx.Amount > 0:
			b.TotalRevenue += tx.Amount
		}
	}

	b.Months = len(months)
	if b.Months < 1 {
		b.Months = 1
	}
	b.AvgMonthlyBurn = math.Abs(b.TotalExpenses) / float64(b.Months)
	b.Runway = runwayFor(cash, b.AvgMonthlyBurn)
	return b
}

// runwayFor divides cash by burn, rounded to one decimal. Zero burn is infinite.
func runwayFor(cash, burn float64) domain.Months {
	if burn <= 0 {
		return domain.InfiniteRunway
	}
	r := decimal.NewFromFloat(cash).Div(decimal.NewFromFloat(burn)).Round(1)
	return domain.Months(r.InexactFloat64())
}

// Snapshot builds the financial snapshot for a history and cash position.
func Snapshot(history []domain.Transaction, cash float64) domain.FinancialSnapshot {
	b := Runway(history, cash)
	return domain.FinancialSnapshot{
		RunwayMonths:   b.Runway,
		AvgMonthlyBurn: b.AvgMonthlyBurn,
		CashOnHand:     cash,
		TotalExpenses:  b.TotalExpenses,
		TotalRevenue:   b.TotalRevenue,
	}
}

// SimulateHiring adds newHires*avgSalary to the current monthly burn and
// reports the runway before and after.
func SimulateHiring(history []domain.Transaction, cash float64, newHires int, avgSalary float64) domain.HiringSimulation {
	current := Runway(history, cash)
	simulatedBurn := current.AvgMonthlyBurn + float64(newHires)*avgSalary

	return domain.HiringSimulation{
		NewHires:        newHires,
		AvgSalary:       avgSalary,
		CurrentBurn:     current.AvgMonthlyBurn,
		CurrentRunway:   current.Runway,
		SimulatedBurn:   simulatedBurn,
		SimulatedRunway: runwayFor(cash, simulatedBurn),
	}
}

// CategoryBreakdown totals expenses per category, largest spend first.
// Uncategorised expenses are grouped under Operations.
func CategoryBreakdown(history []domain.Transaction) []domain.CategoryTotal {
	totals := make(map[string]*domain.CategoryTotal)
	for _, tx := range history {
		if !tx.IsExpense() {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = domain.CategoryOperations
		}
		ct, ok := totals[cat]
		if !ok {
			ct = &domain.CategoryTotal{Category: cat}
			totals[cat] = ct
		}
		ct.Total += math.Abs(tx.Amount)
		ct.Count++
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}
