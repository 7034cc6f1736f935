package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/finance"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/store"
)

// cashOnHand returns the stored balance or the configured default.
func (s *Service) cashOnHand(ctx context.Context, userID string) (float64, error) {
	cash, err := s.cash.GetCashOnHand(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return s.opts.DefaultCash, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cash on hand: %w", err)
	}
	return cash, nil
}

// GetFinancialSnapshot computes burn and runway over the user's full history.
func (s *Service) GetFinancialSnapshot(ctx context.Context, userID string) (*domain.FinancialSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	history, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetFinancialSnapshot: list transactions: %w", err)
	}
	cash, err := s.cashOnHand(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetFinancialSnapshot: %w", err)
	}

	snapshot := finance.Snapshot(history, cash)

	log := opLogger(ctx, "GetFinancialSnapshot", userID)
	log.Debug().
		Int("rows", len(history)).
		Str("runway_months", snapshot.RunwayMonths.String()).
		Msg("Snapshot computed")

	return &snapshot, nil
}

type hiringDetails struct {
	NewHires        int           `json:"new_hires"`
	AvgSalary       float64       `json:"avg_salary"`
	CurrentRunway   domain.Months `json:"current_runway"`
	SimulatedRunway domain.Months `json:"simulated_runway"`
}

// SimulateHiring projects the runway after adding newHires at avgSalary per
// month each, and records the inputs and both runways in the audit log.
func (s *Service) SimulateHiring(ctx context.Context, userID string, newHires int, avgSalary float64) (*domain.HiringSimulation, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if newHires < 0 {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "new_hires must not be negative")
	}
	if avgSalary < 0 || math.IsNaN(avgSalary) || math.IsInf(avgSalary, 0) {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "avg_salary must be a non-negative number")
	}

	history, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SimulateHiring: list transactions: %w", err)
	}
	cash, err := s.cashOnHand(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SimulateHiring: %w", err)
	}

	sim := finance.SimulateHiring(history, cash, newHires, avgSalary)

	details, err := json.Marshal(hiringDetails{
		NewHires:        newHires,
		AvgSalary:       avgSalary,
		CurrentRunway:   sim.CurrentRunway,
		SimulatedRunway: sim.SimulatedRunway,
	})
	if err != nil {
		details = []byte(fmt.Sprintf("new_hires=%d avg_salary=%.2f", newHires, avgSalary))
	}
	s.recordActivity(ctx, userID, ActionSimulateHiring, string(details))

	log := opLogger(ctx, "SimulateHiring", userID)
	log.Info().
		Int("new_hires", newHires).
		Float64("avg_salary", avgSalary).
		Str("current_runway", sim.CurrentRunway.String()).
		Str("simulated_runway", sim.SimulatedRunway.String()).
		Msg("Hiring simulated")

	return &sim, nil
}

// SetCashOnHand stores the user's cash balance.
func (s *Service) SetCashOnHand(ctx context.Context, userID string, amount float64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return domain.NewValidationError(domain.ErrInvalidInput, "cash on hand must be a non-negative number")
	}
	if err := s.cash.SetCashOnHand(ctx, userID, amount); err != nil {
		return fmt.Errorf("SetCashOnHand: %w", err)
	}
	s.recordActivity(ctx, userID, ActionUpdateCash, fmt.Sprintf("cash_on_hand=%.2f", amount))
	return nil
}

// CategoryBreakdown totals the user's expenses per category.
func (s *Service) CategoryBreakdown(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	history, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CategoryBreakdown: list transactions: %w", err)
	}
	return finance.CategoryBreakdown(history), nil
}

// Forecast predicts daily expenses over the configured horizon. Fewer than
// two expense points yields forecast.ErrForecastUnavailable.
func (s *Service) Forecast(ctx context.Context, userID string) ([]domain.ForecastPoint, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	start := s.now()
	log := opLogger(ctx, "Forecast", userID)

	history, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Forecast: list transactions: %w", err)
	}

	series, err := forecast.PrepareSeries(history)
	if err != nil {
		log.Info().Int("rows", len(history)).Msg("Forecast unavailable")
		return nil, err
	}

	points, err := s.engine.Forecast(ctx, series, s.opts.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("Forecast: engine: %w", err)
	}

	log.Info().
		Int("rows", len(series)).
		Int("points", len(points)).
		Dur("duration", s.now().Sub(start)).
		Msg("Forecast computed")

	return points, nil
}
