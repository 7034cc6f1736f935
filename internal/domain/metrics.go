package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Months is a runway length in months. An unbounded runway is represented by +Inf
// and serialized as the string "infinite".
type Months float64

// InfiniteRunway is the runway of a business with no burn.
var InfiniteRunway = Months(math.Inf(1))

// IsInfinite reports whether the runway is unbounded.
func (m Months) IsInfinite() bool {
	return math.IsInf(float64(m), 1)
}

func (m Months) String() string {
	if m.IsInfinite() {
		return "infinite"
	}
	return fmt.Sprintf("%.1f", float64(m))
}

// MarshalJSON implements json.Marshaler.
func (m Months) MarshalJSON() ([]byte, error) {
	if m.IsInfinite() {
		return []byte(`"infinite"`), nil
	}
	return json.Marshal(float64(m))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Months) UnmarshalJSON(data []byte) error {
	if string(data) == `"infinite"` {
		*m = InfiniteRunway
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("Months: %w", err)
	}
	*m = Months(f)
	return nil
}

// FinancialSnapshot is computed on demand from a user's full history and cash on hand.
type FinancialSnapshot struct {
	RunwayMonths   Months  `json:"runway_months"`
	AvgMonthlyBurn float64 `json:"avg_monthly_burn"`
	CashOnHand     float64 `json:"cash_on_hand"`
	TotalExpenses  float64 `json:"total_expenses"`
	TotalRevenue   float64 `json:"total_revenue"`
}

// HiringSimulation compares the current runway with the runway after new hires.
type HiringSimulation struct {
	NewHires        int     `json:"new_hires"`
	AvgSalary       float64 `json:"avg_salary"`
	CurrentBurn     float64 `json:"current_burn"`
	CurrentRunway   Months  `json:"current_runway"`
	SimulatedBurn   float64 `json:"simulated_burn"`
	SimulatedRunway Months  `json:"simulated_runway"`
}

// CategoryTotal is the expense total and transaction count for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// ForecastPoint is one predicted value with its confidence band.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// ActivityEntry is one audit log record.
type ActivityEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
