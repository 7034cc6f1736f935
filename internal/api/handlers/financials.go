package handlers

import (
	"net/http"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
)

// GetFinancials handles GET /api/financials
func (h *Handler) GetFinancials(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.GetFinancialSnapshot(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "GetFinancials", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, snapshot)
}

// SetCash handles PUT /api/cash
func (h *Handler) SetCash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CashOnHand *float64 `json:"cash_on_hand"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, "SetCash", err)
		return
	}
	if req.CashOnHand == nil {
		middleware.WriteError(w, http.StatusBadRequest, "cash_on_hand is required")
		return
	}

	if err := h.svc.SetCashOnHand(r.Context(), middleware.UserID(r.Context()), *req.CashOnHand); err != nil {
		h.writeServiceError(w, r, "SetCash", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]float64{"cash_on_hand": *req.CashOnHand})
}

// SimulateHiring handles POST /api/simulate/hiring
func (h *Handler) SimulateHiring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewHires  int     `json:"new_hires"`
		AvgSalary float64 `json:"avg_salary"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, "SimulateHiring", err)
		return
	}

	sim, err := h.svc.SimulateHiring(r.Context(), middleware.UserID(r.Context()), req.NewHires, req.AvgSalary)
	if err != nil {
		h.writeServiceError(w, r, "SimulateHiring", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sim)
}

// Forecast handles GET /api/forecast
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.Forecast(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "Forecast", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"points": points,
		"count":  len(points),
	})
}

// CategoryStats handles GET /api/stats/categories
func (h *Handler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.svc.CategoryBreakdown(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "CategoryStats", err)
		return
	}
	if totals == nil {
		totals = []domain.CategoryTotal{}
	}
	middleware.WriteJSON(w, http.StatusOK, totals)
}
