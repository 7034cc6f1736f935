package handlers

import (
	"net/http"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/ingest"
	"github.com/dvloznov/finsight/internal/service"
)

const defaultListLimit = 100

// ListTransactions handles GET /api/transactions?limit=N
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		h.writeServiceError(w, r, "ListTransactions", err)
		return
	}

	txs, err := h.svc.ListTransactions(r.Context(), middleware.UserID(r.Context()), limit)
	if err != nil {
		h.writeServiceError(w, r, "ListTransactions", err)
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

type addTransactionRequest struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Vendor      string  `json:"vendor"`
	Notes       string  `json:"notes"`
}

// AddTransaction handles POST /api/transactions
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, "AddTransaction", err)
		return
	}

	in := service.NewTransaction{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Vendor:      req.Vendor,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		d, ok := ingest.ParseDate(req.Date)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		in.Date = d
	}

	tx, err := h.svc.AddTransaction(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, "AddTransaction", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTransaction(r.Context(), middleware.UserID(r.Context()), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, "DeleteTransaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivity handles GET /api/activity?limit=N
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		h.writeServiceError(w, r, "ListActivity", err)
		return
	}

	entries, err := h.svc.ListActivity(r.Context(), middleware.UserID(r.Context()), limit)
	if err != nil {
		h.writeServiceError(w, r, "ListActivity", err)
		return
	}

	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	middleware.WriteJSON(w, http.StatusOK, entries)
}
