// Package handlers adapts the finance service to JSON over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/jobs"
	"github.com/dvloznov/finsight/internal/service"
	"github.com/dvloznov/finsight/internal/store"
)

// FinanceService is the set of operations the HTTP layer exposes.
type FinanceService interface {
	AnalyzeUpload(ctx context.Context, userID, filename string, r io.Reader) (*service.UploadResult, error)
	ConfirmUpload(ctx context.Context, userID, uploadID string, skipDuplicates bool) (int, error)
	GetFinancialSnapshot(ctx context.Context, userID string) (*domain.FinancialSnapshot, error)
	SetCashOnHand(ctx context.Context, userID string, amount float64) error
	SimulateHiring(ctx context.Context, userID string, newHires int, avgSalary float64) (*domain.HiringSimulation, error)
	Forecast(ctx context.Context, userID string) ([]domain.ForecastPoint, error)
	AddTransaction(ctx context.Context, userID string, in service.NewTransaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	CategoryBreakdown(ctx context.Context, userID string) ([]domain.CategoryTotal, error)
	ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error)
}

var _ FinanceService = (*service.Service)(nil)

// Handler serves the /api routes.
type Handler struct {
	svc       FinanceService
	publisher jobs.Publisher
	jobStore  jobs.JobStore
	maxUpload int64
	log       zerolog.Logger
}

// New creates a handler. maxUpload bounds the multipart body of uploads.
func New(svc FinanceService, maxUpload int64, log zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		maxUpload: maxUpload,
		log:       log,
	}
}

// WithJobs enables the Notion export endpoints.
func (h *Handler) WithJobs(publisher jobs.Publisher, jobStore jobs.JobStore) *Handler {
	h.publisher = publisher
	h.jobStore = jobStore
	return h
}

// Register mounts every /api route on mux behind RequireUser.
func (h *Handler) Register(mux *http.ServeMux) {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/uploads", h.AnalyzeUpload)
	api.HandleFunc("POST /api/uploads/{id}/confirm", h.ConfirmUpload)

	api.HandleFunc("GET /api/financials", h.GetFinancials)
	api.HandleFunc("PUT /api/cash", h.SetCash)
	api.HandleFunc("POST /api/simulate/hiring", h.SimulateHiring)
	api.HandleFunc("GET /api/forecast", h.Forecast)

	api.HandleFunc("GET /api/transactions", h.ListTransactions)
	api.HandleFunc("POST /api/transactions", h.AddTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", h.DeleteTransaction)

	api.HandleFunc("GET /api/stats/categories", h.CategoryStats)
	api.HandleFunc("GET /api/activity", h.ListActivity)

	api.HandleFunc("POST /api/notion/sync", h.EnqueueNotionSync)
	api.HandleFunc("GET /api/jobs", h.ListJobs)
	api.HandleFunc("GET /api/jobs/{id}", h.GetJob)

	mux.Handle("/api/", middleware.RequireUser(api))
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrForecastUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log := h.log.With().
			Str("user_id", middleware.UserID(r.Context())).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Logger()
		log.Error().Err(err).Str("op", op).Msg("Request failed")
		middleware.WriteError(w, status, "Internal server error")
		return
	}
	middleware.WriteError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError(domain.ErrInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(domain.ErrInvalidInput, "%s must be a non-negative integer", name)
	}
	return n, nil
}
