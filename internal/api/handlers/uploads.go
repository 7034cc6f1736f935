package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// AnalyzeUpload handles POST /api/uploads with a multipart "file" field.
func (h *Handler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(w, r, "AnalyzeUpload", domain.NewValidationError(domain.ErrFileTooLarge, "limit is %d bytes", h.maxUpload))
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field \"file\" is required")
		return
	}
	defer file.Close()

	result, err := h.svc.AnalyzeUpload(r.Context(), middleware.UserID(r.Context()), header.Filename, file)
	if err != nil {
		h.writeServiceError(w, r, "AnalyzeUpload", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// ConfirmUpload handles POST /api/uploads/{id}/confirm?skip_duplicates=true
func (h *Handler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	skip := true
	if raw := r.URL.Query().Get("skip_duplicates"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "skip_duplicates must be a boolean")
			return
		}
		skip = v
	}

	imported, err := h.svc.ConfirmUpload(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"), skip)
	if err != nil {
		h.writeServiceError(w, r, "ConfirmUpload", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"imported": imported})
}
