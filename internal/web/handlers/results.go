package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/omrscanner/internal/database"
)

// ResultHandler exposes previously persisted scan results over HTTP.
type ResultHandler struct{}

// NewResultHandler creates a new result handler.
func NewResultHandler() *ResultHandler {
	return &ResultHandler{}
}

type storedScanResponse struct {
	ScanID          string            `json:"scan_id"`
	TemplateID      string            `json:"template_id,omitempty"`
	DetectedAnswers map[string]string `json:"detected_answers"`
	Score           *float64          `json:"score,omitempty"`
}

// Get retrieves a previously persisted scan result by ID.
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !database.IsInitialized() {
		respondError(w, http.StatusServiceUnavailable, "scan storage is not configured")
		return
	}

	scanID := chi.URLParam(r, "id")
	writer, err := database.GetScanWriter(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	stored, err := writer.Get(r.Context(), scanID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch scan result")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "scan result not found")
		return
	}

	respondJSON(w, http.StatusOK, storedScanResponse{
		ScanID:          stored.ScanID,
		TemplateID:      stored.TemplateID,
		DetectedAnswers: stored.DetectedAnswers,
		Score:           stored.Score,
	})
}
