package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/omrscanner/internal/database"
	"github.com/kozaktomas/omrscanner/internal/template"
)

// TemplateHandler exposes saved sheet templates over HTTP, so a caller can
// register a template once and reference it by ID on later scan requests
// instead of resubmitting the full JSON body every time.
type TemplateHandler struct{}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

type createTemplateRequest struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

type templateResponse struct {
	TemplateID string          `json:"template_id"`
	Name       string          `json:"name"`
	Config     json.RawMessage `json:"config"`
}

// Create validates and saves a new template, returning its generated ID.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !database.IsInitialized() {
		respondError(w, http.StatusServiceUnavailable, "template storage is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req createTemplateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var cfg template.Config
	if err := json.Unmarshal(req.Config, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid template config: "+err.Error())
		return
	}
	if _, err := template.Parse(cfg); err != nil {
		respondError(w, http.StatusBadRequest, "template does not parse: "+err.Error())
		return
	}

	writer, err := database.GetTemplateWriter(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	templateID := uuid.NewString()
	if err := writer.Save(r.Context(), database.StoredTemplate{
		TemplateID: templateID,
		Name:       req.Name,
		Config:     req.Config,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save template")
		return
	}

	respondJSON(w, http.StatusCreated, templateResponse{
		TemplateID: templateID,
		Name:       req.Name,
		Config:     req.Config,
	})
}

// Get retrieves a saved template by ID.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !database.IsInitialized() {
		respondError(w, http.StatusServiceUnavailable, "template storage is not configured")
		return
	}

	templateID := chi.URLParam(r, "id")
	writer, err := database.GetTemplateWriter(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	stored, err := writer.Get(r.Context(), templateID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch template")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}

	respondJSON(w, http.StatusOK, templateResponse{
		TemplateID: stored.TemplateID,
		Name:       stored.Name,
		Config:     stored.Config,
	})
}
