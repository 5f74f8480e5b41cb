package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/omrscanner/internal/config"
	"github.com/kozaktomas/omrscanner/internal/constants"
	"github.com/kozaktomas/omrscanner/internal/database"
	"github.com/kozaktomas/omrscanner/internal/evaluator"
	"github.com/kozaktomas/omrscanner/internal/fingerprint"
	"github.com/kozaktomas/omrscanner/internal/scanner"
	"github.com/kozaktomas/omrscanner/internal/template"
)

// ScanHandler exposes the scanning pipeline over HTTP.
type ScanHandler struct {
	config *config.Config
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(cfg *config.Config) *ScanHandler {
	return &ScanHandler{config: cfg}
}

// markingSchemeRequest is the JSON shape accepted for a marking scheme,
// since evaluator.MarkingScheme carries no tags of its own.
type markingSchemeRequest struct {
	Correct   float64 `json:"correct"`
	Incorrect float64 `json:"incorrect"`
	Unmarked  float64 `json:"unmarked"`
}

// scanResponse wraps a scanner.Result with the duplicate-detection fields
// the web layer adds on top of the core pipeline's output record.
type scanResponse struct {
	*scanner.Result
	ScanID             string    `json:"scan_id"`
	DuplicateOf        []string  `json:"duplicate_of,omitempty"`
	DuplicateDistances []float64 `json:"duplicate_distances,omitempty"`
}

// Scan handles a multipart sheet-image submission: a required "image" file
// part, plus optional "template", "answer_key" and "marking_scheme" JSON
// parts. It runs the pipeline synchronously and returns the output record.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read uploaded image")
		return
	}

	req := scanner.Request{ImageData: imageData}
	templateID := r.FormValue("template_id")

	if raw := r.FormValue("template"); raw != "" {
		var cfg template.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			respondError(w, http.StatusBadRequest, "invalid template: "+err.Error())
			return
		}
		req.TemplateConfig = &cfg
	} else if templateID != "" {
		cfg, err := h.resolveTemplateByID(r, templateID)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.TemplateConfig = cfg
	}

	if raw := r.FormValue("answer_key"); raw != "" {
		var key evaluator.AnswerKey
		if err := json.Unmarshal([]byte(raw), &key); err != nil {
			respondError(w, http.StatusBadRequest, "invalid answer_key: "+err.Error())
			return
		}
		req.AnswerKey = key
	}

	if raw := r.FormValue("marking_scheme"); raw != "" {
		var ms markingSchemeRequest
		if err := json.Unmarshal([]byte(raw), &ms); err != nil {
			respondError(w, http.StatusBadRequest, "invalid marking_scheme: "+err.Error())
			return
		}
		scheme := evaluator.MarkingScheme{Correct: ms.Correct, Incorrect: ms.Incorrect, Unmarked: ms.Unmarked}
		req.MarkingScheme = &scheme
	}

	result, err := scanner.Scan(req)
	if err != nil {
		var invalidImage *scanner.InvalidImageError
		var invalidTemplate *scanner.InvalidTemplateError
		switch {
		case errors.As(err, &invalidImage):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &invalidTemplate):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("scan: unexpected failure: %s", sanitizeForLog(err.Error()))
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("scan failed: %v", err))
		}
		return
	}

	resp := scanResponse{Result: result, ScanID: uuid.NewString()}

	hashes, hashErr := fingerprint.ComputeHashes(imageData)
	if hashErr == nil {
		h.checkAndPersistDuplicate(r, &resp, hashes, templateID)
	}

	respondJSON(w, http.StatusOK, resp)
}

// resolveTemplateByID loads a previously saved template and decodes its
// stored config, for requests that reference a template by ID rather than
// submitting it inline.
func (h *ScanHandler) resolveTemplateByID(r *http.Request, templateID string) (*template.Config, error) {
	if !database.IsInitialized() {
		return nil, fmt.Errorf("template storage is not configured")
	}
	writer, err := database.GetTemplateWriter(r.Context())
	if err != nil {
		return nil, err
	}
	stored, err := writer.Get(r.Context(), templateID)
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("template %q not found", templateID)
	}
	var cfg template.Config
	if err := json.Unmarshal(stored.Config, &cfg); err != nil {
		return nil, fmt.Errorf("decoding stored template: %w", err)
	}
	return &cfg, nil
}

// checkAndPersistDuplicate looks up near-duplicate prior submissions by
// perceptual fingerprint and, when the database backend is configured,
// persists this scan alongside its fingerprint for future lookups.
func (h *ScanHandler) checkAndPersistDuplicate(r *http.Request, resp *scanResponse, hashes *fingerprint.HashResult, templateID string) {
	if !database.IsInitialized() {
		return
	}
	writer, err := database.GetScanWriter(r.Context())
	if err != nil {
		return
	}

	vec := database.FingerprintVector(hashes)
	// Fingerprint vectors are 0/1 bit expansions, so Euclidean distance
	// over them equals the square root of the underlying Hamming distance.
	maxDistance := math.Sqrt(float64(h.config.Scan.DuplicateHammingRadius))
	matches, distances, err := writer.FindNearDuplicates(r.Context(), vec, constants.DefaultDuplicateSearchLimit, maxDistance)
	if err == nil {
		for _, m := range matches {
			resp.DuplicateOf = append(resp.DuplicateOf, m.ScanID)
		}
		resp.DuplicateDistances = distances
	}

	score := resp.Score
	_ = writer.Save(r.Context(), database.StoredScan{
		ScanID:          resp.ScanID,
		TemplateID:      templateID,
		Fingerprint:     vec,
		PHashBits:       hashes.PHashBits,
		DHashBits:       hashes.DHashBits,
		DetectedAnswers: resp.DetectedAnswers,
		Score:           score,
	})
}
