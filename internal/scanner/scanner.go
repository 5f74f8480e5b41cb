// Package scanner implements the OMR Pipeline Orchestrator (spec section
// 4.E): it chains template parsing, preprocessing, bubble detection and
// response evaluation into one synchronous scan of a single sheet.
package scanner

import (
	"fmt"
	"log"

	"github.com/kozaktomas/omrscanner/internal/assets"
	"github.com/kozaktomas/omrscanner/internal/detector"
	"github.com/kozaktomas/omrscanner/internal/evaluator"
	"github.com/kozaktomas/omrscanner/internal/preprocess"
	"github.com/kozaktomas/omrscanner/internal/template"
	"github.com/kozaktomas/omrscanner/internal/vision"
)

const annotatedJPEGQuality = 90

// Request bundles everything the core needs for one scan, per spec section
// 6's accepted inputs.
type Request struct {
	// ImageData is either raw encoded-image bytes, or the bytes of a string
	// optionally prefixed "data:...,<base64>".
	ImageData []byte

	// TemplateConfig is the sheet layout. Nil selects the default template.
	TemplateConfig *template.Config

	// AnswerKey is optional; an empty or nil key disables scoring.
	AnswerKey evaluator.AnswerKey

	// MarkingScheme is optional; nil selects (1, 0, 0).
	MarkingScheme *evaluator.MarkingScheme
}

// Result is the output record of spec section 6.
type Result struct {
	DetectedAnswers      map[string]string        `json:"detected_answers"`
	Score                *float64                 `json:"score,omitempty"`
	Total                *int                     `json:"total,omitempty"`
	Percentage           *float64                 `json:"percentage,omitempty"`
	BubbleDetails        []evaluator.BubbleResult `json:"bubble_details"`
	MultiMarkedCount     int                      `json:"multi_marked_count"`
	UnmarkedCount        int                      `json:"unmarked_count"`
	AnnotatedImageBase64 string                   `json:"annotated_image_base64"`

	// Degraded reports whether preprocessing fell all the way back past
	// the three marker passes (spec section 7's PreprocessingDegraded
	// non-error state). Not part of the wire schema; useful for logging.
	Degraded bool `json:"-"`
}

// Scan runs phases A through E over req in order, per spec section 5's
// ordering guarantee. It returns *InvalidImageError or *InvalidTemplateError
// for the two fatal input conditions; any other error indicates the shipped
// marker asset or JPEG encoding failed, which should not happen in
// practice.
func Scan(req Request) (*Result, error) {
	img, err := vision.LoadGray(req.ImageData)
	if err != nil {
		return nil, &InvalidImageError{Err: err}
	}

	cfg := template.DefaultConfig()
	if req.TemplateConfig != nil {
		cfg = *req.TemplateConfig
	}
	pt, err := template.Parse(cfg)
	if err != nil {
		return nil, &InvalidTemplateError{Err: err}
	}

	marker, err := assets.Marker()
	if err != nil {
		return nil, fmt.Errorf("scanner: loading marker asset: %w", err)
	}

	pre := preprocess.Process(img, marker, pt.SheetToMarkerWidthRatio, pt.PageDimensions)
	if pre.Degraded {
		log.Printf("scanner: marker detection failed, falling back to contour crop or unrectified input")
	}
	detection := detector.Detect(pre.Image, pt)

	scheme := evaluator.DefaultMarkingScheme()
	if req.MarkingScheme != nil {
		scheme = *req.MarkingScheme
	}
	evaluation := evaluator.Evaluate(detection.Details, req.AnswerKey, scheme)

	annotatedBase64, err := vision.EncodeJPEGBase64(detection.Annotated, annotatedJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("scanner: encoding annotated image: %w", err)
	}

	result := &Result{
		DetectedAnswers:      detection.Detected,
		BubbleDetails:        evaluation.BubbleDetails,
		MultiMarkedCount:     detection.MultiMarkedCount,
		UnmarkedCount:        detection.UnmarkedCount,
		AnnotatedImageBase64: annotatedBase64,
		Degraded:             pre.Degraded,
	}
	if evaluation.Total > 0 {
		score := evaluation.Score
		total := evaluation.Total
		result.Score = &score
		result.Total = &total
		result.Percentage = evaluation.Percentage
	}

	return result, nil
}
