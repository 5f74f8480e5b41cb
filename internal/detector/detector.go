// Package detector implements the OMR Bubble Detector (spec section 4.C):
// per-bubble fill scoring, sheet-wide statistics, and per-strip marked-
// choice decisions with confidence gating.
package detector

import (
	"image"
	"sort"
	"strings"

	"github.com/kozaktomas/omrscanner/internal/template"
)

// BubbleDetail is one question's detection record, matching the
// bubble_details entries of the core's output record (spec section 6).
type BubbleDetail struct {
	Question    string
	Marked      string
	Intensities []float64
}

// Result is the Bubble Detector's output: the DetectionResult of spec
// section 3.
type Result struct {
	Detected         map[string]string
	Details          []BubbleDetail
	Annotated        *image.RGBA
	UnmarkedCount    int
	MultiMarkedCount int
}

// strip bundles one question's template geometry with its computed
// features, threaded between phase 1 and phase 3.
type strip struct {
	block    *template.FieldBlock
	question []template.Bubble
	features []bubbleFeature
}

// Detect runs phases 1-3 of spec section 4.C over every strip in pt against
// img, which must already be preprocessed and resized to page dimensions.
func Detect(img *image.Gray, pt *template.ParsedTemplate) *Result {
	strips, allMeans := extractAllFeatures(img, pt)

	globalThr := globalMeanThreshold(allMeans)
	_ = globalStdThreshold(collectStdDevs(strips)) // computed for parity with the source; unused downstream

	canvas := ensureRGBA(img)
	result := &Result{
		Detected: make(map[string]string, len(strips)),
	}

	for _, s := range strips {
		decision := decideStrip(s.features, globalThr)
		label := s.question[0].FieldLabel
		marked := make(map[int]bool, len(decision.MarkedIndices))
		for _, idx := range decision.MarkedIndices {
			marked[idx] = true
		}

		value := valueForStrip(s, decision.MarkedIndices, s.block.EmptyVal)
		switch len(decision.MarkedIndices) {
		case 0:
			result.UnmarkedCount++
		case 1:
		default:
			result.MultiMarkedCount++
		}

		result.Detected[label] = value
		result.Details = append(result.Details, BubbleDetail{
			Question:    label,
			Marked:      value,
			Intensities: decision.Intensities,
		})

		for i, bub := range s.question {
			annotateBubble(canvas, bub, s.block.BubbleDimensions[0], s.block.BubbleDimensions[1], marked[i])
		}
	}

	result.Annotated = canvas
	return result
}

func extractAllFeatures(img *image.Gray, pt *template.ParsedTemplate) ([]strip, []float64) {
	var strips []strip
	var allMeans []float64

	for bi := range pt.FieldBlocks {
		fb := &pt.FieldBlocks[bi]
		masks := newBubbleMasks(fb.BubbleDimensions[0], fb.BubbleDimensions[1])
		for _, question := range fb.TraverseBubbles {
			features := make([]bubbleFeature, len(question))
			for ci, bub := range question {
				x := bub.X + fb.Shift
				y := bub.Y
				features[ci] = extractFeature(img, x, y, fb.BubbleDimensions[0], fb.BubbleDimensions[1], masks)
				allMeans = append(allMeans, features[ci].Mean)
			}
			strips = append(strips, strip{block: fb, question: question, features: features})
		}
	}
	return strips, allMeans
}

func collectStdDevs(strips []strip) []float64 {
	out := make([]float64, len(strips))
	for i, s := range strips {
		means := make([]float64, len(s.features))
		for j, f := range s.features {
			means[j] = f.Mean
		}
		out[i] = stddev(means)
	}
	return out
}

// valueForStrip emits empty_val, a single field_value, or a
// block-iteration-order concatenation of field_values, per spec section
// 4.C phase 3 step 6.
func valueForStrip(s strip, markedIndices []int, emptyVal string) string {
	if len(markedIndices) == 0 {
		return emptyVal
	}
	sorted := append([]int(nil), markedIndices...)
	sort.Ints(sorted)
	var b strings.Builder
	for _, idx := range sorted {
		b.WriteString(s.question[idx].FieldValue)
	}
	return b.String()
}
