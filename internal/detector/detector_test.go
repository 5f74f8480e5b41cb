package detector

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/kozaktomas/omrscanner/internal/template"
)

func TestFirstLargeGapReturnsGapMidpoint(t *testing.T) {
	values := []float64{10, 11, 12, 100, 101, 102}
	threshold, jump, ok := firstLargeGapCore(values, 2)
	if !ok {
		t.Fatal("expected a threshold to be found")
	}
	if jump < minJump {
		t.Fatalf("jump = %v, want >= %v", jump, minJump)
	}
	want := (11.0 + 100.0) / 2
	if math.Abs(threshold-want) > 1e-9 {
		t.Fatalf("threshold = %v, want %v", threshold, want)
	}
}

func TestFirstLargeGapFallsBackBelowMinJump(t *testing.T) {
	values := []float64{100, 101, 102, 103, 104, 105}
	got := firstLargeGap(values, 2, minJump, pageThresholdWhite)
	if got != pageThresholdWhite {
		t.Fatalf("got %v, want fallback %v", got, pageThresholdWhite)
	}
}

func TestDecideStripSingleStrongMark(t *testing.T) {
	features := []bubbleFeature{
		{Mean: 230, FillRatio: 0.02},
		{Mean: 40, FillRatio: 0.9},
		{Mean: 228, FillRatio: 0.01},
		{Mean: 225, FillRatio: 0.0},
		{Mean: 229, FillRatio: 0.0},
	}
	decision := decideStrip(features, pageThresholdWhite)
	if len(decision.MarkedIndices) != 1 || decision.MarkedIndices[0] != 1 {
		t.Fatalf("MarkedIndices = %v, want [1]", decision.MarkedIndices)
	}
}

func TestDecideStripIdenticalMeansMarksNone(t *testing.T) {
	features := make([]bubbleFeature, 5)
	for i := range features {
		features[i] = bubbleFeature{Mean: 200, FillRatio: 0}
	}
	decision := decideStrip(features, pageThresholdWhite)
	if len(decision.MarkedIndices) != 0 {
		t.Fatalf("MarkedIndices = %v, want none for a flat strip", decision.MarkedIndices)
	}
}

func TestDecideStripMultiMarkNearTie(t *testing.T) {
	features := []bubbleFeature{
		{Mean: 230, FillRatio: 0.0},
		{Mean: 40, FillRatio: 0.8},
		{Mean: 44, FillRatio: 0.8}, // within multiMarkNearGap (6) of index 1, tied fill ratio
		{Mean: 228, FillRatio: 0.0},
		{Mean: 229, FillRatio: 0.0},
	}
	decision := decideStrip(features, pageThresholdWhite)
	if len(decision.MarkedIndices) != 2 {
		t.Fatalf("MarkedIndices = %v, want 2 near-tied marks", decision.MarkedIndices)
	}
}

func TestFillRatioOverrideForcesMarkWhenThresholdMarksNone(t *testing.T) {
	features := []bubbleFeature{
		{Mean: 200, FillRatio: 0.08},
		{Mean: 202, FillRatio: 0.01},
		{Mean: 201, FillRatio: 0.0},
		{Mean: 203, FillRatio: 0.0},
		{Mean: 199, FillRatio: 0.0},
	}
	// Threshold pass marks none (all means close together and above any
	// reasonable threshold), but bubble 0's fill ratio clears the override
	// bar (top >= 0.06, gap >= 0.015).
	marked := applyFillRatioOverride(features, nil)
	if len(marked) != 1 || marked[0] != 0 {
		t.Fatalf("marked = %v, want [0]", marked)
	}
}

func solidSheet(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestDetectBlankSheetAllUnmarked(t *testing.T) {
	pt, err := template.Parse(template.DefaultConfig())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	img := solidSheet(pt.PageDimensions[0], pt.PageDimensions[1], 255)
	result := Detect(img, pt)

	if len(result.Detected) != len(pt.OutputColumns) {
		t.Fatalf("len(Detected) = %d, want %d", len(result.Detected), len(pt.OutputColumns))
	}
	if result.UnmarkedCount != 100 {
		t.Fatalf("UnmarkedCount = %d, want 100", result.UnmarkedCount)
	}
	if result.MultiMarkedCount != 0 {
		t.Fatalf("MultiMarkedCount = %d, want 0", result.MultiMarkedCount)
	}
	for _, v := range result.Detected {
		if v != "" {
			t.Fatalf("expected empty_val for every question on a blank sheet, got %q", v)
		}
	}
}

func TestDetectStrongMarkIsDetected(t *testing.T) {
	pt, err := template.Parse(template.DefaultConfig())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	img := solidSheet(pt.PageDimensions[0], pt.PageDimensions[1], 255)

	// Fill in q1's "A" bubble: find it in the template and paint the ROI dark.
	var target template.Bubble
	for _, fb := range pt.FieldBlocks {
		for _, strip := range fb.TraverseBubbles {
			if strip[0].FieldLabel == "q1" {
				target = strip[0] // choice A
			}
		}
	}
	fillBubble(img, target, 42, 42)

	result := Detect(img, pt)
	if result.Detected["q1"] != "A" {
		t.Fatalf("q1 = %q, want A", result.Detected["q1"])
	}
}

func fillBubble(img *image.Gray, bub template.Bubble, w, h int) {
	for y := bub.Y; y < bub.Y+h; y++ {
		for x := bub.X; x < bub.X+w; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
}
