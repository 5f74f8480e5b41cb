package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/kozaktomas/omrscanner/internal/assets"
)

func blankSheet(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestProcessOutputMatchesPageDimensions(t *testing.T) {
	marker, err := assets.Marker()
	if err != nil {
		t.Fatalf("loading marker: %v", err)
	}
	img := blankSheet(400, 600)
	result := Process(img, marker, 17, [2]int{1700, 2600})
	if result.Image.Bounds().Dx() != 1700 || result.Image.Bounds().Dy() != 2600 {
		t.Fatalf("got %dx%d, want 1700x2600", result.Image.Bounds().Dx(), result.Image.Bounds().Dy())
	}
}

func TestProcessOnUndetectableSheetDegradesGracefully(t *testing.T) {
	marker, err := assets.Marker()
	if err != nil {
		t.Fatalf("loading marker: %v", err)
	}
	// A flat blank sheet has no markers, so all three marker passes fail and
	// the contour fallback takes the image border as the page; the pipeline
	// must not panic or error, and must report degraded preprocessing.
	img := blankSheet(400, 600)
	result := Process(img, marker, 17, [2]int{1700, 2600})
	if !result.Degraded {
		t.Fatal("expected a blank sheet with no markers to be reported as degraded")
	}
}

func TestSplitQuadrantsCoversWholeImage(t *testing.T) {
	quads := splitQuadrants(image.Rect(0, 0, 100, 90))
	area := 0
	for _, q := range quads {
		area += q.Rect.Dx() * q.Rect.Dy()
	}
	if area != 100*90 {
		t.Fatalf("quadrant areas sum to %d, want %d", area, 100*90)
	}
}

func TestFallbackPageCropOnSyntheticQuad(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 300))
	for y := range img.Pix {
		img.Pix[y] = 40
	}
	for y := 30; y < 270; y++ {
		for x := 20; x < 170; x++ {
			img.SetGray(x, y, color.Gray{Y: 230})
		}
	}
	_, _, _, _, ok := fallbackPageCrop(img)
	if !ok {
		t.Fatal("expected fallback to find the synthetic page rectangle")
	}
}
