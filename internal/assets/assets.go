// Package assets embeds the static files shipped with the scanner binary.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	_ "image/png"
)

//go:embed omr_marker.png
var markerPNG []byte

// Marker decodes the shipped corner-marker template image used by
// preprocessing passes 2 and 3.
func Marker() (*image.Gray, error) {
	img, _, err := image.Decode(bytes.NewReader(markerPNG))
	if err != nil {
		return nil, fmt.Errorf("assets: decoding omr_marker.png: %w", err)
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray, nil
}
