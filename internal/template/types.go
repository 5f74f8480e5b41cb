// Package template converts an OMR sheet layout configuration into an
// explicit grid of bubble coordinates and labels. It has no knowledge of
// pixels or image data — it only computes geometry.
package template

// Bubble is one printed answer oval, located in template-page coordinates.
// A Bubble is immutable once constructed.
type Bubble struct {
	X, Y       int
	FieldLabel string
	FieldValue string
}

// Direction controls which axis bubble choices advance along versus which
// axis successive questions advance along.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// FieldBlock is a rectangular region containing a repeated array of
// questions that all share the same bubble palette.
type FieldBlock struct {
	Name             string
	Origin           [2]int
	BubbleDimensions [2]int
	Dimensions       [2]int
	FieldLabels      []string
	EmptyVal         string

	// Shift is threaded through bubble coordinate offsets but never set by
	// the parser — see spec's open question on FieldBlock.shift. Kept so a
	// future template surface can populate it without an API break.
	Shift int

	// TraverseBubbles[q][choice] is the fully computed bubble grid.
	TraverseBubbles [][]Bubble
}

// ParsedTemplate is the whole sheet layout with every bubble position
// computed. It is immutable and safe to share read-only across requests.
type ParsedTemplate struct {
	PageDimensions          [2]int
	BubbleDimensions        [2]int
	EmptyVal                string
	FieldBlocks             []FieldBlock
	OutputColumns           []string
	SheetToMarkerWidthRatio int
}

// TotalBubbles returns the number of bubbles across every field block.
func (p *ParsedTemplate) TotalBubbles() int {
	n := 0
	for _, fb := range p.FieldBlocks {
		for _, strip := range fb.TraverseBubbles {
			n += len(strip)
		}
	}
	return n
}
