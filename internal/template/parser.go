package template

import "math"

// Parse expands a template configuration into a ParsedTemplate with every
// bubble coordinate computed, following spec.md §4.A.
func Parse(cfg Config) (*ParsedTemplate, error) {
	cfg.applyDefaults()

	if len(cfg.FieldBlocks) == 0 {
		return nil, &ConfigError{Msg: "fieldBlocks must not be empty"}
	}

	pt := &ParsedTemplate{
		PageDimensions:          cfg.PageDimensions,
		BubbleDimensions:        cfg.BubbleDimensions,
		EmptyVal:                cfg.EmptyValue,
		OutputColumns:           cfg.OutputColumns,
		SheetToMarkerWidthRatio: cfg.SheetToMarkerWidthRatio,
	}

	for _, nb := range cfg.FieldBlocks {
		fb, err := parseBlock(nb.Name, nb.Block, cfg.BubbleDimensions, cfg.EmptyValue)
		if err != nil {
			return nil, err
		}
		pt.FieldBlocks = append(pt.FieldBlocks, fb)
	}

	if len(pt.OutputColumns) == 0 {
		for _, fb := range pt.FieldBlocks {
			for _, strip := range fb.TraverseBubbles {
				if len(strip) > 0 {
					pt.OutputColumns = append(pt.OutputColumns, strip[0].FieldLabel)
				}
			}
		}
	}

	if pt.TotalBubbles() == 0 {
		return nil, &ConfigError{Msg: "template produces zero bubbles"}
	}

	return pt, nil
}

// parseBlock expands one BlockConfig into a fully-gridded FieldBlock.
func parseBlock(name string, cfg BlockConfig, globalBubbleDims [2]int, globalEmptyVal string) (FieldBlock, error) {
	// Step 1: overlay the fieldType registry entry (bubbleValues, direction)
	// onto the block config. The registry wins for the two keys it supplies.
	bubbleValues := cfg.BubbleValues
	direction := cfg.Direction
	if cfg.FieldType != "" {
		entry, ok := lookupFieldType(cfg.FieldType)
		if !ok {
			return FieldBlock{}, &ConfigError{Block: name, Key: "fieldType", Msg: "unknown field type " + cfg.FieldType}
		}
		bubbleValues = entry.BubbleValues
		direction = entry.Direction
	}
	if direction == "" {
		direction = Vertical
	}

	if len(bubbleValues) == 0 {
		return FieldBlock{}, missingKey(name, "bubbleValues")
	}
	if cfg.BubblesGap == nil {
		return FieldBlock{}, missingKey(name, "bubblesGap")
	}
	if cfg.LabelsGap == nil {
		return FieldBlock{}, missingKey(name, "labelsGap")
	}
	if len(cfg.Origin) != 2 {
		return FieldBlock{}, missingKey(name, "origin")
	}
	if len(cfg.FieldLabels) == 0 {
		return FieldBlock{}, missingKey(name, "fieldLabels")
	}

	bubbleDims := globalBubbleDims
	if len(cfg.BubbleDimensions) == 2 {
		bubbleDims = [2]int{cfg.BubbleDimensions[0], cfg.BubbleDimensions[1]}
	}

	emptyVal := globalEmptyVal
	if cfg.EmptyValue != nil {
		emptyVal = *cfg.EmptyValue
	}

	fb := FieldBlock{
		Name:             name,
		Origin:           [2]int{int(math.Round(cfg.Origin[0])), int(math.Round(cfg.Origin[1]))},
		BubbleDimensions: bubbleDims,
		FieldLabels:      cfg.FieldLabels,
		EmptyVal:         emptyVal,
	}

	// Step 2: choose the axis choices advance along (_h) vs the axis
	// successive questions advance along (_v).
	h, v := axes(direction)

	bubblesGap := *cfg.BubblesGap
	labelsGap := *cfg.LabelsGap

	// Step 3-4: walk origin -> lead point -> bubble point, rounding to the
	// nearest integer pixel as each bubble is emitted.
	leadPoint := [2]float64{cfg.Origin[0], cfg.Origin[1]}
	fb.TraverseBubbles = make([][]Bubble, 0, len(cfg.FieldLabels))
	for _, label := range cfg.FieldLabels {
		bubblePoint := leadPoint
		strip := make([]Bubble, 0, len(bubbleValues))
		for _, value := range bubbleValues {
			strip = append(strip, Bubble{
				X:          int(math.Round(bubblePoint[0])),
				Y:          int(math.Round(bubblePoint[1])),
				FieldLabel: label,
				FieldValue: value,
			})
			bubblePoint[h] += bubblesGap
		}
		fb.TraverseBubbles = append(fb.TraverseBubbles, strip)
		leadPoint[v] += labelsGap
	}

	// Step 5: outer dimensions of the block.
	valuesDim := int(bubblesGap*float64(len(bubbleValues)-1)) + bubbleDims[h]
	fieldsDim := int(labelsGap*float64(len(cfg.FieldLabels)-1)) + bubbleDims[v]
	if direction == Vertical {
		fb.Dimensions = [2]int{fieldsDim, valuesDim}
	} else {
		fb.Dimensions = [2]int{valuesDim, fieldsDim}
	}

	return fb, nil
}

// axes returns (_h, _v): _h indexes the axis choices within one question
// advance along, _v the axis successive questions advance along.
func axes(direction Direction) (h, v int) {
	if direction == Vertical {
		return 1, 0
	}
	return 0, 1
}
