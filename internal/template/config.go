package template

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockConfig is one entry of the fieldBlocks map in a template
// configuration. Pointer fields distinguish "key absent" from "key present
// with zero value", which the parser needs to enforce spec.md's required-key
// validation.
type BlockConfig struct {
	FieldType        string
	BubbleValues     []string
	Direction        Direction
	FieldLabels      []string
	Origin           []float64
	BubblesGap       *float64
	LabelsGap        *float64
	BubbleDimensions []int
	EmptyValue       *string
}

func (b *BlockConfig) UnmarshalJSON(data []byte) error {
	var aux struct {
		FieldType        string    `json:"fieldType"`
		BubbleValues     []string  `json:"bubbleValues"`
		Direction        string    `json:"direction"`
		FieldLabels      []string  `json:"fieldLabels"`
		Origin           []float64 `json:"origin"`
		BubblesGap       *float64  `json:"bubblesGap"`
		LabelsGap        *float64  `json:"labelsGap"`
		BubbleDimensions []int     `json:"bubbleDimensions"`
		EmptyValue       *string   `json:"emptyValue"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.FieldType = aux.FieldType
	b.BubbleValues = aux.BubbleValues
	b.Direction = Direction(aux.Direction)
	b.FieldLabels = aux.FieldLabels
	b.Origin = aux.Origin
	b.BubblesGap = aux.BubblesGap
	b.LabelsGap = aux.LabelsGap
	b.BubbleDimensions = aux.BubbleDimensions
	b.EmptyValue = aux.EmptyValue
	return nil
}

// NamedBlockConfig pairs a fieldBlocks map key with its value, in the order
// the key appeared in the source document. Template parsing is order
// sensitive (auto-filled outputColumns follow block-insertion order), so the
// config model preserves it explicitly instead of relying on map iteration.
type NamedBlockConfig struct {
	Name  string
	Block BlockConfig
}

// PreProcessor is one entry of the template's preProcessors list. The core
// reads only the CropOnMarkers.options.sheetToMarkerWidthRatio key; every
// other entry and option is ignored, per spec.md's open question.
type PreProcessor struct {
	Name    string
	Options map[string]json.RawMessage
}

// Config is the parsed (but not yet expanded) template configuration tree
// described in spec.md §6.
type Config struct {
	PageDimensions          [2]int
	BubbleDimensions        [2]int
	EmptyValue              string
	OutputColumns           []string
	FieldBlocks             []NamedBlockConfig
	SheetToMarkerWidthRatio int
}

const (
	defaultPageWidth   = 1700
	defaultPageHeight  = 2600
	defaultBubbleW     = 42
	defaultBubbleH     = 42
	defaultMarkerRatio = 17
)

func (c *Config) applyDefaults() {
	if c.PageDimensions == ([2]int{}) {
		c.PageDimensions = [2]int{defaultPageWidth, defaultPageHeight}
	}
	if c.BubbleDimensions == ([2]int{}) {
		c.BubbleDimensions = [2]int{defaultBubbleW, defaultBubbleH}
	}
	if c.SheetToMarkerWidthRatio == 0 {
		c.SheetToMarkerWidthRatio = defaultMarkerRatio
	}
}

// UnmarshalJSON decodes a template configuration from the canonical JSON
// shape in spec.md §6, preserving fieldBlocks key order.
func (c *Config) UnmarshalJSON(data []byte) error {
	var aux struct {
		PageDimensions   []int           `json:"pageDimensions"`
		BubbleDimensions []int           `json:"bubbleDimensions"`
		EmptyValue       string          `json:"emptyValue"`
		OutputColumns    []string        `json:"outputColumns"`
		FieldBlocks      json.RawMessage `json:"fieldBlocks"`
		PreProcessors    []struct {
			Name    string                     `json:"name"`
			Options map[string]json.RawMessage `json:"options"`
		} `json:"preProcessors"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("template: decoding config: %w", err)
	}

	if len(aux.PageDimensions) == 2 {
		c.PageDimensions = [2]int{aux.PageDimensions[0], aux.PageDimensions[1]}
	}
	if len(aux.BubbleDimensions) == 2 {
		c.BubbleDimensions = [2]int{aux.BubbleDimensions[0], aux.BubbleDimensions[1]}
	}
	c.EmptyValue = aux.EmptyValue
	c.OutputColumns = aux.OutputColumns

	blocks, err := decodeOrderedFieldBlocks(aux.FieldBlocks)
	if err != nil {
		return err
	}
	c.FieldBlocks = blocks

	c.SheetToMarkerWidthRatio = defaultMarkerRatio
	for _, pp := range aux.PreProcessors {
		if pp.Name != "CropOnMarkers" {
			continue
		}
		if raw, ok := pp.Options["sheetToMarkerWidthRatio"]; ok {
			var ratio int
			if err := json.Unmarshal(raw, &ratio); err == nil && ratio > 0 {
				c.SheetToMarkerWidthRatio = ratio
			}
		}
		break
	}

	c.applyDefaults()
	return nil
}

// decodeOrderedFieldBlocks walks the fieldBlocks JSON object token by token
// so that block-insertion order survives into NamedBlockConfig, matching the
// order a Python dict (or a hand-written JSON document) would preserve.
func decodeOrderedFieldBlocks(raw json.RawMessage) ([]NamedBlockConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("template: decoding fieldBlocks: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("template: fieldBlocks must be an object")
	}

	var blocks []NamedBlockConfig
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)

		var block BlockConfig
		if err := dec.Decode(&block); err != nil {
			return nil, fmt.Errorf("template: decoding block %q: %w", name, err)
		}
		blocks = append(blocks, NamedBlockConfig{Name: name, Block: block})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return blocks, nil
}
