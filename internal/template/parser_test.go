package template

import (
	"encoding/json"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	pt, err := Parse(DefaultConfig())
	if err != nil {
		t.Fatalf("Parse(DefaultConfig()) returned error: %v", err)
	}
	if len(pt.OutputColumns) != 100 {
		t.Fatalf("OutputColumns = %d; want 100", len(pt.OutputColumns))
	}
	if pt.TotalBubbles() != 500 {
		t.Fatalf("TotalBubbles() = %d; want 500", pt.TotalBubbles())
	}
	if pt.PageDimensions != [2]int{1700, 2600} {
		t.Fatalf("PageDimensions = %v; want [1700 2600]", pt.PageDimensions)
	}

	// q1 is the first bubble of the first strip of the first block.
	first := pt.FieldBlocks[0].TraverseBubbles[0][0]
	if first.FieldLabel != "q1" || first.FieldValue != "A" {
		t.Fatalf("first bubble = %+v; want q1/A", first)
	}
	if first.X != 90 || first.Y != 680 {
		t.Fatalf("first bubble coords = (%d,%d); want (90,680)", first.X, first.Y)
	}

	// Choices for one question advance horizontally by bubblesGap (MCQ5 is
	// registry direction horizontal, overriding the block's own "vertical").
	second := pt.FieldBlocks[0].TraverseBubbles[0][1]
	if second.X != 90+57 || second.Y != 680 {
		t.Fatalf("second choice coords = (%d,%d); want (147,680)", second.X, second.Y)
	}
}

func TestParseDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Parse(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.FieldBlocks {
		for q := range a.FieldBlocks[i].TraverseBubbles {
			for c := range a.FieldBlocks[i].TraverseBubbles[q] {
				ba := a.FieldBlocks[i].TraverseBubbles[q][c]
				bb := b.FieldBlocks[i].TraverseBubbles[q][c]
				if ba != bb {
					t.Fatalf("non-deterministic bubble at [%d][%d][%d]: %+v != %+v", i, q, c, ba, bb)
				}
			}
		}
	}
}

func TestParseMissingRequiredKey(t *testing.T) {
	raw := `{
		"fieldBlocks": {
			"A": {"fieldType": "QTYPE_MCQ4", "fieldLabels": ["q1"], "origin": [0,0], "bubblesGap": 10}
		}
	}`
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_, err := Parse(cfg)
	if err == nil {
		t.Fatal("expected error for missing labelsGap")
	}
	ce, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("got %T, want *ConfigError", err)
	}
	if ce.Key != "labelsGap" || ce.Block != "A" {
		t.Fatalf("ConfigError = %+v; want block A key labelsGap", ce)
	}
}

func TestParseUnknownFieldType(t *testing.T) {
	one := 10.0
	cfg := Config{
		FieldBlocks: []NamedBlockConfig{{
			Name: "A",
			Block: BlockConfig{
				FieldType:   "QTYPE_BOGUS",
				FieldLabels: []string{"q1"},
				Origin:      []float64{0, 0},
				BubblesGap:  &one,
				LabelsGap:   &one,
			},
		}},
	}
	_, err := Parse(cfg)
	if err == nil {
		t.Fatal("expected error for unknown fieldType")
	}
}

func TestParseEmptyFieldBlocks(t *testing.T) {
	_, err := Parse(Config{})
	if err == nil {
		t.Fatal("expected error for empty fieldBlocks")
	}
}

func TestParseSingleChoiceSingleQuestion(t *testing.T) {
	gap := 20.0
	cfg := Config{
		BubbleDimensions: [2]int{10, 10},
		FieldBlocks: []NamedBlockConfig{{
			Name: "Only",
			Block: BlockConfig{
				BubbleValues: []string{"X"},
				Direction:    Horizontal,
				FieldLabels:  []string{"q1"},
				Origin:       []float64{5, 5},
				BubblesGap:   &gap,
				LabelsGap:    &gap,
			},
		}},
	}
	pt, err := Parse(cfg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pt.TotalBubbles() != 1 {
		t.Fatalf("TotalBubbles() = %d; want 1", pt.TotalBubbles())
	}
	if len(pt.OutputColumns) != 1 || pt.OutputColumns[0] != "q1" {
		t.Fatalf("OutputColumns = %v; want [q1]", pt.OutputColumns)
	}
}

func TestFieldTypeRegistryOverridesDirection(t *testing.T) {
	gap := 10.0
	cfg := Config{
		FieldBlocks: []NamedBlockConfig{{
			Name: "Q",
			Block: BlockConfig{
				FieldType:   "QTYPE_MCQ4",
				Direction:   Vertical, // block says vertical, registry says horizontal
				FieldLabels: []string{"q1", "q2"},
				Origin:      []float64{0, 0},
				BubblesGap:  &gap,
				LabelsGap:   &gap,
			},
		}},
	}
	pt, err := Parse(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Horizontal direction: choices advance along x, questions along y.
	q1c0 := pt.FieldBlocks[0].TraverseBubbles[0][0]
	q1c1 := pt.FieldBlocks[0].TraverseBubbles[0][1]
	if q1c1.X-q1c0.X != 10 || q1c1.Y != q1c0.Y {
		t.Fatalf("expected choices to advance along x; got %+v -> %+v", q1c0, q1c1)
	}
	q2c0 := pt.FieldBlocks[0].TraverseBubbles[1][0]
	if q2c0.Y-q1c0.Y != 10 || q2c0.X != q1c0.X {
		t.Fatalf("expected questions to advance along y; got %+v -> %+v", q1c0, q2c0)
	}
}
