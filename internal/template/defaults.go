package template

import "fmt"

// DefaultConfig returns the canonical 100-question, four-column, five-choice
// template described in spec.md §6: q1-q25, q26-q50, q51-q75, q76-q100, each
// offering choices A-E.
func DefaultConfig() Config {
	columns := []struct {
		name   string
		origin [2]float64
		first  int
	}{
		{"Column1_Q1_25", [2]float64{90, 680}, 1},
		{"Column2_Q26_50", [2]float64{530, 680}, 26},
		{"Column3_Q51_75", [2]float64{970, 680}, 51},
		{"Column4_Q76_100", [2]float64{1410, 680}, 76},
	}

	bubblesGap := 57.0
	labelsGap := 75.6

	cfg := Config{
		PageDimensions:          [2]int{defaultPageWidth, defaultPageHeight},
		BubbleDimensions:        [2]int{defaultBubbleW, defaultBubbleH},
		EmptyValue:              "",
		SheetToMarkerWidthRatio: defaultMarkerRatio,
	}

	for _, col := range columns {
		labels := make([]string, 25)
		for i := range labels {
			labels[i] = questionLabel(col.first + i)
		}
		cfg.FieldBlocks = append(cfg.FieldBlocks, NamedBlockConfig{
			Name: col.name,
			Block: BlockConfig{
				FieldType:   "QTYPE_MCQ5",
				FieldLabels: labels,
				Origin:      []float64{col.origin[0], col.origin[1]},
				BubblesGap:  &bubblesGap,
				LabelsGap:   &labelsGap,
				Direction:   Vertical,
			},
		})
	}

	for i := 1; i <= 100; i++ {
		cfg.OutputColumns = append(cfg.OutputColumns, questionLabel(i))
	}

	return cfg
}

func questionLabel(n int) string {
	return fmt.Sprintf("q%d", n)
}
