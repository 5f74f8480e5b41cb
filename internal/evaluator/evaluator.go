// Package evaluator implements the OMR Response Evaluator (spec section
// 4.D): scoring detected answers against an answer key under a configurable
// marking scheme.
package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kozaktomas/omrscanner/internal/detector"
)

// MarkingScheme is the three numeric weights applied to each question's
// tri-state outcome.
type MarkingScheme struct {
	Correct   float64
	Incorrect float64
	Unmarked  float64
}

// DefaultMarkingScheme is (1, 0, 0): one point per correct answer, nothing
// withheld or awarded otherwise.
func DefaultMarkingScheme() MarkingScheme {
	return MarkingScheme{Correct: 1, Incorrect: 0, Unmarked: 0}
}

// BubbleResult is one question's row in the evaluation output, matching the
// bubble_details entries of spec section 6's output record.
type BubbleResult struct {
	Question    string    `json:"question"`
	Marked      string    `json:"marked"`
	Correct     string    `json:"correct"`
	IsCorrect   *bool     `json:"is_correct"`
	Intensities []float64 `json:"intensity_values"`
}

// Result is the Response Evaluator's output. Percentage is nil when Total
// is zero (no answer key), per spec section 4.D.
type Result struct {
	Score         float64        `json:"score"`
	Total         int            `json:"total"`
	Percentage    *float64       `json:"percentage"`
	BubbleDetails []BubbleResult `json:"bubble_details"`
}

// AnswerKey is an ordered question_label -> expected_choice mapping. Order
// matters: result rows with the same trailing-integer sort key keep the
// answer key's original insertion order, per spec section 4.D.
type AnswerKey []AnswerEntry

// AnswerEntry is one answer key row.
type AnswerEntry struct {
	Label  string
	Choice string
}

// UnmarshalJSON decodes an answer key from a JSON object, walking it token
// by token so key order survives into AnswerKey, matching the way
// template.Config preserves fieldBlocks order.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("evaluator: decoding answer key: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("evaluator: answer key must be an object")
	}

	var entries AnswerKey
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := keyTok.(string)

		var choice string
		if err := dec.Decode(&choice); err != nil {
			return fmt.Errorf("evaluator: decoding answer for %q: %w", label, err)
		}
		entries = append(entries, AnswerEntry{Label: label, Choice: choice})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	*k = entries
	return nil
}

// Evaluate compares every entry in key against details (the detector's
// per-question output, in any order) and scores the result under scheme.
// An empty key produces a Result with Total 0, a nil Percentage and no
// bubble details, per spec section 8's boundary behaviour.
func Evaluate(details []detector.BubbleDetail, key AnswerKey, scheme MarkingScheme) *Result {
	byLabel := make(map[string]detector.BubbleDetail, len(details))
	for _, d := range details {
		byLabel[d.Question] = d
	}

	result := &Result{Total: len(key)}
	if len(key) == 0 {
		return result
	}

	result.BubbleDetails = make([]BubbleResult, 0, len(key))
	for _, entry := range key {
		detail, found := byLabel[entry.Label]
		row := BubbleResult{
			Question:    entry.Label,
			Marked:      detail.Marked,
			Correct:     entry.Choice,
			Intensities: detail.Intensities,
		}

		switch {
		case !found || detail.Marked == "":
			result.Score += scheme.Unmarked
			row.IsCorrect = nil
		case strings.EqualFold(detail.Marked, entry.Choice):
			result.Score += scheme.Correct
			row.IsCorrect = boolPtr(true)
		default:
			result.Score += scheme.Incorrect
			row.IsCorrect = boolPtr(false)
		}

		result.BubbleDetails = append(result.BubbleDetails, row)
	}

	sort.SliceStable(result.BubbleDetails, func(i, j int) bool {
		return trailingInt(result.BubbleDetails[i].Question) < trailingInt(result.BubbleDetails[j].Question)
	})

	pct := round2(result.Score / float64(result.Total) * 100)
	result.Percentage = &pct

	return result
}

// trailingInt extracts the run of ASCII digits at the end of label (e.g.
// "q17" -> 17). Labels with no trailing digits sort as 0.
func trailingInt(label string) int {
	end := len(label)
	start := end
	for start > 0 && label[start-1] >= '0' && label[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.Atoi(label[start:end])
	if err != nil {
		return 0
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func boolPtr(b bool) *bool {
	return &b
}
