package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/omrscanner/internal/template"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Inspect and validate sheet template files",
}

var templateValidateCmd = &cobra.Command{
	Use:   "validate [template-file]",
	Short: "Parse a template file and report its bubble layout, without scanning",
	Long: `validate reads a template JSON file, runs it through the same parser
the scan pipeline uses, and reports the resulting field blocks and bubble
counts. It exits non-zero and prints the parse error if the template is
invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateValidate,
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateValidateCmd)
}

type templateValidationReport struct {
	Valid          bool     `json:"valid"`
	Error          string   `json:"error,omitempty"`
	FieldBlocks    []string `json:"field_blocks,omitempty"`
	TotalBubbles   int      `json:"total_bubbles,omitempty"`
	OutputColumns  []string `json:"output_columns,omitempty"`
	PageDimensions [2]int   `json:"page_dimensions,omitempty"`
}

func runTemplateValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}

	var cfg template.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return reportTemplateValidation(templateValidationReport{Valid: false, Error: err.Error()})
	}

	parsed, err := template.Parse(cfg)
	if err != nil {
		return reportTemplateValidation(templateValidationReport{Valid: false, Error: err.Error()})
	}

	report := templateValidationReport{
		Valid:          true,
		TotalBubbles:   parsed.TotalBubbles(),
		OutputColumns:  parsed.OutputColumns,
		PageDimensions: parsed.PageDimensions,
	}
	for _, fb := range parsed.FieldBlocks {
		report.FieldBlocks = append(report.FieldBlocks, fb.Name)
	}
	return reportTemplateValidation(report)
}

func reportTemplateValidation(report templateValidationReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("template is invalid: %s", report.Error)
	}
	return nil
}
