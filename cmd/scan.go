package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/omrscanner/internal/evaluator"
	"github.com/kozaktomas/omrscanner/internal/scanner"
	"github.com/kozaktomas/omrscanner/internal/template"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-path]",
	Short: "Scan a single bubble-sheet image from local disk",
	Long: `Scan reads a sheet image from disk, detects marked bubbles against a
template, optionally grades the result against an answer key, and prints the
resulting JSON output record to stdout.

Examples:
  # Scan with the default template, no grading
  omrscanner scan sheet.jpg

  # Scan with a custom template and answer key
  omrscanner scan sheet.jpg --template template.json --answer-key key.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("template", "", "Path to a template JSON file (defaults to the built-in template)")
	scanCmd.Flags().String("answer-key", "", "Path to an answer key JSON file")
}

func runScan(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	templatePath := mustGetString(cmd, "template")
	answerKeyPath := mustGetString(cmd, "answer-key")

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	req := scanner.Request{ImageData: imageData}

	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		var cfg template.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing template: %w", err)
		}
		req.TemplateConfig = &cfg
	}

	if answerKeyPath != "" {
		data, err := os.ReadFile(answerKeyPath)
		if err != nil {
			return fmt.Errorf("reading answer key: %w", err)
		}
		var key evaluator.AnswerKey
		if err := json.Unmarshal(data, &key); err != nil {
			return fmt.Errorf("parsing answer key: %w", err)
		}
		req.AnswerKey = key
	}

	result, err := scanner.Scan(req)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
