package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/omrscanner/internal/evaluator"
	"github.com/kozaktomas/omrscanner/internal/scanner"
	"github.com/kozaktomas/omrscanner/internal/template"
)

var batchScanCmd = &cobra.Command{
	Use:   "batch-scan [directory]",
	Short: "Scan every sheet image in a directory against one template",
	Long: `batch-scan walks a directory of sheet images (.jpg, .jpeg, .png), scans
each one against a shared template and, optionally, a shared answer key, and
writes a JSON array of the resulting output records to stdout.

Example:
  omrscanner batch-scan ./sheets --template template.json --answer-key key.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchScan,
}

func init() {
	rootCmd.AddCommand(batchScanCmd)

	batchScanCmd.Flags().String("template", "", "Path to a template JSON file (defaults to the built-in template)")
	batchScanCmd.Flags().String("answer-key", "", "Path to an answer key JSON file")
	batchScanCmd.Flags().Int("concurrency", 4, "Number of sheets to scan in parallel")
}

type batchScanResult struct {
	Path   string          `json:"path"`
	Result *scanner.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runBatchScan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	templatePath := mustGetString(cmd, "template")
	answerKeyPath := mustGetString(cmd, "answer-key")
	concurrency := mustGetInt(cmd, "concurrency")

	var tmplCfg *template.Config
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		var cfg template.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing template: %w", err)
		}
		tmplCfg = &cfg
	}

	var answerKey evaluator.AnswerKey
	if answerKeyPath != "" {
		data, err := os.ReadFile(answerKeyPath)
		if err != nil {
			return fmt.Errorf("reading answer key: %w", err)
		}
		if err := json.Unmarshal(data, &answerKey); err != nil {
			return fmt.Errorf("parsing answer key: %w", err)
		}
	}

	paths, err := sheetImagePaths(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No sheet images found.")
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Scanning sheets"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("sheets"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	results := make([]batchScanResult, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer bar.Add(1)

			results[i] = scanOneSheet(path, tmplCfg, answerKey)
		}(i, path)
	}
	wg.Wait()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func scanOneSheet(path string, tmplCfg *template.Config, answerKey evaluator.AnswerKey) batchScanResult {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return batchScanResult{Path: path, Error: err.Error()}
	}

	result, err := scanner.Scan(scanner.Request{
		ImageData:      imageData,
		TemplateConfig: tmplCfg,
		AnswerKey:      answerKey,
	})
	if err != nil {
		return batchScanResult{Path: path, Error: err.Error()}
	}
	return batchScanResult{Path: path, Result: result}
}

// sheetImagePaths lists the directory's image files in deterministic order
// so a batch-scan run is reproducible across invocations.
func sheetImagePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
