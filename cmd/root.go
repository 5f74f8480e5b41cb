package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "omrscanner",
	Short: "A CLI and HTTP service for scanning bubble-sheet answer sheets",
	Long: `omrscanner scans photographed or scanned bubble sheets, detects which
bubbles are marked against a sheet template, and optionally grades the
result against an answer key.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
