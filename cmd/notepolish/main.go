// Package main provides the notepolish command-line interface and HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "notepolish",
	Short: "Voice-note enhancement service",
	Long: "notepolish turns rough voice notes and transcripts into polished writing. " +
		"It classifies what the note is for, researches named entities for verified facts, " +
		"and rewrites the text in the requested tone.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./notepolish.yaml if present)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
