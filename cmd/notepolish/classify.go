package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/rewriting"
)

var (
	classifyText      string
	classifyInputFile string
	classifyJSON      bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show the intent, complexity and research terms for a note",
	Long:  "Runs the offline part of the pipeline. No network calls are made and no configuration is required.",
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyText, "text", "t", "", "Note text")
	classifyCmd.Flags().StringVarP(&classifyInputFile, "in", "i", "", "Path to a text file, or - for stdin")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the analysis as JSON")
	rootCmd.AddCommand(classifyCmd)
}

type analysisOutput struct {
	Intent        string   `json:"intent"`
	Complexity    string   `json:"complexity"`
	Terms         []string `json:"terms"`
	GatherContext bool     `json:"gatherContext"`
	MaxTokens     int      `json:"maxTokens"`
}

func runClassify(cmd *cobra.Command, _ []string) error {
	text, err := readText(classifyText, classifyInputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	analysis := rewriting.Analyze(text)
	if classifyJSON {
		terms := analysis.Terms
		if terms == nil {
			terms = []string{}
		}
		return writeJSON(cmd, analysisOutput{
			Intent:        string(analysis.Intent),
			Complexity:    string(analysis.Complexity),
			Terms:         terms,
			GatherContext: analysis.GatherContext,
			MaxTokens:     analysis.MaxTokens,
		})
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintAnalysis(analysis.Intent, string(analysis.Complexity), analysis.Terms)
	return nil
}
