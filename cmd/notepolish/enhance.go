package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/schemas"
	"github.com/jonathan/notepolish/internal/types"
)

var (
	enhanceText       string
	enhanceInputFile  string
	enhanceTone       string
	enhanceJSON       bool
	enhanceNoResearch bool
	enhanceVerbose    bool
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Rephrase a note in the chosen tone",
	Long:  "Classifies the note, researches named entities when useful, and rewrites it with the configured generator. Runs without a quota.",
	RunE:  runEnhance,
}

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceText, "text", "t", "", "Note text")
	enhanceCmd.Flags().StringVarP(&enhanceInputFile, "in", "i", "", "Path to a text file, or - for stdin")
	enhanceCmd.Flags().StringVar(&enhanceTone, "tone", string(types.DefaultTone), "Tone: professional, casual, concise, email, meeting_notes, original")
	enhanceCmd.Flags().BoolVar(&enhanceJSON, "json", false, "Print the result as JSON")
	enhanceCmd.Flags().BoolVar(&enhanceNoResearch, "no-research", false, "Skip knowledge lookups")
	enhanceCmd.Flags().BoolVarP(&enhanceVerbose, "verbose", "v", false, "Debug logging on stderr")
	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(cmd *cobra.Command, _ []string) error {
	tone := types.ToneType(enhanceTone)
	if !tone.IsValid() {
		return fmt.Errorf("invalid tone %q", enhanceTone)
	}

	text, err := readText(enhanceText, enhanceInputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if enhanceNoResearch {
		cfg.Research.Enabled = false
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, cliLogger(cfg, enhanceVerbose), nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.enhancer.Rephrase(ctx, rewriting.Request{Text: text, Tone: tone})
	if err != nil {
		return err
	}
	if err := schemas.ValidateRephrasingResult(result); err != nil {
		return fmt.Errorf("result failed schema validation: %w", err)
	}

	if enhanceJSON {
		return writeJSON(cmd, result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRephrasing(result)
	return nil
}
