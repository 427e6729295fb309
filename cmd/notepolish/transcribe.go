package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/schemas"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/types"
)

var (
	transcribeInputFile string
	transcribeTone      string
	transcribeRephrase  bool
	transcribeJSON      bool
	transcribeVerbose   bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe an audio file, optionally rephrasing the transcript",
	RunE:  runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeInputFile, "in", "i", "", "Path to an audio file (required)")
	transcribeCmd.Flags().StringVar(&transcribeTone, "tone", string(types.DefaultTone), "Tone used with --rephrase")
	transcribeCmd.Flags().BoolVar(&transcribeRephrase, "rephrase", false, "Rephrase the transcript after transcribing")
	transcribeCmd.Flags().BoolVar(&transcribeJSON, "json", false, "Print the result as JSON")
	transcribeCmd.Flags().BoolVarP(&transcribeVerbose, "verbose", "v", false, "Debug logging on stderr")

	if err := transcribeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(transcribeInputFile)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(data) > transcription.MaxUploadBytes {
		return fmt.Errorf("audio file is larger than %d MB", transcription.MaxUploadBytes>>20)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, cliLogger(cfg, transcribeVerbose), nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	filename := filepath.Base(transcribeInputFile)

	if !transcribeRephrase {
		result, err := a.enhancer.Transcribe(ctx, data, filename)
		if err != nil {
			return err
		}
		if err := validateTranscription(result); err != nil {
			return err
		}
		if transcribeJSON {
			return writeJSON(cmd, result)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintTranscription(result)
		return nil
	}

	result, err := a.enhancer.ProcessAudio(ctx, rewriting.AudioRequest{
		Data:     data,
		Filename: filename,
		Tone:     types.ParseTone(transcribeTone),
	})
	if err != nil {
		return err
	}
	if err := validateTranscription(result.Transcription); err != nil {
		return err
	}
	if err := schemas.ValidateRephrasingResult(result.Rephrasing); err != nil {
		return fmt.Errorf("result failed schema validation: %w", err)
	}

	if transcribeJSON {
		return writeJSON(cmd, result)
	}
	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintTranscription(result.Transcription)
	printer.PrintRephrasing(result.Rephrasing)
	return nil
}

func validateTranscription(result *types.TranscriptionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal transcription: %w", err)
	}
	if err := schemas.Validate(schemas.TranscriptionResult, data); err != nil {
		return fmt.Errorf("transcription failed schema validation: %w", err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
