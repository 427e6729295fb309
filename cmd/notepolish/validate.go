package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/schemas"
)

var validateSchema string

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate a saved result against its JSON schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", schemas.RephrasingResult,
		"Schema name: "+strings.Join(schemas.Names(), ", "))
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if err := schemas.Validate(validateSchema, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid %s\n", args[0], validateSchema)
	return err
}
