package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/jonathan/notepolish/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxTermsToShow is the number of candidate terms listed before eliding
	maxTermsToShow = 8
)

// Printer renders pipeline results for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and wrapped content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range wrapLines(content, boxWidth-4) {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRephrasing outputs the rephrased text, detected intent and suggestions.
func (p *Printer) PrintRephrasing(result *types.RephrasingResult) {
	if result == nil {
		return
	}

	header := fmt.Sprintf("REPHRASED (tone: %s, intent: %s)", result.Tone, result.DetectedIntent)
	p.printBox(header, result.RephrasedText)
	p.PrintSuggestions(result.Suggestions)
}

// PrintTranscription outputs a transcription summary.
func (p *Printer) PrintTranscription(result *types.TranscriptionResult) {
	if result == nil {
		return
	}

	header := fmt.Sprintf("TRANSCRIPTION (%s, %.1fs)", result.Language, result.Duration)
	p.printBox(header, result.Text)
}

// PrintAnalysis outputs the offline analysis of a text: intent, complexity and
// the candidate terms that would be researched.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAnalysis(intent types.ContentIntent, complexity string, terms []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Intent:     %s\n", intent))
	sb.WriteString(fmt.Sprintf("Complexity: %s\n", complexity))
	if len(terms) == 0 {
		sb.WriteString("Terms:      (none)")
	} else {
		shown := terms
		if len(shown) > maxTermsToShow {
			shown = shown[:maxTermsToShow]
		}
		sb.WriteString("Terms:      " + strings.Join(shown, ", "))
	}
	p.printBox("ANALYSIS", sb.String())
}

// PrintSuggestions renders suggestions as a table with colored priorities.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSuggestions(suggestions []types.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(p.out, "No suggestions.")
		return
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Priority", "Type", "Suggestion"})
	table.SetBorder(false)
	table.SetAutoWrapText(true)
	table.SetColWidth(50)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, s := range suggestions {
		table.Append([]string{
			colorPriority(s.Priority),
			string(s.Type),
			s.Title + ": " + s.Description,
		})
	}
	table.Render()
}

func colorPriority(p types.Priority) string {
	switch p {
	case types.PriorityHigh:
		return color.New(color.FgRed, color.Bold).Sprint(string(p))
	case types.PriorityMedium:
		return color.New(color.FgYellow).Sprint(string(p))
	default:
		return color.New(color.FgCyan).Sprint(string(p))
	}
}

// wrapLines splits content on newlines and wraps each line at width runes.
func wrapLines(content string, width int) []string {
	var out []string
	for _, raw := range strings.Split(content, "\n") {
		words := strings.Fields(raw)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			for len([]rune(w)) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(w)
				out = append(out, string(r[:width]))
				w = string(r[width:])
			}
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) > width:
				out = append(out, line)
				line = w
			default:
				line += " " + w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
