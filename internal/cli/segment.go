package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/protocol"
	"github.com/brianndofor/trialrev/internal/section"
)

type sectionJSON struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewSegmentCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "segment <protocol-file|->",
		Short: "Split a protocol into numbered sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			text, err := app.readDocument(cmd.Context(), cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			doc := protocol.NewWithLogger(text, app.Logger)
			return printSections(cmd, doc.Sections(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "text|json|md")
	return cmd
}

func printSections(cmd *cobra.Command, sections []section.Section, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		payload := make([]sectionJSON, 0, len(sections))
		for _, s := range sections {
			payload = append(payload, sectionJSON{Title: s.Title, Body: s.Body})
		}
		return printJSON(out, payload)
	case "md":
		for _, s := range sections {
			fmt.Fprintf(out, "## %s\n\n%s\n\n", s.Title, strings.TrimSpace(s.Body))
		}
		return nil
	case "text", "":
		fmt.Fprintln(out, plural(len(sections), "section"))
		for _, s := range sections {
			fmt.Fprintf(out, "- %s (%s)\n", s.Title, plural(countLines(s.Body), "line"))
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text|json|md)", format)
	}
}

func countLines(body string) int {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "\n") + 1
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
