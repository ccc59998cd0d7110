package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/protocol"
)

func NewSectionsCmd() *cobra.Command {
	var title string
	var find string
	var browse bool
	var format string

	cmd := &cobra.Command{
		Use:   "sections <protocol-file|->",
		Short: "Print one section, search sections by keyword, or browse them",
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

			switch {
			case browse:
				if !app.Config.TUI.Enabled {
					return fmt.Errorf("tui browser is disabled in config")
				}
				chosen, err := runSectionsTUI(doc.Sections())
				if err != nil {
					return err
				}
				if chosen == "" {
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(doc.GetSection(chosen)))
				return nil
			case title != "":
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(doc.GetSection(title)))
				return nil
			case find != "":
				matches := doc.Find(find)
				if len(matches) == 0 && format != "json" {
					fmt.Fprintf(cmd.OutOrStdout(), "No sections mention %q.\n", find)
					return nil
				}
				return printSections(cmd, matches, format)
			default:
				for _, t := range doc.Titles() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Print the section with this exact title (full_protocol for everything)")
	cmd.Flags().StringVar(&find, "find", "", "List sections whose title or body mentions a keyword")
	cmd.Flags().BoolVar(&browse, "tui", false, "Browse sections interactively")
	cmd.Flags().StringVar(&format, "format", "text", "text|json|md for --find")
	return cmd
}
