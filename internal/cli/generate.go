package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/generator"
)

func NewGenerateCmd() *cobra.Command {
	var params generator.Params
	var out string
	var yes bool
	var review bool
	var format string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a new protocol from a title, indication and objectives",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			c, err := app.Completer()
			if err != nil {
				return err
			}
			gen, err := generator.New(c, app.Config.Model, app.Config.Generator, app.Logger)
			if err != nil {
				return err
			}
			text, err := gen.Draft(cmd.Context(), params)
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeOutput(cmd, out, text, yes); err != nil {
					return err
				}
			} else if !review {
				fmt.Fprint(cmd.OutOrStdout(), text)
			}
			if !review {
				return nil
			}
			source := out
			if source == "" {
				source = "generated"
			}
			return runReview(cmd, app, source, text, reviewOptions{format: format})
		},
	}
	cmd.Flags().StringVar(&params.StudyTitle, "title", "", "Study title")
	cmd.Flags().StringVar(&params.Indication, "indication", "", "Disease or condition")
	cmd.Flags().StringVar(&params.Objectives, "objectives", "", "Primary and secondary objectives")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the protocol to this file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Overwrite an existing output file without asking")
	cmd.Flags().BoolVar(&review, "review", false, "Review the drafted protocol right away")
	cmd.Flags().StringVar(&format, "format", "text", "Report format with --review: text|json|md")
	return cmd
}
