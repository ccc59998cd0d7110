package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewExtractCmd() *cobra.Command {
	var out string
	var yes bool

	cmd := &cobra.Command{
		Use:   "extract <protocol.pdf|.txt|.md>",
		Short: "Convert an uploaded protocol document to plain text",
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
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			return writeOutput(cmd, out, text, yes)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write text to this file instead of stdout")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Overwrite an existing output file without asking")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, text string, yes bool) error {
	if _, err := os.Stat(path); err == nil && !yes {
		ok, err := confirm(cmd, fmt.Sprintf("%s exists. Overwrite?", path), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
