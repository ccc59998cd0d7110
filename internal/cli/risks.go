package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/risk"
	"github.com/brianndofor/trialrev/internal/score"
)

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

type risksJSON struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Risks []risk.Item `json:"risks"`
	Score int         `json:"score"`
}

func NewRisksCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "risks <feedback.json|->",
		Short: "Extract amendment risks from reviewer feedback (a JSON object of role to text)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var feedback map[string]string
			if err := json.Unmarshal(data, &feedback); err != nil {
				return fmt.Errorf("feedback must be a JSON object of role to text: %w", err)
			}
			p, err := app.Pipeline()
			if err != nil {
				return err
			}
			res := p.ExtractRisks(cmd.Context(), feedback)
			value := p.ComputeScore(res.Risks)

			switch format {
			case "json":
				return printJSON(cmd.OutOrStdout(), risksJSON{OK: res.OK, Error: res.Err, Risks: res.Risks, Score: value})
			case "text", "":
				if !res.OK {
					fmt.Fprintf(cmd.ErrOrStderr(), "risk extraction failed: %s\n", res.Err)
				}
				writeRisks(cmd.OutOrStdout(), res.Risks)
				printScoreLine(cmd.OutOrStdout(), value)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text|json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "text|json")
	return cmd
}

func NewScoreCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "score <risks.json|->",
		Short: "Score a JSON array of risks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			items, err := risk.Parse(string(data))
			if err != nil {
				return err
			}
			value := score.Compute(items)
			if format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{"score": value, "band": score.Band(value), "risks": len(items)})
			}
			printScoreLine(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "text|json")
	return cmd
}
