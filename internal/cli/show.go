package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/score"
	"github.com/brianndofor/trialrev/internal/store"
)

func NewShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [protocol-digest|run-id]",
		Short: "Show the latest saved run for a protocol, or list reviewed protocols",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listProtocols(cmd, app)
			}
			key, err := resolveDigest(app, args[0])
			if err != nil {
				return err
			}
			run, err := app.Store.GetRun(key)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no saved run for %s; run `trialrev review <file>` first", args[0])
				}
				return err
			}
			report, err := reportFromRun(app, run)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, app.roleLabel, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "text|json|md")
	return cmd
}

// resolveDigest expands a digest prefix of at least 6 characters to the
// full digest. Anything else is returned unchanged.
func resolveDigest(app *App, key string) (string, error) {
	if len(key) < 6 {
		return key, nil
	}
	protocols, err := app.Store.ListProtocols()
	if err != nil {
		return "", err
	}
	var match string
	for _, p := range protocols {
		if len(p.Digest) >= len(key) && p.Digest[:len(key)] == key {
			if match != "" {
				return "", fmt.Errorf("digest prefix %s is ambiguous", key)
			}
			match = p.Digest
		}
	}
	if match == "" {
		return key, nil
	}
	return match, nil
}

func reportFromRun(app *App, run store.ReviewRun) (Report, error) {
	r := Report{
		RunID:  run.ID,
		Digest: run.ProtocolDigest,
		Roles:  run.Roles,
		RiskOK: run.RiskOK,
		Score:  run.Score,
		Band:   score.Band(run.Score),
	}
	if err := json.Unmarshal([]byte(run.FeedbackJSON), &r.Feedback); err != nil {
		return Report{}, fmt.Errorf("failed to decode saved feedback: %w", err)
	}
	if err := json.Unmarshal([]byte(run.RisksJSON), &r.Risks); err != nil {
		return Report{}, fmt.Errorf("failed to decode saved risks: %w", err)
	}
	if p, err := app.Store.GetProtocol(run.ProtocolDigest); err == nil {
		r.Source = p.Source
	}
	return r, nil
}

func listProtocols(cmd *cobra.Command, app *App) error {
	protocols, err := app.Store.ListProtocols()
	if err != nil {
		return err
	}
	if len(protocols) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reviewed protocols.")
		return nil
	}
	for _, p := range protocols {
		line := fmt.Sprintf("%s  %-40s  %s", shortDigest(p.Digest), p.Title, plural(p.SectionCount, "section"))
		if run, err := app.Store.GetRun(p.Digest); err == nil {
			line += fmt.Sprintf("  score %d", run.Score)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
