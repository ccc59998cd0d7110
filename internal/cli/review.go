package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/pipeline"
	"github.com/brianndofor/trialrev/internal/protocol"
	"github.com/brianndofor/trialrev/internal/score"
	"github.com/brianndofor/trialrev/internal/section"
	"github.com/brianndofor/trialrev/internal/store"
)

type reviewOptions struct {
	roles   []string
	isolate bool
	format  string
	noSave  bool
}

func NewReviewCmd() *cobra.Command {
	var opts reviewOptions

	cmd := &cobra.Command{
		Use:   "review <protocol-file|->",
		Short: "Run the reviewer panel, extract amendment risks and score them",
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
			return runReview(cmd, app, args[0], text, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.roles, "roles", nil, "Reviewer roles (default from config)")
	cmd.Flags().BoolVar(&opts.isolate, "isolate", false, "Keep going when a reviewer fails")
	cmd.Flags().StringVar(&opts.format, "format", "text", "text|json|md")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not record the run in the local store")
	return cmd
}

func runReview(cmd *cobra.Command, app *App, source string, text string, opts reviewOptions) error {
	p, err := app.Pipeline()
	if err != nil {
		return err
	}
	roles := opts.roles
	if len(roles) == 0 {
		roles = app.Config.Review.Roles
	}
	isolate := opts.isolate || app.Config.Review.Isolate

	doc := p.Segment(text)
	assessment, err := p.Assess(cmd.Context(), doc, roles, isolate)
	if err != nil {
		return err
	}

	report := buildReport(doc, source, roles, assessment)
	report.RunID = uuid.NewString()
	if !opts.noSave {
		if err := saveRun(app, doc, source, report); err != nil {
			return err
		}
	}
	printFailures(cmd.ErrOrStderr(), report.Failed)
	return printReport(cmd.OutOrStdout(), report, app.roleLabel, opts.format)
}

func buildReport(doc *protocol.Store, source string, roles []string, a pipeline.Assessment) Report {
	r := Report{
		Digest:    doc.Digest(),
		Source:    source,
		Roles:     roles,
		Feedback:  a.Feedback,
		RiskOK:    a.RiskResult.OK,
		RiskError: a.RiskResult.Err,
		Risks:     a.Risks,
		Score:     a.Score,
		Band:      score.Band(a.Score),
	}
	for _, f := range a.Failed {
		r.Failed = append(r.Failed, FailedRole{Role: f.Role, Error: f.Err.Error()})
	}
	return r
}

func saveRun(app *App, doc *protocol.Store, source string, r Report) error {
	if err := app.Store.UpsertProtocol(store.Protocol{
		Digest:       doc.Digest(),
		Source:       source,
		Title:        protocolTitle(doc),
		RawText:      doc.GetAll(),
		SectionCount: len(doc.Titles()),
	}); err != nil {
		return err
	}
	feedbackJSON, err := json.Marshal(r.Feedback)
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}
	risksJSON, err := json.Marshal(r.Risks)
	if err != nil {
		return fmt.Errorf("failed to encode risks: %w", err)
	}
	return app.Store.UpsertRun(store.ReviewRun{
		ID:             r.RunID,
		ProtocolDigest: r.Digest,
		Roles:          r.Roles,
		FeedbackJSON:   string(feedbackJSON),
		RisksJSON:      string(risksJSON),
		RiskOK:         r.RiskOK,
		Score:          r.Score,
	})
}

// protocolTitle is the first non-blank line of the protocol, cut to a
// readable length.
func protocolTitle(doc *protocol.Store) string {
	for _, l := range strings.Split(doc.GetAll(), "\n") {
		l = strings.Trim(strings.TrimSpace(l), "*# ")
		if l == "" {
			continue
		}
		if r := []rune(l); len(r) > 80 {
			l = string(r[:80])
		}
		return l
	}
	return section.IntroductionTitle
}
