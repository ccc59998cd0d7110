package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/brianndofor/trialrev/internal/risk"
	"github.com/brianndofor/trialrev/internal/score"
)

// Report is the consolidated result of one assessment as printed and
// saved.
type Report struct {
	RunID     string            `json:"run_id,omitempty"`
	Digest    string            `json:"protocol_digest"`
	Source    string            `json:"source,omitempty"`
	Roles     []string          `json:"roles"`
	Feedback  map[string]string `json:"feedback"`
	Failed    []FailedRole      `json:"failed,omitempty"`
	RiskOK    bool              `json:"risk_ok"`
	RiskError string            `json:"risk_error,omitempty"`
	Risks     []risk.Item       `json:"risks"`
	Score     int               `json:"score"`
	Band      string            `json:"band"`
}

type FailedRole struct {
	Role  string `json:"role"`
	Error string `json:"error"`
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func scoreColor(band string) *color.Color {
	switch band {
	case score.BandLow:
		return color.New(color.FgGreen, color.Bold)
	case score.BandModerate:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func severityColor(s risk.Severity) *color.Color {
	switch s {
	case risk.High:
		return color.New(color.FgRed)
	case risk.Medium:
		return color.New(color.FgYellow)
	case risk.Low:
		return color.New(color.FgGreen)
	default:
		return color.New(color.Reset)
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

func printScoreLine(w io.Writer, value int) {
	band := score.Band(value)
	scoreColor(band).Fprintf(w, "Amendment Risk Score: %d/100 (%s)\n", value, band)
}

func printFailures(w io.Writer, failed []FailedRole) {
	red := color.New(color.FgRed)
	for _, f := range failed {
		red.Fprintf(w, "%s: review failed: %s\n", f.Role, f.Error)
	}
}

func writeReport(w io.Writer, r Report, label func(string) string, markdown bool) {
	header := func(title string) {
		if markdown {
			fmt.Fprintf(w, "## %s\n", title)
			return
		}
		fmt.Fprintf(w, "%s\n", title)
	}
	line := func(text string) {
		fmt.Fprintln(w, text)
	}

	header("Protocol")
	if r.Source != "" {
		line(fmt.Sprintf("Source: %s", r.Source))
	}
	line(fmt.Sprintf("Digest: %s", shortDigest(r.Digest)))
	line("")

	header("Reviewer Feedback")
	for _, role := range r.Roles {
		text, ok := r.Feedback[role]
		if !ok {
			continue
		}
		if markdown {
			fmt.Fprintf(w, "### %s\n", label(role))
		} else {
			fmt.Fprintf(w, "[%s]\n", label(role))
		}
		line(strings.TrimSpace(text))
		line("")
	}
	for _, f := range r.Failed {
		line(fmt.Sprintf("%s: review failed: %s", f.Role, f.Error))
	}
	if len(r.Failed) > 0 {
		line("")
	}

	header("Amendment Risks")
	writeRisks(w, r.Risks)
	line("")
	printScoreLine(w, r.Score)
}

func writeRisks(w io.Writer, risks []risk.Item) {
	if len(risks) == 0 {
		fmt.Fprintln(w, "No amendment risks identified.")
		return
	}
	for _, item := range risks {
		fmt.Fprint(w, "- ")
		severityColor(item.Severity).Fprintf(w, "[%s]", item.Severity)
		fmt.Fprintf(w, " %s\n", item.Description)
		fmt.Fprintf(w, "    Rationale: %s\n", item.Rationale)
		fmt.Fprintf(w, "    Recommendation: %s\n", item.Recommendation)
	}
}

func printReport(w io.Writer, r Report, label func(string) string, format string) error {
	switch format {
	case "json":
		return printJSON(w, r)
	case "md":
		writeReport(w, r, label, true)
		return nil
	case "text", "":
		writeReport(w, r, label, false)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text|json|md)", format)
	}
}
