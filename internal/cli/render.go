package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
)

// RenderResult renders the terminal record of a run as a box titled with
// the agent that produced it.
func RenderResult(r *pipeline.Result) string {
	lines := []string{
		field("Input", r.Input),
		field("Path", renderPath(r)),
	}

	if a, ok := r.Analysis(); ok {
		lines = append(lines,
			field("Intent", InfoStyle.Render(string(a.Intent))),
			field("Confidence", formatScore(a.Confidence)),
			field("Safety flag", formatFlag(a.SafetyFlag)),
			field("Reason", a.Reason),
		)
		lines = append(lines, detailLines(a.Details())...)
	}

	if d, ok := r.Decision(); ok {
		lines = append(lines,
			field("Decision", OutcomeStyle(string(d.Decision)).Render(string(d.Decision))),
			field("Confidence", formatScore(d.Confidence)),
		)
		if d.NextAction != "" {
			lines = append(lines, field("Next action", string(d.NextAction)))
		}
		lines = append(lines, field("Reason", d.Reason))
	}

	if v, ok := r.Validation(); ok {
		lines = append(lines,
			field("Compliance", OutcomeStyle(string(v.ComplianceStatus)).Render(string(v.ComplianceStatus))),
			field("Risk score", formatScore(v.RiskScore)),
			field("Confidence", formatScore(v.Confidence)),
			field("Recommend", string(v.Recommendation)),
			field("Amount", v.Amount.String()),
			field("Recipient", v.Recipient),
		)
		if v.TransactionID != "" {
			lines = append(lines, field("Transaction", v.TransactionID))
		}
		if v.ReviewData != "" {
			lines = append(lines, field("Review", v.ReviewData))
		}
		if v.Message != "" {
			lines = append(lines, field("Message", v.Message))
		}
	}

	if x, ok := r.Execution(); ok {
		lines = append(lines,
			field("Status", OutcomeStyle(string(x.Decision)).Render(string(x.Decision))),
			field("Transaction", x.TransactionID),
			field("Amount", x.Amount.String()),
			field("Recipient", x.Recipient),
		)
		if x.Message != "" {
			lines = append(lines, field("Message", x.Message))
		}
		if x.Reason != "" {
			lines = append(lines, field("Reason", x.Reason))
		}
	}

	lines = append(lines, SubtleStyle.Render("run "+r.RunID))

	return RenderBox(r.Stage().Agent(), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderRuns writes journaled runs as a table.
func RenderRuns(w io.Writer, runs []storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("ID"),
		TableHeaderStyle.Render("Created"),
		TableHeaderStyle.Render("Stage"),
		TableHeaderStyle.Render("Outcome"),
		TableHeaderStyle.Render("Hand-offs"),
		TableHeaderStyle.Render("Input")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 36),
		strings.Repeat("─", 16),
		strings.Repeat("─", 10),
		strings.Repeat("─", 11),
		strings.Repeat("─", 9),
		strings.Repeat("─", 30)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, run := range runs {
		outcome := run.Outcome
		if run.Status == storage.RunFailed {
			outcome = string(storage.RunFailed)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Stage,
			OutcomeStyle(outcome).Render(outcome),
			run.HandoffCount,
			truncate(run.Input, 48)); err != nil {
			return fmt.Errorf("failed to write run row: %w", err)
		}
	}

	return tw.Flush()
}

// RenderRun renders a single journaled run with its stored records.
func RenderRun(run *storage.Run) string {
	lines := []string{
		field("ID", run.ID),
		field("Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		field("Input", run.Input),
		field("Status", OutcomeStyle(string(run.Status)).Render(string(run.Status))),
		field("Stage", string(run.Stage)),
		field("Hand-offs", strconv.Itoa(run.HandoffCount)),
	}
	if run.Outcome != "" {
		lines = append(lines, field("Outcome", OutcomeStyle(run.Outcome).Render(run.Outcome)))
	}
	if run.Error != "" {
		lines = append(lines, field("Error", ErrorStyle.Render(run.Error)))
	}
	if len(run.Result) > 0 {
		lines = append(lines, "", LabelStyle.Render("Result"), indentJSON(run.Result))
	}
	if run.HandoffCount > 0 {
		lines = append(lines, "", LabelStyle.Render("Hand-offs"), indentJSON(run.Handoffs))
	}

	return RenderBox("Run "+shortID(run.ID), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderPath(r *pipeline.Result) string {
	stages := append(r.Context.Stages(), r.Stage())
	agents := make([]string, len(stages))
	for i, s := range stages {
		agents[i] = s.Agent()
	}
	return strings.Join(agents, " "+ArrowIcon+" ")
}

func detailLines(d model.TransactionDetails) []string {
	var lines []string
	if d.Amount != nil {
		amount := d.Amount.String()
		if asset := d.AssetValue(); asset != "" {
			amount += " " + asset
		}
		lines = append(lines, field("Amount", amount))
	}
	if r := d.RecipientValue(); r != "" {
		lines = append(lines, field("Recipient", r))
	}
	if m := d.MemoValue(); m != "" {
		lines = append(lines, field("Memo", m))
	}
	return lines
}

func field(label, value string) string {
	return LabelStyle.Render(label) + value
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatFlag(flagged bool) string {
	if flagged {
		return WarningStyle.Render("raised")
	}
	return SubtleStyle.Render("clear")
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
