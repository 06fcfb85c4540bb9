package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
)

// PrintPlan outputs the ordered steps with their probed status and diffs.
func (a *Archstrap) PrintPlan(plan *execution.Plan, build *Build) {
	s := defaultStyles()
	summary := plan.Summary()

	a.printf("\n%s\n", s.Title.Render("archstrap plan"))
	a.printf("%s %s\n", s.Muted.Render("manifest:"), build.Source)
	a.printf("%s %s\n", s.Muted.Render("user:    "), build.User.Name)
	a.printf("%s %s\n\n", s.Muted.Render("features:"), strings.Join(build.Flags.EnabledNames(), ", "))

	for i, entry := range plan.Entries() {
		a.printf("%3d  %s %s\n", i+1, statusSymbol(s, entry.Status()), entry.Step().ID().String())

		if err := entry.Error(); err != nil {
			a.printf("       %s\n", s.Unknown.Render("unknown: "+err.Error()))
			continue
		}
		diff := entry.Diff()
		if diff.IsEmpty() || diff.Type() == compiler.DiffTypeNone {
			continue
		}
		a.printf("       %s\n", diff.Summary())
		for _, line := range detailLines(diff.Detail()) {
			a.printf("       %s\n", renderDiffLine(s, line))
		}
	}

	a.printf("\nSteps: %d total, %d to apply, %d satisfied, %d unknown\n",
		summary.Total, summary.NeedsApply, summary.Satisfied, summary.Unknown)
	if !plan.HasChanges() {
		a.printf("No changes needed. The system is up to date.\n")
	}
}

// PrintOrder outputs the bare step order without probing.
func (a *Archstrap) PrintOrder(plan *execution.Plan) {
	for i, step := range plan.Steps() {
		a.printf("%3d  %s\n", i+1, step.ID().String())
	}
}

// PrintRun outputs one line per step and the run summary.
func (a *Archstrap) PrintRun(run *Run) {
	s := defaultStyles()

	a.printf("\n%s %s\n\n", s.Title.Render("archstrap apply"), s.Muted.Render(run.ID))

	for _, r := range run.Results {
		line := fmt.Sprintf("  %s %s", outcomeSymbol(s, r.Outcome()), r.StepID().String())
		if r.Attempts() > 1 {
			line += s.Muted.Render(fmt.Sprintf(" (%d attempts)", r.Attempts()))
		}
		if r.Failed() {
			line += " " + s.Reason.Render(string(r.Reason()))
			if stderr := r.Stderr(); stderr != "" {
				line += s.Muted.Render(": " + stderr)
			} else if r.Error() != nil && r.Reason().ActionFailed() {
				line += s.Muted.Render(": " + r.Error().Error())
			}
		}
		a.printf("%s\n", line)
	}

	report := run.Report
	a.printf("\nSummary: %s, %s, %s\n",
		s.Applied.Render(fmt.Sprintf("%d applied", report.Applied)),
		s.Skipped.Render(fmt.Sprintf("%d skipped", report.Skipped)),
		failedStyle(s, report.Failed).Render(fmt.Sprintf("%d failed", report.Failed)))
}

// runJSON is the JSON shape of an apply.
type runJSON struct {
	RunID      string `json:"run_id"`
	FinishedAt string `json:"finished_at"`
	execution.Report
}

// WriteRunJSON outputs the run report as indented JSON.
func (a *Archstrap) WriteRunJSON(run *Run) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(runJSON{
		RunID:      run.ID,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Report:     run.Report,
	})
}

// printf is a helper that writes to the output writer, ignoring errors.
func (a *Archstrap) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func statusSymbol(s styles, status compiler.StepStatus) string {
	switch status {
	case compiler.StatusSatisfied:
		return s.Applied.Render("✓")
	case compiler.StatusNeedsApply:
		return s.Pending.Render("+")
	default:
		return s.Unknown.Render("?")
	}
}

func outcomeSymbol(s styles, outcome execution.Outcome) string {
	switch outcome {
	case execution.OutcomeApplied:
		return s.Applied.Render("✓")
	case execution.OutcomeSkipped:
		return s.Skipped.Render("-")
	default:
		return s.Failed.Render("✗")
	}
}

func failedStyle(s styles, failed int) lipgloss.Style {
	if failed > 0 {
		return s.Failed
	}
	return s.Muted
}

func detailLines(detail string) []string {
	if detail == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(detail, "\n"), "\n")
}

func renderDiffLine(s styles, line string) string {
	switch {
	case strings.HasPrefix(line, "+ "):
		return s.DiffAdd.Render(line)
	case strings.HasPrefix(line, "- "):
		return s.DiffRemove.Render(line)
	default:
		return s.Muted.Render(line)
	}
}
