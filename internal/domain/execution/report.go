package execution

import "time"

// Exit codes for a completed run.
const (
	// ExitSuccess means every step reached its desired state.
	ExitSuccess = 0
	// ExitStepFailure means at least one step failed.
	ExitStepFailure = 1
)

// StepReport is the serializable summary of one StepResult.
type StepReport struct {
	StepID   string        `json:"step"`
	Outcome  Outcome       `json:"outcome"`
	Reason   Reason        `json:"reason,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration_ns"`
}

// Failure describes a failed step for the run summary.
type Failure struct {
	StepID string `json:"step"`
	Reason Reason `json:"reason"`
	Error  string `json:"error,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// Report aggregates the results of a run.
type Report struct {
	Applied  int          `json:"applied"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Steps    []StepReport `json:"steps"`
	Failures []Failure    `json:"failures"`
	ExitCode int          `json:"exit_code"`
}

// Summarize counts outcomes and collects failures in result order.
func Summarize(results []StepResult) Report {
	report := Report{
		Steps:    make([]StepReport, 0, len(results)),
		Failures: make([]Failure, 0),
		ExitCode: ExitSuccess,
	}

	for _, r := range results {
		report.Steps = append(report.Steps, StepReport{
			StepID:   r.StepID().String(),
			Outcome:  r.Outcome(),
			Reason:   r.Reason(),
			Attempts: r.Attempts(),
			Duration: r.Duration(),
		})

		switch r.Outcome() {
		case OutcomeApplied:
			report.Applied++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
			f := Failure{StepID: r.StepID().String(), Reason: r.Reason(), Stderr: r.Stderr()}
			if r.Error() != nil {
				f.Error = r.Error().Error()
			}
			report.Failures = append(report.Failures, f)
		}
	}

	if report.Failed > 0 {
		report.ExitCode = ExitStepFailure
	}
	return report
}

// Success reports whether the run completed without failures.
func (r Report) Success() bool {
	return r.Failed == 0
}
