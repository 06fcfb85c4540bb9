package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
)

func TestStepResult_Predicates(t *testing.T) {
	id := compiler.MustNewStepID("pkg:base")

	tests := []struct {
		outcome Outcome
		success bool
		failed  bool
		skipped bool
	}{
		{OutcomeApplied, true, false, false},
		{OutcomeSkipped, true, false, true},
		{OutcomeFailed, false, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			r := NewStepResult(id, tt.outcome, nil)
			if r.Success() != tt.success || r.Failed() != tt.failed || r.Skipped() != tt.skipped {
				t.Errorf("Success/Failed/Skipped = %v/%v/%v, want %v/%v/%v",
					r.Success(), r.Failed(), r.Skipped(), tt.success, tt.failed, tt.skipped)
			}
		})
	}
}

func TestStepResult_With(t *testing.T) {
	cause := errors.New("boom")
	r := NewStepResult(compiler.MustNewStepID("pkg:base"), OutcomeFailed, cause).
		WithReason(ReasonPermanentFailure).
		WithAttempts(3, []time.Duration{2 * time.Second, 4 * time.Second}).
		WithDuration(time.Second)

	if r.StepID().String() != "pkg:base" {
		t.Errorf("StepID() = %s", r.StepID())
	}
	if r.Reason() != ReasonPermanentFailure {
		t.Errorf("Reason() = %s", r.Reason())
	}
	if !errors.Is(r.Error(), cause) {
		t.Errorf("Error() = %v", r.Error())
	}
	if r.Attempts() != 3 || len(r.Delays()) != 2 {
		t.Errorf("Attempts() = %d, Delays() = %v", r.Attempts(), r.Delays())
	}
	if r.Duration() != time.Second {
		t.Errorf("Duration() = %v", r.Duration())
	}
}
