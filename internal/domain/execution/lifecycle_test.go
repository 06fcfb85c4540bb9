package execution

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
)

func sendAll(t *testing.T, lc *lifecycle, events ...statekit.EventType) {
	t.Helper()
	for _, e := range events {
		if err := lc.send(statekit.Event{Type: e}); err != nil {
			t.Fatalf("send(%s) error = %v", e, err)
		}
	}
}

func assertHistory(t *testing.T, got []StepState, want ...StepState) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
}

func TestLifecycle_Skip(t *testing.T) {
	lc, err := newLifecycle("pkg:base")
	if err != nil {
		t.Fatalf("newLifecycle() error = %v", err)
	}
	defer lc.stop()

	sendAll(t, lc, EventSkip)

	if lc.State() != StateSkipped {
		t.Errorf("state = %s, want skipped", lc.State())
	}
	if lc.Attempts() != 0 {
		t.Errorf("attempts = %d, want 0", lc.Attempts())
	}
	assertHistory(t, lc.History(), StatePending, StateSkipped)
}

func TestLifecycle_RetryThenApply(t *testing.T) {
	lc, err := newLifecycle("git:dotfiles")
	if err != nil {
		t.Fatalf("newLifecycle() error = %v", err)
	}
	defer lc.stop()

	sendAll(t, lc, EventStart, EventRetry, EventResume, EventSucceed)

	if lc.Attempts() != 2 {
		t.Errorf("attempts = %d, want 2", lc.Attempts())
	}
	assertHistory(t, lc.History(),
		StatePending, StateRunning, StateRetryWait, StateRunning, StateApplied)
}

func TestLifecycle_FailFromPending(t *testing.T) {
	lc, err := newLifecycle("file:motd")
	if err != nil {
		t.Fatalf("newLifecycle() error = %v", err)
	}
	defer lc.stop()

	sendAll(t, lc, EventFail)
	if lc.State() != StateFailed {
		t.Errorf("state = %s, want failed", lc.State())
	}
}

func TestLifecycle_RejectsInvalidTransition(t *testing.T) {
	lc, err := newLifecycle("file:motd")
	if err != nil {
		t.Fatalf("newLifecycle() error = %v", err)
	}
	defer lc.stop()

	if err := lc.send(statekit.Event{Type: EventSucceed}); err == nil {
		t.Error("SUCCEED from pending should be rejected")
	}
	sendAll(t, lc, EventSkip)
	if err := lc.send(statekit.Event{Type: EventStart}); err == nil {
		t.Error("START from skipped should be rejected")
	}
	assertHistory(t, lc.History(), StatePending, StateSkipped)
}

func TestLifecycle_TerminalStatesAreFinal(t *testing.T) {
	for _, path := range [][]statekit.EventType{
		{EventSkip},
		{EventStart, EventSucceed},
		{EventStart, EventFail},
	} {
		lc, err := newLifecycle("file:motd")
		if err != nil {
			t.Fatalf("newLifecycle() error = %v", err)
		}
		sendAll(t, lc, path...)
		if !lc.interp.Done() {
			t.Errorf("%v: state %s is not final", path, lc.State())
		}
		for _, e := range []statekit.EventType{EventStart, EventRetry, EventSucceed, EventFail, "RESET"} {
			if err := lc.send(statekit.Event{Type: e}); err == nil {
				t.Errorf("%v: %s left terminal state %s", path, e, lc.State())
			}
		}
		lc.stop()
	}
}
