package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/sourcegraph/conc/pool"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor runs steps from an execution Plan.
type Executor struct {
	retries  int
	backoff  time.Duration
	parallel int
	failFast bool
	sleep    Sleeper
	logger   ports.Logger
}

// NewExecutor creates an Executor with the default retry policy and no
// parallelism.
func NewExecutor() *Executor {
	return &Executor{
		retries:  config.DefaultRetries,
		backoff:  config.DefaultBackoff,
		parallel: config.DefaultParallel,
		sleep:    sleepContext,
	}
}

// WithRetries returns an Executor that attempts retryable steps up to n times.
func (e *Executor) WithRetries(n int) *Executor {
	c := *e
	if n < 1 {
		n = 1
	}
	c.retries = n
	return &c
}

// WithBackoff returns an Executor whose first retry waits d; each later wait
// doubles up to config.MaxBackoff.
func (e *Executor) WithBackoff(d time.Duration) *Executor {
	c := *e
	c.backoff = d
	return &c
}

// WithParallel returns an Executor that runs up to n parallel-safe steps at once.
func (e *Executor) WithParallel(n int) *Executor {
	c := *e
	if n < 1 {
		n = 1
	}
	c.parallel = n
	return &c
}

// WithFailFast returns an Executor that stops scheduling after any failure.
func (e *Executor) WithFailFast(failFast bool) *Executor {
	c := *e
	c.failFast = failFast
	return &c
}

// WithSleeper returns an Executor that waits through s between attempts.
func (e *Executor) WithSleeper(s Sleeper) *Executor {
	c := *e
	if s != nil {
		c.sleep = s
	}
	return &c
}

// WithLogger returns an Executor that logs every step transition.
func (e *Executor) WithLogger(logger ports.Logger) *Executor {
	c := *e
	c.logger = logger
	return &c
}

// runState is shared by the steps of one run.
type runState struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	halted   bool
}

func (s *runState) record(id compiler.StepID, outcome Outcome, halt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[id.String()] = outcome
	if halt {
		s.halted = true
	}
}

func (s *runState) isHalted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

func (s *runState) failedDependency(step compiler.Step) (compiler.StepID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range step.DependsOn() {
		if s.outcomes[dep.String()] == OutcomeFailed {
			return dep, true
		}
	}
	return compiler.StepID{}, false
}

// Execute runs the plan and returns one result per entry, in plan order.
// Step failures are reported in the results; the error is reserved for
// failures of the executor itself.
func (e *Executor) Execute(ctx context.Context, plan *Plan) ([]StepResult, error) {
	entries := plan.Entries()
	results := make([]StepResult, len(entries))
	state := &runState{outcomes: make(map[string]Outcome, len(entries))}

	for i := 0; i < len(entries); {
		if e.parallel > 1 && compiler.IsParallelSafe(entries[i].Step()) {
			end := batchEnd(entries, i)
			if err := e.runBatch(ctx, entries[i:end], results[i:end], state); err != nil {
				return results[:i], err
			}
			i = end
			continue
		}

		result, err := e.runStep(ctx, entries[i].Step(), state)
		if err != nil {
			return results[:i], err
		}
		results[i] = result
		i++
	}

	return results, nil
}

// batchEnd returns the end of the run of consecutive parallel-safe entries
// starting at start that do not depend on each other.
func batchEnd(entries []PlanEntry, start int) int {
	members := make(map[string]bool)
	end := start
	for ; end < len(entries); end++ {
		step := entries[end].Step()
		if !compiler.IsParallelSafe(step) {
			break
		}
		dependsOnMember := false
		for _, dep := range step.DependsOn() {
			if members[dep.String()] {
				dependsOnMember = true
				break
			}
		}
		if dependsOnMember {
			break
		}
		members[step.ID().String()] = true
	}
	return end
}

func (e *Executor) runBatch(ctx context.Context, entries []PlanEntry, results []StepResult, state *runState) error {
	var (
		mu       sync.Mutex
		firstErr error
	)

	p := pool.New().WithMaxGoroutines(e.parallel)
	for i := range entries {
		i := i
		p.Go(func() {
			result, err := e.runStep(ctx, entries[i].Step(), state)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = result
		})
	}
	p.Wait()

	return firstErr
}

// runStep drives one step through its lifecycle.
func (e *Executor) runStep(ctx context.Context, step compiler.Step, state *runState) (StepResult, error) {
	id := step.ID()
	lc, err := newLifecycle(id.String())
	if err != nil {
		return StepResult{}, err
	}
	defer lc.stop()

	start := time.Now()
	delays := make([]time.Duration, 0)

	finish := func(outcome Outcome, reason Reason, cause error) (StepResult, error) {
		result := NewStepResult(id, outcome, cause).
			WithReason(reason).
			WithAttempts(lc.Attempts(), delays).
			WithDuration(time.Since(start))
		state.record(id, outcome, e.halts(step, result))
		e.logResult(ctx, result)
		return result, nil
	}
	fail := func(reason Reason, cause error) (StepResult, error) {
		if err := lc.send(statekit.Event{Type: EventFail}); err != nil {
			return StepResult{}, err
		}
		return finish(OutcomeFailed, reason, cause)
	}

	if dep, ok := state.failedDependency(step); ok {
		return fail(ReasonDependencyFailed, fmt.Errorf("%w: %s", ErrDependencyFailed, dep))
	}
	if state.isHalted() {
		return fail(ReasonAborted, ErrAborted)
	}
	if err := ctx.Err(); err != nil {
		return fail(ReasonCancelled, err)
	}

	rc := compiler.NewRunContext(ctx)
	satisfied, err := step.Precondition(rc)
	if err != nil {
		e.log(ctx, ports.LevelWarn, "precondition unknown, applying", id, ports.Err(err))
	}
	if err == nil && satisfied {
		if err := lc.send(statekit.Event{Type: EventSkip}); err != nil {
			return StepResult{}, err
		}
		return finish(OutcomeSkipped, ReasonNone, nil)
	}

	bound := 1
	if step.Retryable() {
		bound = e.retries
	}

	// The action and its postcondition outlive an interrupt so a package
	// transaction is never killed halfway.
	actionCtx := rc.WithContext(context.WithoutCancel(ctx))

	if err := lc.send(statekit.Event{Type: EventStart}); err != nil {
		return StepResult{}, err
	}
	for attempt := 1; ; attempt++ {
		e.log(ctx, ports.LevelDebug, "applying step", id, ports.F("attempt", attempt))
		applyErr := step.Apply(actionCtx.WithAttempt(attempt))

		if applyErr == nil {
			ok, postErr := step.Postcondition(actionCtx.WithAttempt(attempt))
			if postErr == nil && ok {
				if err := lc.send(statekit.Event{Type: EventSucceed}); err != nil {
					return StepResult{}, err
				}
				return finish(OutcomeApplied, ReasonNone, nil)
			}
			cause := ErrPostconditionNotMet
			if postErr != nil {
				cause = fmt.Errorf("%w: %w", ErrPostconditionNotMet, postErr)
			}
			return fail(ReasonPostconditionNotMet, cause)
		}

		if attempt >= bound || !compiler.IsTransient(applyErr) {
			return fail(failureReason(applyErr), applyErr)
		}

		delay := backoffDelay(e.backoff, attempt)
		if err := lc.send(statekit.Event{Type: EventRetry}); err != nil {
			return StepResult{}, err
		}
		e.log(ctx, ports.LevelWarn, "transient failure, retrying", id,
			ports.F("attempt", attempt), ports.F("delay", delay.String()), ports.Err(applyErr))
		delays = append(delays, delay)
		if err := e.sleep(ctx, delay); err != nil {
			return fail(ReasonCancelled, errors.Join(err, applyErr))
		}
		if err := lc.send(statekit.Event{Type: EventResume}); err != nil {
			return StepResult{}, err
		}
	}
}

// backoffDelay returns the wait after the given failed attempt: base doubled
// once per earlier attempt, saturating at config.MaxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := min(base, config.MaxBackoff)
	for i := 1; i < attempt && delay < config.MaxBackoff; i++ {
		delay = min(2*delay, config.MaxBackoff)
	}
	return delay
}

// halts reports whether a result stops scheduling of new steps. A critical
// step halts the run on any failure of its own; fail-fast halts on any
// failure that is not a consequence of an earlier one.
func (e *Executor) halts(step compiler.Step, result StepResult) bool {
	if !result.Failed() {
		return false
	}
	switch result.Reason() {
	case ReasonAborted, ReasonCancelled:
		return false
	case ReasonDependencyFailed:
		return compiler.IsCritical(step)
	}
	return compiler.IsCritical(step) || e.failFast
}

func (e *Executor) logResult(ctx context.Context, r StepResult) {
	fields := []ports.Field{ports.F("outcome", string(r.Outcome())), ports.F("attempt", r.Attempts())}
	level := ports.LevelInfo
	if r.Failed() {
		level = ports.LevelError
		fields = append(fields, ports.F("reason", string(r.Reason())), ports.Err(r.Error()))
	}
	e.log(ctx, level, "step finished", r.StepID(), fields...)
}

func (e *Executor) log(ctx context.Context, level ports.Level, msg string, id compiler.StepID, fields ...ports.Field) {
	if e.logger == nil {
		return
	}
	fields = append([]ports.Field{ports.F("step", id.String())}, fields...)
	switch level {
	case ports.LevelDebug:
		e.logger.Debug(ctx, msg, fields...)
	case ports.LevelInfo:
		e.logger.Info(ctx, msg, fields...)
	case ports.LevelWarn:
		e.logger.Warn(ctx, msg, fields...)
	default:
		e.logger.Error(ctx, msg, fields...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
