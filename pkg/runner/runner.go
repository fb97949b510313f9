// Package runner drives test cases through their polling loop, enforces the
// per-case wall-clock timeout and aggregates the verdicts of a suite.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/LinqLover/pbi-crash-tests/pkg/junit"
	"github.com/LinqLover/pbi-crash-tests/pkg/testcase"
)

// State is the final outcome of a test case as seen by the runner. It is a
// superset of the case's own verdict: the runner adds timed-out for cases
// that never decided, and errored for cases that could not be evaluated.
type State string

const (
	StatePassed   State = "passed"
	StateFailed   State = "failed"
	StateTimedOut State = "timed-out"
	StateErrored  State = "errored"
)

// Result is the outcome of one test case.
type Result struct {
	Name     string
	State    State
	Reason   string
	Duration time.Duration
}

// Results aggregates the outcomes of a suite run, in execution order.
type Results []Result

// Passed reports whether every case in the suite passed.
func (rs Results) Passed() bool {
	for _, r := range rs {
		if r.State != StatePassed {
			return false
		}
	}
	return true
}

// JUnit renders the results as a jUnit test suite. Timed-out and errored
// cases count as failures, with the distinction kept in the message.
func (rs Results) JUnit() *junit.TestSuites {
	suite := &junit.TestSuite{Name: "pbi-crash-tests"}
	var total time.Duration
	for _, r := range rs {
		total += r.Duration
		tc := &junit.TestCase{
			Name:     r.Name,
			Duration: r.Duration.Seconds(),
		}
		if r.State != StatePassed {
			tc.FailureOutput = &junit.FailureOutput{
				Message: fmt.Sprintf("%s: %s", r.State, r.Reason),
			}
			suite.NumFailed++
		}
		suite.NumTests++
		suite.TestCases = append(suite.TestCases, tc)
	}
	suite.Duration = total.Seconds()
	return &junit.TestSuites{Suites: []*junit.TestSuite{suite}}
}

// Options configures a Runner.
type Options struct {
	// Timeout is the wall-clock budget per test case, including the pre-load
	// delay. A case that has no verdict when it elapses is timed out.
	Timeout time.Duration
	// Interval is slept between classification passes.
	Interval time.Duration
	// ArtifactsDir receives window screenshots per case when non-empty.
	ArtifactsDir string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Sleep and Now exist so tests run without timing.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// Runner executes test cases sequentially. Cases share the machine's screen
// and foreground focus, so there is deliberately no parallelism.
type Runner struct {
	opts Options
}

func New(opts Options) *Runner {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run executes all cases and returns their results. A canceled context stops
// the run after the current classification pass.
func (r *Runner) Run(ctx context.Context, cases []*testcase.TestCase) Results {
	results := make(Results, 0, len(cases))
	for _, tc := range cases {
		if ctx.Err() != nil {
			logrus.Warn("Run interrupted, skipping remaining test cases")
			break
		}
		result := r.runCase(ctx, tc)
		logrus.WithFields(logrus.Fields{
			"case":     result.Name,
			"state":    result.State,
			"duration": result.Duration.Round(time.Millisecond),
		}).Info("Test case finished")
		results = append(results, result)
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, tc *testcase.TestCase) (result Result) {
	start := r.opts.Now()
	result = Result{Name: tc.Name()}
	defer func() {
		result.Duration = r.opts.Now().Sub(start)
		if err := tc.Stop(); err != nil {
			logrus.WithError(err).WithField("case", tc.Name()).Error("Could not stop application process")
		}
		if r.opts.ArtifactsDir != "" {
			if err := tc.SaveResults(r.opts.Fs, r.opts.ArtifactsDir); err != nil {
				logrus.WithError(err).WithField("case", tc.Name()).Error("Could not save window screenshots")
			}
		}
	}()

	if err := tc.Start(); err != nil {
		result.State = StateErrored
		result.Reason = err.Error()
		return result
	}
	deadline := start.Add(r.opts.Timeout)

	for {
		verdict, err := tc.Check()
		if err != nil {
			// Environment problem, distinct from the report failing its
			// acceptance criteria.
			result.State = StateErrored
			result.Reason = err.Error()
			return result
		}
		switch verdict {
		case testcase.VerdictPassed:
			result.State = StatePassed
			return result
		case testcase.VerdictFailed:
			result.State = StateFailed
			result.Reason = tc.Reason()
			return result
		}

		if !r.opts.Now().Before(deadline) {
			result.State = StateTimedOut
			result.Reason = fmt.Sprintf("timed out after %s with no verdict", r.opts.Timeout)
			return result
		}
		if ctx.Err() != nil {
			result.State = StateErrored
			result.Reason = "run was interrupted"
			return result
		}

		delay := r.opts.Interval
		if tc.PendingConfirmation() {
			// Give the candidate pass window time to settle before the
			// confirming check.
			delay = tc.LoadDelay()
		}
		r.sleep(ctx, delay)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	if r.opts.Sleep != nil {
		r.opts.Sleep(d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
