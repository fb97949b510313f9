// Package testcase implements the verdict classifier for a single report
// file: it owns the lifecycle of one application process and decides from the
// process's window state whether the report loaded successfully.
package testcase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/LinqLover/pbi-crash-tests/pkg/icons"
	"github.com/LinqLover/pbi-crash-tests/pkg/imagematch"
	"github.com/LinqLover/pbi-crash-tests/pkg/snapshot"
	"github.com/LinqLover/pbi-crash-tests/pkg/winsys"
)

// ReadyTitleSuffix marks the main application window once a report has
// finished loading. A single visible window carrying this suffix is the pass
// signal.
const ReadyTitleSuffix = " - Power BI Desktop"

// Verdict is the classification outcome for a test case. It is write-once:
// once passed or failed, it never changes.
type Verdict int

const (
	// VerdictNone means the case has not been decided yet.
	VerdictNone Verdict = iota
	// VerdictPassed means the report loaded into a stable ready window.
	VerdictPassed
	// VerdictFailed means a failure condition was observed.
	VerdictFailed
)

func (v Verdict) String() string {
	switch v {
	case VerdictPassed:
		return "passed"
	case VerdictFailed:
		return "failed"
	default:
		return "undecided"
	}
}

// Options configures a test case.
type Options struct {
	// Report is the path of the report file under test.
	Report string
	// Executable is the path of the application binary.
	Executable string
	// PreLoadDelay is slept after launching the process, before the first
	// window inventory. A fixed grace period, deliberately not adaptive.
	PreLoadDelay time.Duration
	// LoadDelay is how long the caller should wait between a pass candidate
	// and its confirming check.
	LoadDelay time.Duration
	// Icons is the shared read-only failure icon library.
	Icons icons.Library
	// Threshold is the icon similarity threshold; defaults to
	// imagematch.DefaultThreshold.
	Threshold float64
	// System and Launcher give access to the window system and process
	// control. Tests inject fakes here.
	System   winsys.System
	Launcher winsys.Launcher
	// Sleep defaults to time.Sleep and exists so tests run without timing.
	Sleep func(time.Duration)
}

// TestCase classifies one report as passed or failed. It never times out by
// itself; the runner enforces the wall clock and treats a case that is still
// undecided as timed out.
type TestCase struct {
	opts      Options
	threshold float64
	sleep     func(time.Duration)
	log       *logrus.Entry

	proc winsys.Process
	snap *snapshot.Process

	verdict Verdict
	reason  string
	// pendingConfirmation is set when one check observed the ready window. A
	// pass requires the next check to observe it again; a single transient
	// ready-looking window must not pass.
	pendingConfirmation bool
}

func New(opts Options) *TestCase {
	tc := &TestCase{
		opts:      opts,
		threshold: opts.Threshold,
		sleep:     opts.Sleep,
	}
	if tc.threshold == 0 {
		tc.threshold = imagematch.DefaultThreshold
	}
	if tc.sleep == nil {
		tc.sleep = time.Sleep
	}
	if tc.opts.Launcher == nil {
		tc.opts.Launcher = winsys.NewLauncher()
	}
	tc.log = logrus.WithField("case", tc.Name())
	return tc
}

// Name is the case's display name, the report file's base name.
func (tc *TestCase) Name() string {
	base := filepath.Base(tc.opts.Report)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (tc *TestCase) Verdict() Verdict {
	return tc.verdict
}

// Reason describes why the case failed. Empty unless the verdict is failed.
func (tc *TestCase) Reason() string {
	return tc.reason
}

// PendingConfirmation reports whether the last check observed a pass
// candidate that still needs confirming. The caller should wait LoadDelay
// before the next check.
func (tc *TestCase) PendingConfirmation() bool {
	return tc.pendingConfirmation
}

func (tc *TestCase) LoadDelay() time.Duration {
	return tc.opts.LoadDelay
}

// Start launches the application with the report as its sole argument, sleeps
// the pre-load delay and takes the first process snapshot.
func (tc *TestCase) Start() error {
	if tc.proc != nil {
		return fmt.Errorf("test case %s was already started", tc.Name())
	}
	tc.log.WithField("executable", tc.opts.Executable).Info("Launching application")
	proc, err := tc.opts.Launcher.Launch(tc.opts.Executable, tc.opts.Report)
	if err != nil {
		return fmt.Errorf("failed to start test case %s: %w", tc.Name(), err)
	}
	tc.proc = proc

	tc.log.WithField("delay", tc.opts.PreLoadDelay).Debug("Waiting for application to settle")
	tc.sleep(tc.opts.PreLoadDelay)

	snap, err := snapshot.NewProcess(tc.opts.System, proc)
	if err != nil {
		return fmt.Errorf("failed to take initial window snapshot for %s: %w", tc.Name(), err)
	}
	tc.snap = snap
	return nil
}

// Check runs one classification pass. Once a verdict is set, Check is a no-op
// and returns the settled verdict. A returned error is an environment
// problem, not a verdict.
func (tc *TestCase) Check() (Verdict, error) {
	if tc.verdict != VerdictNone {
		return tc.verdict, nil
	}
	if tc.proc == nil {
		return VerdictNone, fmt.Errorf("test case %s was not started", tc.Name())
	}

	exited, err := tc.proc.HasExited()
	if err != nil {
		return VerdictNone, err
	}
	if exited {
		tc.fail("process terminated unexpectedly")
		return tc.verdict, nil
	}

	if err := tc.snap.Update(); err != nil {
		return VerdictNone, err
	}
	windows := tc.snap.Windows

	if len(windows) == 1 && strings.HasSuffix(windows[0].Title, ReadyTitleSuffix) {
		if tc.pendingConfirmation {
			tc.pass()
		} else {
			// A transient splash or loading window can look ready for a
			// moment. Require the observation to hold across two checks.
			tc.pendingConfirmation = true
			tc.log.Debug("Observed ready window, awaiting confirmation")
		}
		return tc.verdict, nil
	}
	tc.pendingConfirmation = false

	if !anyTitled(windows) {
		tc.fail("no valid window opened")
		return tc.verdict, nil
	}

	for _, icon := range tc.opts.Icons {
		for i, w := range windows {
			if match, similarity := w.DisplaysIcon(icon, tc.threshold); match {
				tc.fail(fmt.Sprintf("window %d displays failure icon %q (similarity %.4f)", i, icon.Name, similarity))
				return tc.verdict, nil
			}
		}
	}

	// Nothing decisive this round, poll again.
	return VerdictNone, nil
}

// anyTitled reports whether at least one window carries a non-blank title. A
// blank title indicates a window that has not rendered yet; error dialogs
// always carry text.
func anyTitled(windows []*snapshot.Window) bool {
	for _, w := range windows {
		if strings.TrimSpace(w.Title) != "" {
			return true
		}
	}
	return false
}

func (tc *TestCase) pass() {
	tc.verdict = VerdictPassed
	tc.pendingConfirmation = false
	tc.log.Info("Report loaded successfully")
}

func (tc *TestCase) fail(reason string) {
	tc.verdict = VerdictFailed
	tc.reason = reason
	tc.pendingConfirmation = false
	tc.log.WithField("reason", reason).Info("Report failed to load")
}

// Stop force-terminates the application if it is still running. Safe to call
// at any point, including before Start and after the process exited.
func (tc *TestCase) Stop() error {
	if tc.proc == nil {
		return nil
	}
	return tc.proc.Kill()
}

// SaveResults writes the screenshots of the currently visible windows below
// dir, in a subdirectory named after the report.
func (tc *TestCase) SaveResults(fs afero.Fs, dir string) error {
	if tc.snap == nil {
		return nil
	}
	return tc.snap.SaveArtifacts(fs, filepath.Join(dir, tc.Name()))
}
