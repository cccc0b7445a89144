package buildtest

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// WallTimeout is the default hard ceiling on a single build or test
// invocation, used when a session's configuration does not override it.
const WallTimeout = 180 * time.Second

// KillGrace is the default grace period a timed-out process is given to
// exit after being sent an interrupt before it is force-killed, used when
// a session's configuration does not override it.
const KillGrace = 15 * time.Second

// Timeouts bounds one build or test invocation. A zero Wall or Kill falls
// back to WallTimeout/KillGrace, so callers may pass a zero-value Timeouts
// to get the package defaults.
type Timeouts struct {
	Wall time.Duration
	Kill time.Duration
}

func (t Timeouts) orDefaults() Timeouts {
	if t.Wall <= 0 {
		t.Wall = WallTimeout
	}
	if t.Kill <= 0 {
		t.Kill = KillGrace
	}
	return t
}

// Result is the outcome of running a single command.
type Result struct {
	Output   string
	ExitCode int
	TimedOut bool
}

// Succeeded reports whether the command exited zero without timing out.
func (r Result) Succeeded() bool { return !r.TimedOut && r.ExitCode == 0 }

// Run executes cmd in dir, combining stdout and stderr, bounded by the
// package-default WallTimeout and KillGrace. Equivalent to
// RunWithTimeouts(ctx, dir, cmd, Timeouts{}).
func Run(ctx context.Context, dir string, cmd []string) (Result, error) {
	return RunWithTimeouts(ctx, dir, cmd, Timeouts{})
}

// RunWithTimeouts behaves like Run but lets the caller override the wall
// and kill-grace timeouts (e.g. from a session's configuration), falling
// back to the package defaults for any zero field.
func RunWithTimeouts(ctx context.Context, dir string, cmd []string, timeouts Timeouts) (Result, error) {
	if len(cmd) == 0 {
		return Result{}, nil
	}
	timeouts = timeouts.orDefaults()

	ctx, cancel := context.WithTimeout(ctx, timeouts.Wall)
	defer cancel()

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	c.Dir = dir
	// CommandContext's default Cancel is an immediate Kill; override it so a
	// timed-out build gets an interrupt first and the kill only lands after
	// the grace period (via WaitDelay).
	c.Cancel = func() error { return c.Process.Signal(interruptSignal()) }
	c.WaitDelay = timeouts.Kill
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	err := c.Run()

	result := Result{Output: out.String()}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// VerifyStatus classifies a full build-then-test verification pass.
type VerifyStatus string

const (
	VerifySuccess     VerifyStatus = "success"
	VerifyBuildFailed VerifyStatus = "build_failed"
	VerifyTestFailed  VerifyStatus = "test_failed"
)

// VerifyOutcome is the classified result of one verification pass: which
// stage failed (if any) and that stage's combined output.
type VerifyOutcome struct {
	Status VerifyStatus
	Output string
}

// Failed reports whether either stage failed.
func (o VerifyOutcome) Failed() bool { return o.Status != VerifySuccess }

// Verify runs cmds.BuildCmd then cmds.TestCmd in dir, each bounded by
// timeouts, classifying a non-zero build exit as VerifyBuildFailed and a
// non-zero test exit as VerifyTestFailed. The test stage only runs when the
// build stage succeeds. onSample may be nil (see RunMonitored).
func Verify(ctx context.Context, dir string, cmds Commands, timeouts Timeouts, onSample func(Severity, float64)) (VerifyOutcome, error) {
	build, err := RunMonitoredWithTimeouts(ctx, dir, cmds.BuildCmd, timeouts, onSample)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !build.Succeeded() {
		return VerifyOutcome{Status: VerifyBuildFailed, Output: build.Output}, nil
	}

	test, err := RunMonitoredWithTimeouts(ctx, dir, cmds.TestCmd, timeouts, onSample)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !test.Succeeded() {
		return VerifyOutcome{Status: VerifyTestFailed, Output: test.Output}, nil
	}
	return VerifyOutcome{Status: VerifySuccess}, nil
}

// RunMonitored behaves like Run but additionally samples system memory for
// the run's duration, invoking onSample for each reading (see MonitorMemory).
// onSample may be nil, in which case this is identical to Run.
func RunMonitored(ctx context.Context, dir string, cmd []string, onSample func(Severity, float64)) (Result, error) {
	return RunMonitoredWithTimeouts(ctx, dir, cmd, Timeouts{}, onSample)
}

// RunMonitoredWithTimeouts combines RunWithTimeouts and RunMonitored.
func RunMonitoredWithTimeouts(ctx context.Context, dir string, cmd []string, timeouts Timeouts, onSample func(Severity, float64)) (Result, error) {
	if onSample == nil {
		return RunWithTimeouts(ctx, dir, cmd, timeouts)
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go MonitorMemory(monitorCtx, onSample)

	return RunWithTimeouts(ctx, dir, cmd, timeouts)
}
