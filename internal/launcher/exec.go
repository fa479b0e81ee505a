// Package launcher runs the interpreter under test against a single script
// and captures how the process ended.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Exit status sentinels for runs that did not end with a normal exit.
const (
	ExitTimeout      = -1   // budget exceeded, process killed
	ExitLaunchError  = -2   // interpreter could not be started
	ExitHarnessError = -999 // the harness itself failed while handling the test
)

// DefaultMaxOutput caps each captured stream.
const DefaultMaxOutput = 1 << 20

// ErrInterpreterNotFound is returned by CheckInterpreter when the
// interpreter binary does not exist.
var ErrInterpreterNotFound = errors.New("interpreter not found")

// Outcome is the captured result of one interpreter invocation.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// TimedOut reports whether the run exceeded its budget.
func (o Outcome) TimedOut() bool { return o.ExitCode == ExitTimeout }

// LaunchFailed reports whether the interpreter never started.
func (o Outcome) LaunchFailed() bool { return o.ExitCode == ExitLaunchError }

// HarnessFault reports whether the outcome was synthesized after an
// internal harness failure.
func (o Outcome) HarnessFault() bool { return o.ExitCode == ExitHarnessError }

// HarnessFaultOutcome builds the synthetic outcome recorded when handling a
// test failed inside the harness.
func HarnessFaultOutcome(cause any, elapsed time.Duration) Outcome {
	return Outcome{
		ExitCode: ExitHarnessError,
		Stderr:   fmt.Sprintf("test harness error: %v", cause),
		Elapsed:  elapsed,
	}
}

// Runner invokes the interpreter as "<Interpreter> <script> --run".
type Runner struct {
	Interpreter string
	Timeout     time.Duration
	MaxOutput   int // bytes per stream
	Log         log.Logger
}

// Run executes one script. It never returns an error: timeouts and launch
// failures are reported through the sentinel exit codes.
func (r *Runner) Run(ctx context.Context, script string) Outcome {
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Interpreter, script, "--run")
	// Grandchildren inheriting the pipes must not keep Wait blocked.
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		r.logger().Debug("Script timed out", "script", script, "budget", r.Timeout)
		return Outcome{
			ExitCode: ExitTimeout,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("test timed out after %s", r.Timeout),
			Elapsed:  elapsed,
		}
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Outcome{
				ExitCode: exitStatus(exitErr.ProcessState),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Elapsed:  elapsed,
			}
		}
		if errors.Is(runErr, exec.ErrWaitDelay) {
			// Process exited; only a straggling pipe holder was cut off.
			return Outcome{
				ExitCode: exitStatus(cmd.ProcessState),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Elapsed:  elapsed,
			}
		}
		r.logger().Warn("Interpreter failed to launch", "interpreter", r.Interpreter, "err", runErr)
		return Outcome{
			ExitCode: ExitLaunchError,
			Stderr:   fmt.Sprintf("launching %s: %v", r.Interpreter, runErr),
			Elapsed:  elapsed,
		}
	}

	return Outcome{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Elapsed:  elapsed,
	}
}

// exitStatus maps a signal death to 128+signal so it can never collide
// with the negative sentinels.
func exitStatus(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}

func (r *Runner) logger() log.Logger {
	if r.Log == nil {
		return log.NewLogger(log.DiscardHandler())
	}
	return r.Log
}

// CheckInterpreter verifies the interpreter exists and is executable.
func CheckInterpreter(path string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w at %s", ErrInterpreterNotFound, path)
		}
		if IsPermissionDenied(err) {
			return fmt.Errorf("interpreter at %s is not executable: %w", path, err)
		}
		return fmt.Errorf("checking interpreter %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("%w at %s", ErrInterpreterNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("interpreter at %s is a directory", path)
	}
	return nil
}

// IsNotFound checks if the error indicates the command was not found
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound)
}

// IsPermissionDenied checks if the error indicates permission was denied
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrPermission)
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
