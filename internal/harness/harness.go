// Package harness drives the interpreter over every declared test, one at a
// time, and collects the classified results into a Record.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"conform/internal/launcher"
	"conform/internal/suite"
	"conform/internal/verdict"
)

// ScriptRunner executes one script and captures its outcome.
type ScriptRunner interface {
	Run(ctx context.Context, script string) launcher.Outcome
}

// Observer is notified as each test starts and finishes.
type Observer interface {
	TestStarted(decl suite.Declaration)
	TestFinished(entry Entry)
}

// Harness runs declarations sequentially.
type Harness struct {
	Runner   ScriptRunner
	Log      log.Logger
	Observer Observer // optional

	now func() time.Time
}

// New returns a Harness using runner and logger.
func New(runner ScriptRunner, logger log.Logger, obs Observer) *Harness {
	return &Harness{
		Runner:   runner,
		Log:      logger.New("component", "harness"),
		Observer: obs,
		now:      time.Now,
	}
}

// Run executes every declaration in order. A cancelled context stops the
// run before the next test starts; the record then holds what completed.
func (h *Harness) Run(ctx context.Context, decls []suite.Declaration) (Record, error) {
	now := h.now
	if now == nil {
		now = time.Now
	}
	rec := Record{
		RunID:     uuid.New().String(),
		StartedAt: now().UTC(),
		Entries:   make([]Entry, 0, len(decls)),
	}
	h.logger().Info("Starting test run", "run_id", rec.RunID, "tests", len(decls))

	for _, decl := range decls {
		if err := ctx.Err(); err != nil {
			rec.Duration = now().Sub(rec.StartedAt)
			return rec, fmt.Errorf("run interrupted: %w", err)
		}
		if h.Observer != nil {
			h.Observer.TestStarted(decl)
		}
		entry := h.runOne(ctx, decl)
		rec.Entries = append(rec.Entries, entry)
		if h.Observer != nil {
			h.Observer.TestFinished(entry)
		}
	}

	rec.Duration = now().Sub(rec.StartedAt)
	h.logger().Debug("Test run complete", "run_id", rec.RunID, "duration", rec.Duration)
	return rec, nil
}

// runOne executes and classifies a single test. A panic anywhere in that
// path is converted into a harness-fault outcome so the test is still
// recorded.
func (h *Harness) runOne(ctx context.Context, decl suite.Declaration) (entry Entry) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			h.logger().Error("Harness fault while running test", "test", decl.Name, "err", r)
			out := launcher.HarnessFaultOutcome(r, time.Since(start))
			v := verdict.Classify(decl.Expect, out)
			entry = Entry{Decl: decl, Outcome: out, Verdict: v, Bucket: AssignBucket(decl.Expect, v)}
		}
	}()

	out := h.Runner.Run(ctx, decl.Path)
	v := verdict.Classify(decl.Expect, out)
	h.logger().Debug("Test finished", "test", decl.Name, "exit_code", out.ExitCode, "matched", v.Matched, "elapsed", out.Elapsed)
	return Entry{Decl: decl, Outcome: out, Verdict: v, Bucket: AssignBucket(decl.Expect, v)}
}

func (h *Harness) logger() log.Logger {
	if h.Log == nil {
		return log.NewLogger(log.DiscardHandler())
	}
	return h.Log
}
