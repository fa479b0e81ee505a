// Package report renders run progress and summaries for people and CI.
package report

import (
	"fmt"
	"io"

	"github.com/acarl005/stripansi"

	"conform/internal/harness"
	"conform/internal/suite"
	"conform/internal/verdict"
)

// Progress prints one line per test as the run proceeds.
type Progress struct {
	W io.Writer
}

// NewProgress returns a Progress writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{W: w}
}

func (p *Progress) TestStarted(d suite.Declaration) {
	fmt.Fprintf(p.W, "Running %s... ", d.Path)
}

func (p *Progress) TestFinished(e harness.Entry) {
	secs := e.Outcome.Elapsed.Seconds()
	status := "FAIL"
	switch {
	case e.Verdict.Matched:
		status = "PASS"
	case e.Verdict.Kind == verdict.KindTimedOut:
		status = "TIMEOUT"
	}

	annotation := ""
	switch e.Decl.Expect {
	case suite.ExpectFail:
		annotation = " (expected)"
	case suite.ExpectTimeout:
		annotation = " (expected timeout)"
	}

	fmt.Fprintf(p.W, "%s%s (%.3fs)\n", status, annotation, secs)
	if !e.Verdict.Matched && e.Verdict.Reason != "" {
		fmt.Fprintf(p.W, "    Reason: %s\n", CleanReason(e.Verdict.Reason))
	}
}

// CleanReason strips terminal escape sequences an interpreter may have
// printed on its FAIL: line.
func CleanReason(reason string) string {
	return stripansi.Strip(reason)
}
