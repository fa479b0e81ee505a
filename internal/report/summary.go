package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"conform/internal/harness"
)

// bucketLabels are the row titles of the summary table.
var bucketLabels = map[harness.Bucket]string{
	harness.ExpectedPass:      "Expected passes",
	harness.ExpectedFail:      "Expected failures",
	harness.ExpectedTimeout:   "Expected timeouts",
	harness.UnexpectedFailure: "Unexpected failures",
	harness.UnexpectedPass:    "Unexpected passes",
	harness.UnexpectedTimeout: "Unexpected timeouts",
}

// listHeadings introduce the enumerated unexpected entries.
var listHeadings = []struct {
	bucket  harness.Bucket
	heading string
}{
	{harness.UnexpectedFailure, "UNEXPECTED FAILURES (did not meet declared expectation):"},
	{harness.UnexpectedPass, "UNEXPECTED PASSES (should have failed):"},
	{harness.UnexpectedTimeout, "UNEXPECTED TIMEOUTS (not declared to time out):"},
}

// WriteSummary renders bucket counts followed by every unexpected entry.
func WriteSummary(w io.Writer, s harness.Summary) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	// Keep labels as written; the light style upper-cases them.
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle("TEST SUMMARY")
	t.AppendHeader(table.Row{"Category", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Count", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	for _, b := range harness.Buckets {
		t.AppendRow(table.Row{bucketLabels[b], s.Counts[b]})
	}
	t.AppendFooter(table.Row{"Total tests", s.Total})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(FormatUnexpected(s))

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatUnexpected lists unexpected entries with their exit status.
func FormatUnexpected(s harness.Summary) string {
	var sb strings.Builder
	for _, h := range listHeadings {
		entries := s.Unexpected[h.bucket]
		if len(entries) == 0 {
			continue
		}
		sb.WriteString(h.heading + "\n")
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("  - %s (exit code: %d)", e.Decl.Name, e.Outcome.ExitCode))
			if e.Verdict.Reason != "" {
				sb.WriteString(": " + CleanReason(e.Verdict.Reason))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatCI formats unexpected entries as GitHub Actions error annotations.
func FormatCI(s harness.Summary) string {
	var sb strings.Builder
	failures := 0
	for _, h := range listHeadings {
		for _, e := range s.Unexpected[h.bucket] {
			failures++
			sb.WriteString(fmt.Sprintf("::error file=%s::%s: %s (exit code %d)\n",
				e.Decl.Path, h.bucket, CleanReason(e.Verdict.Reason), e.Outcome.ExitCode))
		}
	}
	if failures > 0 {
		sb.WriteString(fmt.Sprintf("\n❌ Conformance failed: %d of %d test(s) did not meet expectation\n", failures, s.Total))
	}
	return sb.String()
}
