package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"conform/internal/harness"
)

// JSONReport is the machine-readable form of a run.
type JSONReport struct {
	RunID     string         `json:"runId"`
	StartedAt string         `json:"startedAt"`
	Duration  float64        `json:"durationSeconds"`
	Total     int            `json:"total"`
	Passed    bool           `json:"passed"`
	Counts    map[string]int `json:"counts"`
	Tests     []JSONTest     `json:"tests"`
}

// JSONTest is one entry of a JSONReport.
type JSONTest struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Expectation string  `json:"expectation"`
	Bucket      string  `json:"bucket"`
	Matched     bool    `json:"matched"`
	ExitCode    int     `json:"exitCode"`
	Elapsed     float64 `json:"elapsedSeconds"`
	Reason      string  `json:"reason,omitempty"`
}

// NewJSONReport builds the JSON form of rec.
func NewJSONReport(rec harness.Record) JSONReport {
	s := rec.Summarize()
	r := JSONReport{
		RunID:     rec.RunID,
		StartedAt: rec.StartedAt.Format(time.RFC3339),
		Duration:  rec.Duration.Seconds(),
		Total:     s.Total,
		Passed:    s.OK(),
		Counts:    make(map[string]int, len(harness.Buckets)),
		Tests:     make([]JSONTest, 0, len(rec.Entries)),
	}
	for _, b := range harness.Buckets {
		r.Counts[b.String()] = s.Counts[b]
	}
	for _, e := range rec.Entries {
		r.Tests = append(r.Tests, JSONTest{
			Name:        e.Decl.Name,
			Path:        e.Decl.Path,
			Expectation: e.Decl.Expect.String(),
			Bucket:      e.Bucket.String(),
			Matched:     e.Verdict.Matched,
			ExitCode:    e.Outcome.ExitCode,
			Elapsed:     e.Outcome.Elapsed.Seconds(),
			Reason:      CleanReason(e.Verdict.Reason),
		})
	}
	return r
}

// ToJSON returns the indented JSON encoding.
func (r JSONReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteToFile writes the report to path through a temporary file, so a
// reader never sees a partial report.
func (r JSONReport) WriteToFile(path string) error {
	data, err := r.ToJSON()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
