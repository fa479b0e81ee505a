// Package baseline persists a run's results as a reference snapshot and
// reloads it for later drift comparison.
package baseline

import (
	"crypto/md5"
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"
	"time"

	"conform/internal/harness"
	"conform/internal/suite"
)

// SchemaVersion is written to every snapshot this package produces.
const SchemaVersion = "1.0"

// Snapshot is the persisted reference of one run.
type Snapshot struct {
	Version            string    `json:"version"`
	InterpreterVersion string    `json:"interpreter_version"`
	RunID              string    `json:"run_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	TotalTests         int       `json:"total_tests"`
	Results            []Result  `json:"results"`
}

// Result is one test's entry in a snapshot. Output is kept only as a hash.
type Result struct {
	Name           string  `json:"name"`
	ExitCode       int     `json:"exit_code"`
	ExecutionTime  float64 `json:"execution_time"` // seconds
	ExpectedToFail bool    `json:"expected_to_fail"`
	Expectation    string  `json:"expectation,omitempty"` // pass, fail or timeout
	Success        bool    `json:"success"`
	OutputHash     string  `json:"output_hash"`
}

// HashOutput returns the hex MD5 of captured stdout.
func HashOutput(stdout string) string {
	sum := md5.Sum([]byte(stdout))
	return hex.EncodeToString(sum[:])
}

// FromRecord reduces a run record to a snapshot.
func FromRecord(rec harness.Record, interpreterVersion string) Snapshot {
	snap := Snapshot{
		Version:            SchemaVersion,
		InterpreterVersion: interpreterVersion,
		RunID:              rec.RunID,
		CreatedAt:          rec.StartedAt,
		TotalTests:         len(rec.Entries),
		Results:            make([]Result, 0, len(rec.Entries)),
	}
	for _, e := range rec.Entries {
		snap.Results = append(snap.Results, Result{
			Name:           e.Decl.Name,
			ExitCode:       e.Outcome.ExitCode,
			ExecutionTime:  e.Outcome.Elapsed.Seconds(),
			ExpectedToFail: e.Decl.Expect == suite.ExpectFail,
			Expectation:    e.Decl.Expect.String(),
			Success:        e.Verdict.Matched,
			OutputHash:     HashOutput(e.Outcome.Stdout),
		})
	}
	return snap
}

// Index returns the snapshot's results keyed by test name.
func (s Snapshot) Index() map[string]Result {
	idx := make(map[string]Result, len(s.Results))
	for _, r := range s.Results {
		idx[r.Name] = r
	}
	return idx
}

// normalizeNames keys results by base name. Older reference files record
// the script path as written on the command line (tests/a_pass.bas), which
// would otherwise never match a discovered test.
func (s *Snapshot) normalizeNames() {
	for i, r := range s.Results {
		name := filepath.ToSlash(r.Name)
		if strings.Contains(name, "/") {
			s.Results[i].Name = path.Base(name)
		}
	}
}
