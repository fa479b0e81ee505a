// Package drift compares a fresh run against a stored baseline.
package drift

import (
	"conform/internal/baseline"
	"conform/internal/harness"
)

// FindingType is the kind of difference found for one test.
type FindingType string

const (
	FindingNew             FindingType = "NEW"               // present now, absent in baseline
	FindingRemoved         FindingType = "REMOVED"           // absent now, present in baseline
	FindingExitCodeChanged FindingType = "EXIT CODE CHANGED" // exit status differs
	FindingOutputChanged   FindingType = "OUTPUT CHANGED"    // stdout hash differs
)

// Finding is a single difference. BaselineExit and CurrentExit are only
// meaningful for FindingExitCodeChanged.
type Finding struct {
	Type         FindingType `json:"type"`
	Name         string      `json:"name"`
	BaselineExit int         `json:"baselineExitCode"`
	CurrentExit  int         `json:"currentExitCode"`
}

// Report contains the full comparison.
type Report struct {
	HasChanges  bool      `json:"hasChanges"`
	BaselineRun string    `json:"baselineRunId,omitempty"`
	CurrentRun  string    `json:"currentRunId,omitempty"`
	Findings    []Finding `json:"findings"`
}

// Compare diffs rec against snap. Current tests are visited in run order,
// then tests only present in the baseline in baseline order. A test may
// produce both an exit code and an output finding.
func Compare(rec harness.Record, snap baseline.Snapshot) Report {
	report := Report{
		BaselineRun: snap.RunID,
		CurrentRun:  rec.RunID,
		Findings:    []Finding{},
	}

	ref := snap.Index()
	current := make(map[string]bool, len(rec.Entries))

	for _, e := range rec.Entries {
		name := e.Decl.Name
		current[name] = true

		old, ok := ref[name]
		if !ok {
			report.Findings = append(report.Findings, Finding{Type: FindingNew, Name: name})
			continue
		}
		if old.ExitCode != e.Outcome.ExitCode {
			report.Findings = append(report.Findings, Finding{
				Type:         FindingExitCodeChanged,
				Name:         name,
				BaselineExit: old.ExitCode,
				CurrentExit:  e.Outcome.ExitCode,
			})
		}
		if old.OutputHash != baseline.HashOutput(e.Outcome.Stdout) {
			report.Findings = append(report.Findings, Finding{Type: FindingOutputChanged, Name: name})
		}
	}

	for _, r := range snap.Results {
		if !current[r.Name] {
			report.Findings = append(report.Findings, Finding{Type: FindingRemoved, Name: r.Name})
		}
	}

	report.HasChanges = len(report.Findings) > 0
	return report
}
