package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conform/internal/baseline"
	"conform/internal/harness"
	"conform/internal/launcher"
	"conform/internal/suite"
	"conform/internal/verdict"
)

func entry(name string, code int, stdout string) harness.Entry {
	out := launcher.Outcome{ExitCode: code, Stdout: stdout}
	v := verdict.Classify(suite.ExpectPass, out)
	return harness.Entry{
		Decl:    suite.Declaration{Name: name, Path: "tests/" + name, Expect: suite.ExpectPass},
		Outcome: out,
		Verdict: v,
		Bucket:  harness.AssignBucket(suite.ExpectPass, v),
	}
}

func record(entries ...harness.Entry) harness.Record {
	return harness.Record{RunID: "current", Entries: entries}
}

func TestCompare_NoChangesAgainstItself(t *testing.T) {
	rec := record(entry("a_pass.bas", 0, "PASS: ok\n"), entry("b_pass.bas", 1, ""))
	report := Compare(rec, baseline.FromRecord(rec, "v0.5"))

	assert.False(t, report.HasChanges)
	assert.Empty(t, report.Findings)
}

func TestCompare_OutputChangedOnly(t *testing.T) {
	ref := baseline.FromRecord(record(entry("a_pass.bas", 0, "PASS: ok\n")), "v0.5")
	report := Compare(record(entry("a_pass.bas", 0, "PASS: ok\nextra\n")), ref)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, Finding{Type: FindingOutputChanged, Name: "a_pass.bas"}, report.Findings[0])
	assert.True(t, report.HasChanges)
}

func TestCompare_ExitCodeChangedOnly(t *testing.T) {
	ref := baseline.FromRecord(record(entry("a_pass.bas", 0, "PASS: ok\n")), "v0.5")
	report := Compare(record(entry("a_pass.bas", 2, "PASS: ok\n")), ref)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, Finding{Type: FindingExitCodeChanged, Name: "a_pass.bas", BaselineExit: 0, CurrentExit: 2}, report.Findings[0])
}

func TestCompare_MultipleFindingsPerTest(t *testing.T) {
	ref := baseline.FromRecord(record(entry("a_pass.bas", 0, "PASS: ok\n")), "v0.5")
	report := Compare(record(entry("a_pass.bas", 1, "FAIL: x\n")), ref)

	require.Len(t, report.Findings, 2)
	assert.Equal(t, FindingExitCodeChanged, report.Findings[0].Type)
	assert.Equal(t, FindingOutputChanged, report.Findings[1].Type)
}

func TestCompare_NewAndRemoved(t *testing.T) {
	ref := baseline.FromRecord(record(
		entry("a_pass.bas", 0, "PASS: ok\n"),
		entry("gone_pass.bas", 0, "PASS: ok\n"),
	), "v0.5")
	report := Compare(record(
		entry("a_pass.bas", 0, "PASS: ok\n"),
		entry("fresh_pass.bas", 0, "PASS: ok\n"),
	), ref)

	assert.Equal(t, []Finding{
		{Type: FindingNew, Name: "fresh_pass.bas"},
		{Type: FindingRemoved, Name: "gone_pass.bas"},
	}, report.Findings)
}

func TestCompare_EmptyBaseline(t *testing.T) {
	report := Compare(record(entry("a_pass.bas", 0, "")), baseline.Snapshot{Results: []baseline.Result{}})
	require.Len(t, report.Findings, 1)
	assert.Equal(t, FindingNew, report.Findings[0].Type)
}

// A reference written by the earlier harness names tests by path. An
// identical run must compare clean against it.
func TestCompare_LegacyReferenceMatchesByBaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_references.json")
	legacy := fmt.Sprintf(`{
  "version": "1.0",
  "pc1211_version": "v0.5",
  "total_tests": 2,
  "results": [
    {"name": "tests/a_pass.bas", "exit_code": 0, "stdout": "PASS: a\n", "stderr": "",
     "execution_time": 0.01, "expected_to_fail": false, "success": true, "output_hash": %q},
    {"name": "tests/b_pass.bas", "exit_code": 0, "stdout": "PASS: b\n", "stderr": "",
     "execution_time": 0.01, "expected_to_fail": false, "success": true, "output_hash": %q}
  ]
}`, baseline.HashOutput("PASS: a\n"), baseline.HashOutput("PASS: b\n"))
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	snap, found, err := baseline.NewStore(path).Load()
	require.NoError(t, err)
	require.True(t, found)

	rec := record(entry("a_pass.bas", 0, "PASS: a\n"), entry("b_pass.bas", 0, "PASS: b\n"))
	report := Compare(rec, snap)
	assert.False(t, report.HasChanges, "findings: %v", report.Findings)

	rec = record(entry("a_pass.bas", 1, "PASS: a\n"))
	report = Compare(rec, snap)
	assert.Equal(t, []Finding{
		{Type: FindingExitCodeChanged, Name: "a_pass.bas", BaselineExit: 0, CurrentExit: 1},
		{Type: FindingRemoved, Name: "b_pass.bas"},
	}, report.Findings)
}

func TestFormatCLI(t *testing.T) {
	clean := FormatCLI(Report{Findings: []Finding{}})
	assert.Contains(t, clean, "No changes detected - all tests match reference!")

	out := FormatCLI(Report{HasChanges: true, Findings: []Finding{
		{Type: FindingExitCodeChanged, Name: "a_pass.bas", BaselineExit: 0, CurrentExit: 1},
		{Type: FindingRemoved, Name: "b_pass.bas"},
	}})
	assert.Contains(t, out, "Found 2 changes:\n")
	assert.Contains(t, out, "  - EXIT CODE CHANGED: a_pass.bas (0 -> 1)\n")
	assert.Contains(t, out, "  - REMOVED: b_pass.bas\n")
}

func TestFormatCI(t *testing.T) {
	assert.Empty(t, FormatCI(Report{}))

	out := FormatCI(Report{HasChanges: true, Findings: []Finding{{Type: FindingNew, Name: "x_pass.bas"}}})
	assert.Contains(t, out, "::warning file=x_pass.bas::Behavior drift: NEW: x_pass.bas")
	assert.Contains(t, out, "1 change(s)")
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(Report{HasChanges: true, Findings: []Finding{{Type: FindingOutputChanged, Name: "a"}}})
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "OUTPUT CHANGED"`)
	assert.Contains(t, out, `"hasChanges": true`)
}

func genEntries() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.Identifier(),
		gen.IntRange(-2, 3),
		gen.AlphaString(),
	)).Map(func(rows [][]interface{}) []harness.Entry {
		seen := map[string]bool{}
		var entries []harness.Entry
		for _, row := range rows {
			name := row[0].(string) + "_pass.bas"
			if seen[name] {
				continue
			}
			seen[name] = true
			entries = append(entries, entry(name, row[1].(int), row[2].(string)))
		}
		return entries
	})
}

func TestCompare_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	dir := t.TempDir()
	properties.Property("save, load and compare against itself has no changes", prop.ForAll(
		func(entries []harness.Entry) bool {
			rec := record(entries...)
			store := baseline.NewStore(filepath.Join(dir, "refs.json"))
			if err := store.Save(baseline.FromRecord(rec, "v0.5")); err != nil {
				return false
			}
			snap, found, err := store.Load()
			if err != nil || !found {
				return false
			}
			return !Compare(rec, snap).HasChanges
		},
		genEntries(),
	))

	properties.Property("changing one stdout yields exactly one OUTPUT CHANGED", prop.ForAll(
		func(entries []harness.Entry) bool {
			if len(entries) == 0 {
				return true
			}
			rec := record(entries...)
			snap := baseline.FromRecord(rec, "v0.5")

			changed := append([]harness.Entry(nil), entries...)
			changed[0].Outcome.Stdout += "\ndifferent"
			report := Compare(record(changed...), snap)
			return len(report.Findings) == 1 && report.Findings[0].Type == FindingOutputChanged
		},
		genEntries(),
	))

	properties.Property("changing one exit code yields exactly one EXIT CODE CHANGED", prop.ForAll(
		func(entries []harness.Entry) bool {
			if len(entries) == 0 {
				return true
			}
			rec := record(entries...)
			snap := baseline.FromRecord(rec, "v0.5")

			changed := append([]harness.Entry(nil), entries...)
			changed[0].Outcome.ExitCode += 100
			report := Compare(record(changed...), snap)
			return len(report.Findings) == 1 && report.Findings[0].Type == FindingExitCodeChanged
		},
		genEntries(),
	))

	properties.TestingRun(t)
}
