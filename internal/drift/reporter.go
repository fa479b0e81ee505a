package drift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// String renders the finding as one report line.
func (f Finding) String() string {
	if f.Type == FindingExitCodeChanged {
		return fmt.Sprintf("%s: %s (%d -> %d)", f.Type, f.Name, f.BaselineExit, f.CurrentExit)
	}
	return fmt.Sprintf("%s: %s", f.Type, f.Name)
}

// FormatCLI formats the report for terminal output.
func FormatCLI(report Report) string {
	var sb strings.Builder
	sb.WriteString("COMPARING WITH REFERENCE\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	if !report.HasChanges {
		sb.WriteString("No changes detected - all tests match reference!\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Found %d changes:\n", len(report.Findings)))
	for _, f := range report.Findings {
		sb.WriteString(fmt.Sprintf("  - %s\n", f))
	}
	return sb.String()
}

// FormatCI formats the report as GitHub Actions warning annotations.
func FormatCI(report Report) string {
	if !report.HasChanges {
		return ""
	}

	var sb strings.Builder
	for _, f := range report.Findings {
		sb.WriteString(fmt.Sprintf("::warning file=%s::Behavior drift: %s\n", f.Name, f))
	}
	sb.WriteString(fmt.Sprintf("\n⚠️  Behavior drift detected: %d change(s) since reference\n", len(report.Findings)))
	return sb.String()
}

// FormatJSON formats the report as JSON.
func FormatJSON(report Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
