// Package verdict decides whether a captured interpreter run satisfies the
// expectation its script declares.
//
// Classification is ordered:
//
//  1. A timed-out run succeeds only when a timeout was declared.
//  2. Stdout is scanned for the first line starting with PASS: or FAIL:.
//  3. A non-zero exit succeeds only when failure was declared; the marker
//     does not matter once the process ended abnormally.
//  4. A clean exit without a marker always fails as malformed output.
//  5. Otherwise the marker decides: PASS: for pass, FAIL: for fail.
//
// Outcomes synthesized after a harness fault always fail.
package verdict

import (
	"bufio"
	"fmt"
	"strings"

	"conform/internal/launcher"
	"conform/internal/suite"
)

// Kind is what the run itself showed, independent of the expectation.
type Kind int

const (
	KindSuccess  Kind = iota // clean exit with a PASS: marker
	KindFailure              // non-zero exit, FAIL: marker or malformed output
	KindTimedOut             // budget exceeded
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindTimedOut:
		return "timeout"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Failure reasons that are not taken from the script's own output.
const (
	ReasonUnexpectedTimeout = "unexpected timeout"
	ReasonMalformed         = "malformed output: no PASS: or FAIL: marker found"
	ReasonUnexpectedPass    = "unexpected pass"
)

// Verdict is the classification of one outcome. Matched reports whether
// the run succeeded as a test, which is not the same as the process
// exiting cleanly.
type Verdict struct {
	Kind    Kind
	Reason  string
	Matched bool
}

// Marker is the in-band verdict token found in stdout.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerPass
	MarkerFail
)

const (
	passToken = "PASS:"
	failToken = "FAIL:"
)

// ScanMarker returns the first PASS:/FAIL: line marker in stdout and, for
// FAIL:, the trimmed remainder of that line.
func ScanMarker(stdout string) (Marker, string) {
	sc := bufio.NewScanner(strings.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), len(stdout)+1)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.HasPrefix(line, passToken) {
			return MarkerPass, ""
		}
		if rest, ok := strings.CutPrefix(line, failToken); ok {
			return MarkerFail, strings.TrimSpace(rest)
		}
	}
	return MarkerNone, ""
}

// Classify applies the ordered rules to one outcome. It performs no I/O.
func Classify(expect suite.Expectation, out launcher.Outcome) Verdict {
	// 1. timeout
	if out.TimedOut() {
		if expect == suite.ExpectTimeout {
			return Verdict{Kind: KindTimedOut, Matched: true}
		}
		return Verdict{Kind: KindTimedOut, Reason: ReasonUnexpectedTimeout}
	}

	if out.HarnessFault() {
		return Verdict{Kind: KindFailure, Reason: out.Stderr}
	}

	v := classifyExit(expect, out)
	if expect == suite.ExpectTimeout {
		v.Matched = false
		v.Reason = fmt.Sprintf("expected timeout, exited with status %d", out.ExitCode)
		if out.LaunchFailed() && out.Stderr != "" {
			v.Reason += ": " + out.Stderr
		}
	}
	return v
}

// classifyExit covers rules 2 to 5 for a run that ended on its own.
func classifyExit(expect suite.Expectation, out launcher.Outcome) Verdict {
	// 2. marker scan
	marker, failReason := ScanMarker(out.Stdout)

	// 3. exit status dominates
	if out.ExitCode != 0 {
		reason := failReason
		switch {
		case reason != "":
		case out.LaunchFailed():
			reason = out.Stderr
		default:
			reason = fmt.Sprintf("exit code %d", out.ExitCode)
		}
		return Verdict{
			Kind:    KindFailure,
			Reason:  reason,
			Matched: expect == suite.ExpectFail,
		}
	}

	// 4. clean exit, no marker
	if marker == MarkerNone {
		return Verdict{Kind: KindFailure, Reason: ReasonMalformed}
	}

	// 5. marker decides
	if marker == MarkerPass {
		v := Verdict{Kind: KindSuccess, Matched: expect == suite.ExpectPass}
		if expect == suite.ExpectFail {
			v.Reason = ReasonUnexpectedPass
		}
		return v
	}
	if failReason == "" {
		failReason = "FAIL: marker without a reason"
	}
	return Verdict{
		Kind:    KindFailure,
		Reason:  failReason,
		Matched: expect == suite.ExpectFail,
	}
}
