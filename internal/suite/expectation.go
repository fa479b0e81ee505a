// Package suite discovers test scripts and derives each script's declared
// expectation from its file name.
package suite

import (
	"fmt"
	"strings"
)

// Expectation is the outcome a test script declares through its name.
type Expectation int

const (
	ExpectPass    Expectation = iota // name ends in _pass.<ext>
	ExpectFail                       // name ends in _fail.<ext>
	ExpectTimeout                    // name ends in _timeout.<ext>
)

// suffixes maps each expectation to the name token that declares it.
var suffixes = map[Expectation]string{
	ExpectPass:    "_pass",
	ExpectFail:    "_fail",
	ExpectTimeout: "_timeout",
}

// String returns "pass", "fail" or "timeout".
func (e Expectation) String() string {
	switch e {
	case ExpectPass:
		return "pass"
	case ExpectFail:
		return "fail"
	case ExpectTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Expectation(%d)", int(e))
	}
}

// ParseExpectation is the inverse of String.
func ParseExpectation(s string) (Expectation, error) {
	switch s {
	case "pass":
		return ExpectPass, nil
	case "fail":
		return ExpectFail, nil
	case "timeout":
		return ExpectTimeout, nil
	}
	return 0, fmt.Errorf("unknown expectation %q", s)
}

// ExpectationFromName derives the expectation from a script name such as
// "print_pass.bas". ext is given without the leading dot. The second return
// value is false when the name carries none of the three suffixes.
func ExpectationFromName(name, ext string) (Expectation, bool) {
	stem, ok := strings.CutSuffix(name, "."+ext)
	if !ok {
		return 0, false
	}
	for _, e := range []Expectation{ExpectPass, ExpectFail, ExpectTimeout} {
		if strings.HasSuffix(stem, suffixes[e]) {
			return e, true
		}
	}
	return 0, false
}

// Suffix returns the file name suffix ("_pass.bas") that declares e.
func (e Expectation) Suffix(ext string) string {
	return suffixes[e] + "." + ext
}
