// Package exitcodes defines the exit codes used by conform.
//
// * Success (0): every test met its declared expectation
// * TestFailure (1): at least one unexpected failure, pass or timeout
// * ConfigErr (2): bad configuration, naming violation or missing interpreter; no test ran
// * BaselineErr (3): the reference file could not be read or written
// * Drift (4): --fail-on-drift was given and the run differs from the reference
// * Interrupted (130): the run was interrupted
package exitcodes

const (
	Success     = 0
	TestFailure = 1
	ConfigErr   = 2
	BaselineErr = 3
	Drift       = 4
	Interrupted = 130
)

// Worst returns the most severe of the given codes. Interrupted outranks
// everything, then ConfigErr, then the highest remaining value.
func Worst(codes ...int) int {
	worst := Success
	for _, c := range codes {
		switch {
		case c == Interrupted || worst == Interrupted:
			worst = Interrupted
		case c == ConfigErr || worst == ConfigErr:
			worst = ConfigErr
		case c > worst:
			worst = c
		}
	}
	return worst
}
