package harness

import (
	"time"

	"conform/internal/launcher"
	"conform/internal/suite"
	"conform/internal/verdict"
)

// Bucket is one of the six mutually exclusive result categories.
type Bucket int

const (
	ExpectedPass Bucket = iota
	ExpectedFail
	ExpectedTimeout
	UnexpectedFailure
	UnexpectedPass
	UnexpectedTimeout
)

// Buckets lists every bucket in report order.
var Buckets = []Bucket{
	ExpectedPass, ExpectedFail, ExpectedTimeout,
	UnexpectedFailure, UnexpectedPass, UnexpectedTimeout,
}

func (b Bucket) String() string {
	switch b {
	case ExpectedPass:
		return "expected-pass"
	case ExpectedFail:
		return "expected-fail"
	case ExpectedTimeout:
		return "expected-timeout"
	case UnexpectedFailure:
		return "unexpected-failure"
	case UnexpectedPass:
		return "unexpected-pass"
	case UnexpectedTimeout:
		return "unexpected-timeout"
	default:
		return "unknown"
	}
}

// Unexpected reports whether the bucket makes the run fail.
func (b Bucket) Unexpected() bool {
	return b >= UnexpectedFailure
}

// AssignBucket places a classified run in exactly one bucket.
func AssignBucket(expect suite.Expectation, v verdict.Verdict) Bucket {
	if v.Matched {
		switch expect {
		case suite.ExpectFail:
			return ExpectedFail
		case suite.ExpectTimeout:
			return ExpectedTimeout
		default:
			return ExpectedPass
		}
	}
	if v.Kind == verdict.KindTimedOut {
		return UnexpectedTimeout
	}
	if expect == suite.ExpectFail && v.Kind == verdict.KindSuccess {
		return UnexpectedPass
	}
	return UnexpectedFailure
}

// Entry is one test's declaration, captured outcome and verdict.
type Entry struct {
	Decl    suite.Declaration
	Outcome launcher.Outcome
	Verdict verdict.Verdict
	Bucket  Bucket
}

// Record is the ordered result of one harness invocation.
type Record struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Entries   []Entry
}

// Summary holds per-bucket counts and the entries that made the run fail.
type Summary struct {
	Total      int
	Counts     map[Bucket]int
	Unexpected map[Bucket][]Entry
}

// Summarize tallies the record into buckets.
func (r Record) Summarize() Summary {
	s := Summary{
		Total:      len(r.Entries),
		Counts:     make(map[Bucket]int, len(Buckets)),
		Unexpected: make(map[Bucket][]Entry),
	}
	for _, b := range Buckets {
		s.Counts[b] = 0
	}
	for _, e := range r.Entries {
		s.Counts[e.Bucket]++
		if e.Bucket.Unexpected() {
			s.Unexpected[e.Bucket] = append(s.Unexpected[e.Bucket], e)
		}
	}
	return s
}

// OK reports whether every test matched its expectation.
func (s Summary) OK() bool {
	return s.Counts[UnexpectedFailure] == 0 &&
		s.Counts[UnexpectedPass] == 0 &&
		s.Counts[UnexpectedTimeout] == 0
}

// ExitCode is 0 when every test matched its expectation and 1 otherwise.
func (r Record) ExitCode() int {
	if r.Summarize().OK() {
		return 0
	}
	return 1
}
