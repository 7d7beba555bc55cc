package store

import "time"

// Outcome values as stored. They match the harness classification.
const (
	OutcomeUnknown   = "Unknown"
	OutcomeSucceeded = "Succeeded"
	OutcomeFailed    = "Failed"
	OutcomeCrashed   = "Crashed"
)

// Run is one harness invocation.
type Run struct {
	ID        string
	Seq       int64
	StartedAt time.Time
	// Settings records the configuration the run used, such as the
	// reference runtime and candidate command.
	Settings map[string]string
}

// Result is the stored outcome of one test case within a run.
type Result struct {
	RunID    string
	Seq      int64
	Test     string
	Outcome  string
	Expected string
	Actual   string
	Detail   string
	TreeHash string
	Duration time.Duration
}

// Summary counts a run's results by outcome.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Crashed   int
	Unknown   int
}

// Add counts one outcome.
func (s *Summary) Add(outcome string) {
	s.Total++
	switch outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
	case OutcomeCrashed:
		s.Crashed++
	default:
		s.Unknown++
	}
}

// Change is a test whose outcome differs between two runs.
type Change struct {
	Test   string
	Before string
	After  string
	// TreeChanged reports whether the bound tree hash differs.
	TreeChanged bool
}

// IsRegression reports whether a test that passed no longer does.
func (c Change) IsRegression() bool {
	return c.Before == OutcomeSucceeded && c.After != OutcomeSucceeded
}
