package submission

import (
	"fmt"
	"math"
	"strconv"
)

// Placeholder is shown in place of a score that does not exist yet.
const Placeholder = "-"

// Score is either NotYetScored or Scored(passed, total) with total > 0.
// The zero value is NotYetScored.
type Score struct {
	passed int
	total  int
}

// NotYetScored is the score of a submission without verdicts.
func NotYetScored() Score {
	return Score{}
}

// Scored builds a score from counts. A non-positive total yields NotYetScored and passed
// is clamped into [0, total].
func Scored(passed, total int) Score {
	if total <= 0 {
		return NotYetScored()
	}
	if passed < 0 {
		passed = 0
	}
	if passed > total {
		passed = total
	}
	return Score{passed: passed, total: total}
}

// ComputeScore is the ratio of OK verdicts. Nil and empty lists are NotYetScored.
func ComputeScore(verdicts []Verdict) Score {
	if len(verdicts) == 0 {
		return NotYetScored()
	}
	passed := 0
	for _, v := range verdicts {
		if v == OK {
			passed++
		}
	}
	return Scored(passed, len(verdicts))
}

// IsScored reports whether the submission has been judged.
func (s Score) IsScored() bool {
	return s.total > 0
}

func (s Score) Passed() int {
	return s.passed
}

func (s Score) Total() int {
	return s.total
}

// Ratio returns the pass ratio in [0, 1] and false when not scored.
func (s Score) Ratio() (float64, bool) {
	if !s.IsScored() {
		return 0, false
	}
	return float64(s.passed) / float64(s.total), true
}

// Float returns the ratio, or NaN when not scored.
func (s Score) Float() float64 {
	ratio, ok := s.Ratio()
	if !ok {
		return math.NaN()
	}
	return ratio
}

// Percent is the ratio times 100 rounded half up, computed on the counts so that
// halves are exact.
func (s Score) Percent() (int, bool) {
	if !s.IsScored() {
		return 0, false
	}
	return (200*s.passed + s.total) / (2 * s.total), true
}

// Display renders the score as an integer percentage or Placeholder.
func (s Score) Display() string {
	percent, ok := s.Percent()
	if !ok {
		return Placeholder
	}
	return strconv.Itoa(percent)
}

func (s Score) String() string {
	if !s.IsScored() {
		return "not yet scored"
	}
	return fmt.Sprintf("%d/%d", s.passed, s.total)
}

// RowClass is the highlighting of a submission row.
type RowClass uint8

const (
	RowPartialOrFail RowClass = iota
	RowFull
)

func (c RowClass) String() string {
	if c == RowFull {
		return "full"
	}
	return "partial_or_fail"
}

// Row is RowFull only when every test case passed.
func (s Score) Row() RowClass {
	if s.IsScored() && s.passed == s.total {
		return RowFull
	}
	return RowPartialOrFail
}
