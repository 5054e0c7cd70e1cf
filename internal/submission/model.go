package submission

import (
	"time"

	pkgerrors "ocontest/pkg/errors"
)

// Metadata describes a submission as returned by the backend.
type Metadata struct {
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	Language     string `json:"language"`
	CreatedAt    string `json:"created_at"`
	FileName     string `json:"file_name"`
	ProblemID    int    `json:"problem_id"`
	ProblemTitle string `json:"problem_title"`
}

// CreatedTime parses CreatedAt as ISO-8601.
func (m Metadata) CreatedTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, m.CreatedAt)
	if err != nil {
		return time.Time{}, pkgerrors.Wrapf(err, pkgerrors.InvalidFormat, "invalid created_at %q", m.CreatedAt)
	}
	return t, nil
}

// Result is the judging outcome. Verdicts is nil while the submission is queued and
// holds one entry per executed test case, in test-case order, afterwards.
type Result struct {
	ServiceMessage string    `json:"service_message"`
	ErrorMessage   string    `json:"error_message"`
	Verdicts       []Verdict `json:"verdicts"`
}

// Score derives the pass ratio from the verdicts.
func (r Result) Score() Score {
	return ComputeScore(r.Verdicts)
}

// TestCase pairs a 1-based test case number with its verdict.
type TestCase struct {
	Number  int
	Verdict Verdict
}

// TestCases numbers the verdicts: index i is test case i+1.
func (r Result) TestCases() []TestCase {
	cases := make([]TestCase, 0, len(r.Verdicts))
	for i, v := range r.Verdicts {
		cases = append(cases, TestCase{Number: i + 1, Verdict: v})
	}
	return cases
}

// Validate rejects verdicts the backend is not allowed to send.
func (r Result) Validate() error {
	for i, v := range r.Verdicts {
		if !v.Known() {
			return pkgerrors.Newf(pkgerrors.VerdictOutOfRange, "test case %d has an unrecognised verdict", i+1).
				WithDetail("test_case", i+1)
		}
	}
	return nil
}

// Equal reports whether two results carry the same messages and verdicts.
// A nil and an empty verdict list are both "not scored" and compare equal.
func (r Result) Equal(other Result) bool {
	if r.ServiceMessage != other.ServiceMessage || r.ErrorMessage != other.ErrorMessage {
		return false
	}
	if len(r.Verdicts) != len(other.Verdicts) {
		return false
	}
	for i := range r.Verdicts {
		if r.Verdicts[i] != other.Verdicts[i] {
			return false
		}
	}
	return true
}

// Submission is the record served by GET /submissions/{id}.
type Submission struct {
	Metadata Metadata `json:"metadata"`
	Results  Result   `json:"results"`
}

// Score is a shortcut for s.Results.Score().
func (s Submission) Score() Score {
	return s.Results.Score()
}
