package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ocontest/internal/cli/model"
	"ocontest/internal/cli/state"
	"ocontest/internal/submission"
	"ocontest/internal/testutil"
	pkgerrors "ocontest/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

func newPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, WithLocation(time.UTC)), &buf
}

func sampleSubmission(verdicts []submission.Verdict) submission.Submission {
	return submission.Submission{
		Metadata: submission.Metadata{
			SubmissionID: "s-42",
			Language:     "cpp",
			CreatedAt:    "2024-05-01T14:30:05Z",
			ProblemID:    4,
			ProblemTitle: "two sum",
		},
		Results: submission.Result{
			ServiceMessage: "judged",
			ErrorMessage:   "",
			Verdicts:       verdicts,
		},
	}
}

func TestSubmissionRowPartial(t *testing.T) {
	p, buf := newPrinter()
	sub := sampleSubmission([]submission.Verdict{submission.OK, submission.OK, submission.Wrong, submission.OK})
	p.SubmissionList([]submission.Submission{sub}, true)

	out := buf.String()
	testutil.AssertContains(t, out, "5/1/2024, 14:30:05")
	testutil.AssertContains(t, out, "Cpp")
	testutil.AssertContains(t, out, "Two sum")
	testutil.AssertContains(t, out, "75")
	testutil.AssertContains(t, out, "Judged")
	testutil.AssertNotContains(t, out, "\x1b[")
}

func TestSubmissionListWithoutProblemColumn(t *testing.T) {
	p, buf := newPrinter()
	sub := sampleSubmission(nil)
	p.SubmissionList([]submission.Submission{sub}, false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	testutil.AssertEqual(t, len(lines), 2)
	testutil.AssertNotContains(t, lines[0], "Problem")
	testutil.AssertNotContains(t, lines[1], "Two sum")
	fields := strings.Fields(lines[1])
	testutil.AssertTrue(t, len(fields) > 0, "row has cells")
	testutil.AssertContains(t, lines[1], " - ")
}

func TestSubmissionListEmpty(t *testing.T) {
	p, buf := newPrinter()
	p.SubmissionList(nil, true)
	testutil.AssertEqual(t, buf.String(), "no submissions\n")
}

func TestTableColumnsAlign(t *testing.T) {
	p, buf := newPrinter()
	long := sampleSubmission([]submission.Verdict{submission.OK})
	long.Metadata.Language = "python3"
	short := sampleSubmission([]submission.Verdict{submission.Wrong})
	short.Metadata.Language = "go"
	p.SubmissionList([]submission.Submission{long, short}, false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	testutil.AssertEqual(t, len(lines), 3)
	col := strings.Index(lines[0], "Score")
	testutil.AssertEqual(t, strings.Index(lines[1], "100"), col)
	testutil.AssertEqual(t, lines[2][col:col+1], "0")
}

func TestTestCasesDialog(t *testing.T) {
	p, buf := newPrinter()
	p.TestCases(submission.Result{
		ServiceMessage: "judged",
		ErrorMessage:   "runtime error on test 3",
		Verdicts:       []submission.Verdict{submission.OK, submission.Unknown, submission.Wrong, submission.Unrecognized},
	})
	out := buf.String()
	testutil.AssertContains(t, out, "Test Case Results")
	testutil.AssertContains(t, out, "judged")
	testutil.AssertContains(t, out, "runtime error on test 3")
	testutil.AssertContains(t, out, "Test Case 1: OK")
	testutil.AssertContains(t, out, "Test Case 2: Unknown")
	testutil.AssertContains(t, out, "Test Case 3: Wrong")
	testutil.AssertContains(t, out, "Test Case 4: Unknown")
}

func TestSubmissionView(t *testing.T) {
	p, buf := newPrinter()
	p.Submission(sampleSubmission([]submission.Verdict{submission.OK, submission.OK}))
	out := buf.String()
	testutil.AssertContains(t, out, "100")
	testutil.AssertContains(t, out, "Test Case 2: OK")
}

func TestWatchUpdate(t *testing.T) {
	p, buf := newPrinter()
	p.WatchUpdate("s1", submission.Result{})
	p.WatchUpdate("s1", submission.Result{ServiceMessage: "judged", Verdicts: []submission.Verdict{submission.Wrong}})
	testutil.AssertEqual(t, buf.String(), "[s1] score - waiting\n[s1] score 0 judged\n")
}

func TestProblemView(t *testing.T) {
	p, buf := newPrinter()
	p.Problem(model.Problem{Title: "Two Sum", Hardness: 2, SolveCount: 10, Description: "Add them.", IsOwned: true})
	out := buf.String()
	testutil.AssertContains(t, out, "Two Sum")
	testutil.AssertContains(t, out, "Hardness: 2")
	testutil.AssertContains(t, out, "Solved by: 10")
	testutil.AssertContains(t, out, "Owner: you")
	testutil.AssertContains(t, out, "Add them.")
}

func TestContestViewTruncatesTitles(t *testing.T) {
	p, buf := newPrinter()
	p.Contest(model.Contest{
		ContestID:      3,
		Title:          "Spring Cup",
		StartTime:      time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC).Unix(),
		Duration:       120,
		RegisterStatus: model.RegistrationRegistered,
		Problems: []model.ContestProblem{
			{ID: 7, Title: "A very long problem title"},
			{ID: 8, Title: "Short"},
		},
	})
	out := buf.String()
	testutil.AssertContains(t, out, "Start: 5/2/2024, 10:00:00")
	testutil.AssertContains(t, out, "Duration: 120 min")
	testutil.AssertContains(t, out, "Status: Registered")
	testutil.AssertContains(t, out, "7  A very long pro...")
	testutil.AssertContains(t, out, "8  Short\n")
}

func TestScoreboardView(t *testing.T) {
	p, buf := newPrinter()
	board := model.Scoreboard{
		Count:    12,
		Problems: []model.ScoreboardProblem{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
		Users: []model.ScoreboardUser{
			{UserID: 5, Username: "neo", Problems: []model.ProblemScore{{ProblemID: 1, Score: 100}, {ProblemID: 2, Score: 70}}},
			{UserID: 6, Username: "trinity", Problems: []model.ProblemScore{{ProblemID: 2, Score: 40}}},
		},
	}
	p.Scoreboard(board, model.ScoreboardPage{Page: 2, Rows: 10})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	testutil.AssertEqual(t, len(lines), 4)
	testutil.AssertEqual(t, strings.Join(strings.Fields(lines[0]), " "), "Rank User A B")
	testutil.AssertEqual(t, strings.Join(strings.Fields(lines[1]), " "), "11 neo 100 70")
	testutil.AssertEqual(t, strings.Join(strings.Fields(lines[2]), " "), "12 trinity - 40")
	testutil.AssertContains(t, lines[3], "page 2, 10 rows per page, 12 users in total")
}

func TestRawPrettyAndPlain(t *testing.T) {
	p, buf := newPrinter()
	p.SetPrettyJSON(true)
	p.Raw(200, 12*time.Millisecond, []byte(`{"a":1}`))
	testutil.AssertEqual(t, buf.String(), "HTTP 200 (12ms)\n{\n  \"a\": 1\n}\n")

	buf.Reset()
	p.SetPrettyJSON(false)
	p.Raw(201, 0, []byte(`{"a":1}`))
	testutil.AssertEqual(t, buf.String(), "HTTP 201 (0s)\n{\"a\":1}\n")

	buf.Reset()
	p.SetPrettyJSON(true)
	p.Raw(500, 0, []byte("oops\n"))
	testutil.AssertEqual(t, buf.String(), "HTTP 500 (0s)\noops\n")
}

func TestErrorShowsMessageOnly(t *testing.T) {
	p, buf := newPrinter()
	remote := pkgerrors.RemoteError(403, "contest is private")
	p.Error(fmt.Errorf("context: %w", remote))
	testutil.AssertEqual(t, buf.String(), "error: contest is private\n")

	buf.Reset()
	p.Error(errors.New("plain"))
	testutil.AssertEqual(t, buf.String(), "error: plain\n")

	buf.Reset()
	p.Error(nil)
	testutil.AssertEqual(t, buf.String(), "")
}

func TestTokenView(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "17",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	p, buf := newPrinter()
	p.Token(state.TokenState{AccessToken: signed}, now)
	out := buf.String()
	testutil.AssertContains(t, out, "subject: 17")
	testutil.AssertContains(t, out, "expires: 5/1/2024, 11:00:00 (expired)")

	buf.Reset()
	p.Token(state.TokenState{}, now)
	testutil.AssertEqual(t, buf.String(), "token: <empty>\n")

	buf.Reset()
	p.Token(state.TokenState{AccessToken: "opaque"}, now)
	testutil.AssertContains(t, buf.String(), "claims: unreadable")
}

func TestSource(t *testing.T) {
	p, buf := newPrinter()
	p.Source("s1", []byte("int main() {}\n"))
	testutil.AssertEqual(t, buf.String(), "Submission id: s1\nint main() {}\n")
}
