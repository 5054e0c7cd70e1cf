package render

import (
	"fmt"

	"ocontest/internal/submission"

	"github.com/charmbracelet/lipgloss"
)

// createdLayout is a 24h month/day/year timestamp.
const createdLayout = "1/2/2006, 15:04:05"

func (p *Printer) rowStyle(score submission.Score) lipgloss.Style {
	if score.Row() == submission.RowFull {
		return p.pass
	}
	return p.fail
}

func (p *Printer) severityStyle(v submission.Verdict) lipgloss.Style {
	switch v.Severity() {
	case submission.SeverityPass:
		return p.pass
	case submission.SeverityFail:
		return p.fail
	default:
		return p.neutral
	}
}

func (p *Printer) createdAt(meta submission.Metadata) string {
	t, err := meta.CreatedTime()
	if err != nil {
		return meta.CreatedAt
	}
	return t.In(p.loc).Format(createdLayout)
}

func (p *Printer) submissionRow(sub submission.Submission, showProblem bool) []string {
	score := sub.Score()
	style := p.rowStyle(score)
	row := []string{
		sub.Metadata.SubmissionID,
		p.createdAt(sub.Metadata),
		capitalize(sub.Metadata.Language),
	}
	if showProblem {
		row = append(row, capitalize(sub.Metadata.ProblemTitle))
	}
	return append(row,
		style.Render(score.Display()),
		style.Render(capitalize(sub.Results.ServiceMessage)),
	)
}

func submissionHeaders(showProblem bool) []string {
	headers := []string{"ID", "Created", "Language"}
	if showProblem {
		headers = append(headers, "Problem")
	}
	return append(headers, "Score", "Status")
}

// SubmissionList prints one row per submission. The problem column is shown when the
// list is not filtered by problem.
func (p *Printer) SubmissionList(subs []submission.Submission, showProblem bool) {
	if len(subs) == 0 {
		p.Line("no submissions")
		return
	}
	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, p.submissionRow(sub, showProblem))
	}
	p.table(submissionHeaders(showProblem), rows)
}

// Submission prints the row of a single submission followed by its test case results.
func (p *Printer) Submission(sub submission.Submission) {
	p.table(submissionHeaders(true), [][]string{p.submissionRow(sub, true)})
	p.Line("")
	p.TestCases(sub.Results)
}

// TestCases prints the "Test Case Results" dialog.
func (p *Printer) TestCases(result submission.Result) {
	p.Line("%s", p.title.Render("Test Case Results"))
	if result.ServiceMessage != "" {
		p.Line("%s", result.ServiceMessage)
	}
	if result.ErrorMessage != "" {
		p.Line("%s", p.fail.Render(result.ErrorMessage))
	}
	for _, tc := range result.TestCases() {
		p.Line("%s", p.severityStyle(tc.Verdict).Render(
			fmt.Sprintf("Test Case %d: %s", tc.Number, tc.Verdict.Label())))
	}
}

// WatchUpdate prints a one-line progress report for a polled submission.
func (p *Printer) WatchUpdate(id string, result submission.Result) {
	score := result.Score()
	status := result.ServiceMessage
	if status == "" {
		status = "waiting"
	}
	p.Line("[%s] score %s %s", id, p.rowStyle(score).Render(score.Display()), status)
}
