package render

import (
	"strconv"
	"time"

	"ocontest/internal/cli/model"
	"ocontest/internal/cli/state"
	"ocontest/internal/submission"
)

const contestProblemTitleMax = 15

func (p *Printer) Problem(pr model.Problem) {
	p.Line("%s", p.title.Render(pr.Title))
	p.Field("Hardness", pr.Hardness)
	p.Field("Solved by", pr.SolveCount)
	if pr.IsOwned {
		p.Field("Owner", "you")
	}
	if pr.Description != "" {
		p.Line("")
		p.Line("%s", pr.Description)
	}
}

func (p *Printer) Contest(c model.Contest) {
	p.Line("%s", p.title.Render(c.Title))
	p.Field("Id", c.ContestID)
	p.Field("Start", c.Start().In(p.loc).Format(createdLayout))
	p.Field("Duration", strconv.Itoa(c.Duration)+" min")
	p.Field("Status", c.RegisterStatus)
	if len(c.Problems) == 0 {
		return
	}
	p.Line("%s", p.header.Render("Problems"))
	for _, pr := range c.Problems {
		p.Line("  %d  %s", pr.ID, truncate(pr.Title, contestProblemTitleMax))
	}
}

// Scoreboard prints rank, user and one column per problem. Ranks continue across pages.
func (p *Printer) Scoreboard(board model.Scoreboard, page model.ScoreboardPage) {
	headers := []string{"Rank", "User"}
	for _, pr := range board.Problems {
		headers = append(headers, pr.Title)
	}
	rows := make([][]string, 0, len(board.Users))
	for i, user := range board.Users {
		row := []string{strconv.Itoa(page.Rank(i)), user.Username}
		for _, pr := range board.Problems {
			score, ok := user.ScoreFor(pr.ID)
			if !ok {
				row = append(row, p.neutral.Render(submission.Placeholder))
				continue
			}
			row = append(row, p.value.Render(strconv.Itoa(score)))
		}
		rows = append(rows, row)
	}
	p.table(headers, rows)
	p.Line("page %d, %d rows per page, %d users in total", page.Page, page.Rows, board.Count)
}

// Token shows the masked token and what its claims say.
func (p *Printer) Token(st state.TokenState, now time.Time) {
	p.Field("token", st.Masked())
	if st.AccessToken == "" {
		return
	}
	claims, err := st.Inspect()
	if err != nil {
		p.Field("claims", "unreadable")
		return
	}
	if claims.Subject != "" {
		p.Field("subject", claims.Subject)
	}
	if claims.ExpiresAt.IsZero() {
		return
	}
	expires := claims.ExpiresAt.In(p.loc).Format(createdLayout)
	if claims.Expired(now) {
		p.Line("%s %s", p.label.Render("expires:"), p.fail.Render(expires+" (expired)"))
		return
	}
	p.Field("expires", expires)
}
