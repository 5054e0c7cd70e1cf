package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultScoreboardPage = 1
	DefaultScoreboardRows = 100
)

// ScoreboardProblem is a column of the scoreboard.
type ScoreboardProblem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ProblemScore is one user's result on one problem.
type ProblemScore struct {
	ProblemID int64 `json:"problem_id"`
	Score     int   `json:"score"`
}

// ScoreboardUser is a row of the scoreboard.
type ScoreboardUser struct {
	UserID   int64          `json:"user_id"`
	Username string         `json:"username"`
	Problems []ProblemScore `json:"problems"`
}

// ScoreFor returns the user's score on a problem, false when the user has none.
func (u ScoreboardUser) ScoreFor(problemID int64) (int, bool) {
	for _, p := range u.Problems {
		if p.ProblemID == problemID {
			return p.Score, true
		}
	}
	return 0, false
}

// Scoreboard is served by GET /contests/{id}/scoreboard.
type Scoreboard struct {
	Count    int                 `json:"count"`
	Problems []ScoreboardProblem `json:"problems"`
	Users    []ScoreboardUser    `json:"users"`
}

// ScoreboardPage selects a window of the scoreboard. Page is 1-based.
type ScoreboardPage struct {
	Page int
	Rows int
}

func (p ScoreboardPage) Validate() error {
	return validationFailed(validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.Required, validation.Min(1)),
		validation.Field(&p.Rows, validation.Required, validation.Min(1)),
	))
}

func (p ScoreboardPage) Limit() int {
	return p.Rows
}

func (p ScoreboardPage) Offset() int {
	return (p.Page - 1) * p.Rows
}

// Rank is the 1-based rank of the idx-th user on this page.
func (p ScoreboardPage) Rank(idx int) int {
	return p.Offset() + idx + 1
}
