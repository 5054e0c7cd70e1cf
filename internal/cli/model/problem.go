package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Problem is served by GET /problems/{id}.
type Problem struct {
	Title       string `json:"title"`
	Hardness    int    `json:"hardness"`
	SolveCount  int    `json:"solve_count"`
	Description string `json:"description"`
	IsOwned     bool   `json:"is_owned"`
}

// ProblemForm is the body of POST /problems and PUT /problems/{id}.
type ProblemForm struct {
	Title       string `json:"title"`
	ContestID   int    `json:"contest_id"`
	Description string `json:"description"`
	Hardness    int    `json:"hardness"`
}

func (f ProblemForm) Validate() error {
	return validationFailed(validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.ContestID, validation.Min(0)),
	))
}
