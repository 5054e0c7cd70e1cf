package model

import (
	"strconv"
	"strings"
	"time"

	pkgerrors "ocontest/pkg/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RegistrationStatus is the caller's relation to a contest.
type RegistrationStatus int

const (
	RegistrationOwner RegistrationStatus = iota + 1
	RegistrationRegistered
	RegistrationNonRegistered
)

func (s RegistrationStatus) String() string {
	switch s {
	case RegistrationOwner:
		return "Owner"
	case RegistrationRegistered:
		return "Registered"
	case RegistrationNonRegistered:
		return "NonRegistered"
	default:
		return "Unknown"
	}
}

// ContestProblem is a problem entry inside a contest.
type ContestProblem struct {
	ID    int64  `json:"ID"`
	Title string `json:"Title"`
}

// Contest is served by GET /contests/{id}. StartTime is in unix seconds.
type Contest struct {
	ContestID      int64              `json:"contest_Id"`
	Title          string             `json:"title"`
	StartTime      int64              `json:"start_time"`
	Duration       int                `json:"duration"`
	RegisterStatus RegistrationStatus `json:"register_status"`
	Problems       []ContestProblem   `json:"problems"`
}

func (c Contest) Start() time.Time {
	return time.Unix(c.StartTime, 0)
}

// ContestForm is what the user fills in to create or edit a contest.
type ContestForm struct {
	Title     string
	StartTime time.Time
	Duration  int
}

// ContestPayload is the wire body of POST /contests and PUT /contests/{id}.
type ContestPayload struct {
	Title     string `json:"title"`
	StartTime int64  `json:"start_time"`
	Duration  int    `json:"Duration"`
}

// Validate checks the form. New contests must not start before now; edits may keep a
// start time that already passed.
func (f ContestForm) Validate(now time.Time, requireFuture bool) error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.StartTime, validation.Required),
		validation.Field(&f.Duration, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return validationFailed(err)
	}
	if requireFuture && f.StartTime.Before(now) {
		return pkgerrors.New(pkgerrors.ContestStartInPast).WithDetail("start_time", f.StartTime.Format(time.RFC3339))
	}
	return nil
}

func (f ContestForm) Payload() ContestPayload {
	return ContestPayload{
		Title:     f.Title,
		StartTime: f.StartTime.Unix(),
		Duration:  f.Duration,
	}
}

var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseStartTime accepts RFC3339, a local datetime ("2006-01-02T15:04") or unix seconds.
func ParseStartTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, pkgerrors.ValidationError("start_time", "Start time is a required field")
	}
	if loc == nil {
		loc = time.Local
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).In(loc), nil
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pkgerrors.ValidationError("start_time", "Start time is a required field")
}
