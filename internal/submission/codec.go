package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	pkgerrors "ocontest/pkg/errors"
)

// Wire codes agreed with the backend. They must never be renumbered.
var wireCodes = map[Verdict]int{
	OK:           1,
	Wrong:        2,
	TimeLimit:    3,
	MemoryLimit:  4,
	RuntimeError: 5,
	Unknown:      6,
	CompileError: 7,
}

var verdictsByCode = func() map[int]Verdict {
	m := make(map[int]Verdict, len(wireCodes))
	for v, code := range wireCodes {
		m[code] = v
	}
	return m
}()

// FromCode resolves a wire code. Codes outside the table yield Unrecognized and a
// VerdictOutOfRange error; callers that must not fail can ignore the error.
func FromCode(code int) (Verdict, error) {
	if v, ok := verdictsByCode[code]; ok {
		return v, nil
	}
	return Unrecognized, pkgerrors.Newf(pkgerrors.VerdictOutOfRange, "verdict code %d is out of range", code).
		WithDetail("code", code)
}

// Code returns the wire code of v. Unrecognized has no code and reports false.
func (v Verdict) Code() (int, bool) {
	code, ok := wireCodes[v]
	return code, ok
}

// MarshalJSON writes the wire code. Unrecognized is written as 0, which decodes back to
// Unrecognized.
func (v Verdict) MarshalJSON() ([]byte, error) {
	code, _ := v.Code()
	return []byte(strconv.Itoa(code)), nil
}

// UnmarshalJSON reads a wire code leniently: out-of-range codes become Unrecognized.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("verdict must be an integer code: %w", err)
	}
	*v, _ = FromCode(code)
	return nil
}

// Decode parses a submission record. With strict set, a verdict outside the known table
// is reported as a VerdictOutOfRange error instead of being shown as "Unknown".
func Decode(body []byte, strict bool) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return Submission{}, pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode submission failed: %v", err)
	}
	if strict {
		if err := sub.Results.Validate(); err != nil {
			return Submission{}, err
		}
	}
	return sub, nil
}

// DecodeList parses a list of submission records, accepting either a bare array or an
// object with a "submissions" array.
func DecodeList(body []byte, strict bool) ([]Submission, error) {
	var subs []Submission
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Submissions []Submission `json:"submissions"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode submission list failed: %v", err)
		}
		subs = wrapped.Submissions
	} else if err := json.Unmarshal(trimmed, &subs); err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode submission list failed: %v", err)
	}
	if strict {
		for _, sub := range subs {
			if err := sub.Results.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return subs, nil
}
