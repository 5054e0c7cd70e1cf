package submission

// Verdict is the outcome of a single test case.
//
// The zero value is Unrecognized: a verdict whose wire code is not in the known table.
// Wire codes live in codec.go only; nothing else depends on the numeric values below.
type Verdict uint8

const (
	Unrecognized Verdict = iota
	OK
	Wrong
	TimeLimit
	MemoryLimit
	RuntimeError
	Unknown
	CompileError
)

var verdictLabels = map[Verdict]string{
	OK:           "OK",
	Wrong:        "Wrong",
	TimeLimit:    "TimeLimit",
	MemoryLimit:  "MemoryLimit",
	RuntimeError: "RuntimeError",
	Unknown:      "Unknown",
	CompileError: "CompileError",
}

// AllVerdicts lists every known verdict in wire order.
func AllVerdicts() []Verdict {
	return []Verdict{OK, Wrong, TimeLimit, MemoryLimit, RuntimeError, Unknown, CompileError}
}

// Known reports whether v is one of the seven verdicts the backend can send.
func (v Verdict) Known() bool {
	_, ok := verdictLabels[v]
	return ok
}

// Label returns the display name of v. Unrecognized verdicts read as "Unknown".
func (v Verdict) Label() string {
	if label, ok := verdictLabels[v]; ok {
		return label
	}
	return verdictLabels[Unknown]
}

func (v Verdict) String() string {
	return v.Label()
}

// Label is the lookup used by views that hold a bare verdict.
func Label(v Verdict) string {
	return v.Label()
}

// Severity buckets a verdict for colouring.
type Severity uint8

const (
	SeverityNeutral Severity = iota
	SeverityPass
	SeverityFail
)

func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityFail:
		return "fail"
	default:
		return "neutral"
	}
}

// Severity classifies v: OK passes, Unknown (judging indeterminate) and unrecognised
// codes are neutral, everything else fails.
func (v Verdict) Severity() Severity {
	switch {
	case v == OK:
		return SeverityPass
	case v == Unknown, !v.Known():
		return SeverityNeutral
	default:
		return SeverityFail
	}
}
