package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Auth & Profile errors
// 12000-12999: Problem errors
// 13000-13999: Submission & Verdict errors
// 14000-14999: Contest errors
// 17000-17999: Client transport, config and state errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008
	Conflict            ErrorCode = 10009

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Auth & Profile Errors (11000-11999) ==========
	TokenExpired ErrorCode = 11003
	TokenInvalid ErrorCode = 11004
	InvalidEmail ErrorCode = 11103

	// ========== Problem Errors (12000-12999) ==========
	ProblemNotFound      ErrorCode = 12000
	TestCaseUploadFailed ErrorCode = 12101

	// ========== Submission & Verdict Errors (13000-13999) ==========
	SubmissionNotFound ErrorCode = 13000
	NoFileSelected     ErrorCode = 13006
	VerdictOutOfRange  ErrorCode = 13010
	WatchTimedOut      ErrorCode = 13011

	// ========== Contest Errors (14000-14999) ==========
	ContestNotFound     ErrorCode = 14000
	ContestStartInPast  ErrorCode = 14006
	ScoreboardPageEmpty ErrorCode = 14201

	// ========== Client Errors (17000-17999) ==========
	RequestFailed        ErrorCode = 17000
	ResponseDecodeFailed ErrorCode = 17001
	ConfigInvalid        ErrorCode = 17002
	StateIOFailed        ErrorCode = 17003
	CacheError           ErrorCode = 17004
	UnknownCommand       ErrorCode = 17005
)

var errorMessages = map[ErrorCode]string{
	Success: "Success",

	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Request timeout",
	Conflict:            "Conflict",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	TokenExpired: "Token has expired",
	TokenInvalid: "Invalid token",
	InvalidEmail: "Invalid email format",

	ProblemNotFound:      "Problem not found",
	TestCaseUploadFailed: "Failed to upload test cases",

	SubmissionNotFound: "Submission not found",
	NoFileSelected:     "no file selected",
	VerdictOutOfRange:  "Verdict code out of range",
	WatchTimedOut:      "Submission was not judged before the watch timeout",

	ContestNotFound:     "Contest not found",
	ContestStartInPast:  "Date cannot be in the past",
	ScoreboardPageEmpty: "Scoreboard page is empty",

	RequestFailed:        "Request failed",
	ResponseDecodeFailed: "Failed to decode response",
	ConfigInvalid:        "Invalid configuration",
	StateIOFailed:        "Failed to access token state",
	CacheError:           "Result cache error",
	UnknownCommand:       "Unknown command",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the HTTP status that usually accompanies the code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return http.StatusOK
	case c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return http.StatusUnauthorized
	case c == Forbidden:
		return http.StatusForbidden
	case c == NotFound, c == ProblemNotFound, c == SubmissionNotFound, c == ContestNotFound:
		return http.StatusNotFound
	case c == Conflict:
		return http.StatusConflict
	case c == TooManyRequests:
		return http.StatusTooManyRequests
	case c == ServiceUnavailable:
		return http.StatusServiceUnavailable
	case c == Timeout:
		return http.StatusGatewayTimeout
	case c >= 10300 && c < 10400, c == InvalidParams:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus maps a backend response status to the closest error code.
func FromHTTPStatus(status int) ErrorCode {
	switch {
	case status < 400:
		return Success
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return InvalidParams
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusConflict:
		return Conflict
	case status == http.StatusTooManyRequests:
		return TooManyRequests
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		return ServiceUnavailable
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return Timeout
	default:
		return InternalServerError
	}
}
