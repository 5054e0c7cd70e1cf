package command

import (
	"os"
	"strconv"
	"strings"

	pkgerrors "ocontest/pkg/errors"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldInt64
	FieldTime
	FieldFile
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
	// Secret fields are read without echo.
	Secret bool
}

// View selects how the REPL presents a response.
type View int

const (
	ViewRaw View = iota
	ViewToken
	ViewLogout
	ViewForgot
	ViewProblem
	ViewSubmission
	ViewSubmissionList
	ViewWatch
	ViewSource
	ViewContest
	ViewScoreboard
)

// Command defines a CLI command binding.
type Command struct {
	Service      string
	Action       string
	Method       string
	PathTemplate string
	RequiresAuth bool
	Fields       []Field
	View         View
	Usage        string
}

// Key is the "service action" pair the registry is indexed by.
func (c Command) Key() string {
	return c.Service + " " + c.Action
}

// Local commands never reach the backend.
func (c Command) Local() bool {
	return c.Method == ""
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// ParseArgs turns key=value tokens into Params.
func ParseArgs(tokens []string) (Params, error) {
	params := Params{}
	for _, token := range tokens {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, pkgerrors.Newf(pkgerrors.InvalidParams, "invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}
	return params, nil
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ParseInt(value string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	return int(n), err
}

// intParam parses an optional integer param; empty yields def.
func intParam(params Params, key string, def int) (int, error) {
	raw := params.Get(key)
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := ParseInt(raw)
	if err != nil {
		return 0, pkgerrors.ValidationError(key, "must be a number")
	}
	return n, nil
}

func int64Param(params Params, key string) (int64, error) {
	n, err := ParseInt64(params.Get(key))
	if err != nil {
		return 0, pkgerrors.ValidationError(key, "must be a number")
	}
	return n, nil
}

func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "read file failed: %v", err)
	}
	return data, nil
}
