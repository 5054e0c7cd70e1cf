package command

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"ocontest/internal/cli/model"
	pkgerrors "ocontest/pkg/errors"

	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

// now and location are swapped in tests.
var (
	now      = time.Now
	location = time.Local
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "auth",
			Action:       "login",
			Method:       http.MethodPost,
			PathTemplate: "/auth/login",
			View:         ViewToken,
			Usage:        "auth login username=<name> password=<secret>",
			Fields: []Field{
				{Name: "username", Aliases: []string{"user"}, Prompt: "username", Type: FieldString, Required: true},
				{Name: "password", Prompt: "password", Type: FieldString, Required: true, Secret: true},
			},
		},
		{
			Service:      "auth",
			Action:       "profile",
			Method:       http.MethodPost,
			PathTemplate: "/auth/edit_user",
			RequiresAuth: true,
			Usage:        "auth profile username=<name> email=<address>",
			Fields: []Field{
				{Name: "username", Aliases: []string{"user"}, Prompt: "username", Type: FieldString, Required: true},
				{Name: "email", Prompt: "email", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "auth",
			Action:       "forgot",
			Method:       http.MethodPost,
			PathTemplate: "/auth/forgotpass",
			View:         ViewForgot,
			Usage:        "auth forgot email=<address>",
			Fields: []Field{
				{Name: "email", Prompt: "email", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "auth",
			Action:       "verify",
			Method:       http.MethodPost,
			PathTemplate: "/auth/verify",
			Usage:        "auth verify email=<address> code=<6 digits>",
			Fields: []Field{
				{Name: "email", Prompt: "email", Type: FieldString, Required: true},
				{Name: "code", Aliases: []string{"otp"}, Prompt: "verification code", Type: FieldString, Required: true},
			},
		},
		{
			Service: "auth",
			Action:  "logout",
			View:    ViewLogout,
			Usage:   "auth logout",
		},
		{
			Service:      "problem",
			Action:       "get",
			Method:       http.MethodGet,
			PathTemplate: "/problems/:id",
			RequiresAuth: true,
			View:         ViewProblem,
			Usage:        "problem get id=<problem_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "problem",
			Action:       "create",
			Method:       http.MethodPost,
			PathTemplate: "/problems",
			RequiresAuth: true,
			Usage:        "problem create title=<title> hardness=<n> [contest_id=<id>] [description=<text>|description_file=<path>]",
			Fields:       problemFormFields(),
		},
		{
			Service:      "problem",
			Action:       "edit",
			Method:       http.MethodPut,
			PathTemplate: "/problems/:id",
			RequiresAuth: true,
			Usage:        "problem edit id=<problem_id> title=<title> hardness=<n> [description=<text>|description_file=<path>]",
			Fields: append([]Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			}, problemFormFields()...),
		},
		{
			Service:      "problem",
			Action:       "delete",
			Method:       http.MethodDelete,
			PathTemplate: "/problems/:id",
			RequiresAuth: true,
			Usage:        "problem delete id=<problem_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "problem",
			Action:       "testcases",
			Method:       http.MethodPost,
			PathTemplate: "/problems/:id/testcase",
			RequiresAuth: true,
			Usage:        "problem testcases id=<problem_id> file=<archive.zip>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
				{Name: "file", Aliases: []string{"testcases"}, Prompt: "zip file", Type: FieldFile, Required: true},
			},
		},
		{
			Service:      "submit",
			Action:       "create",
			Method:       http.MethodPost,
			PathTemplate: "/submissions",
			RequiresAuth: true,
			Usage:        "submit create problem_id=<id> file=<source file>",
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
				{Name: "file", Aliases: []string{"source_file"}, Prompt: "source file", Type: FieldFile, Required: true},
				{Name: "idempotency_key", Prompt: "idempotency_key", Type: FieldString},
			},
		},
		{
			Service:      "submit",
			Action:       "list",
			Method:       http.MethodGet,
			PathTemplate: "/submissions",
			RequiresAuth: true,
			View:         ViewSubmissionList,
			Usage:        "submit list [problem_id=<id>] [limit=<n>] [offset=<n>]",
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem"}, Prompt: "problem_id", Type: FieldInt64},
				{Name: "limit", Prompt: "limit", Type: FieldInt},
				{Name: "offset", Prompt: "offset", Type: FieldInt},
			},
		},
		{
			Service:      "submit",
			Action:       "show",
			Method:       http.MethodGet,
			PathTemplate: "/submissions/:id",
			RequiresAuth: true,
			View:         ViewSubmission,
			Usage:        "submit show id=<submission_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "submit",
			Action:       "watch",
			Method:       http.MethodGet,
			PathTemplate: "/submissions/:id",
			RequiresAuth: true,
			View:         ViewWatch,
			Usage:        "submit watch id=<submission_id> [interval=2s] [timeout=2m]",
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
				{Name: "interval", Prompt: "interval", Type: FieldString},
				{Name: "timeout", Prompt: "timeout", Type: FieldString},
			},
		},
		{
			Service:      "submit",
			Action:       "code",
			Method:       http.MethodGet,
			PathTemplate: "/submissions/:id/file",
			RequiresAuth: true,
			View:         ViewSource,
			Usage:        "submit code id=<submission_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "contest",
			Action:       "create",
			Method:       http.MethodPost,
			PathTemplate: "/contests",
			RequiresAuth: true,
			Usage:        "contest create title=<title> start_time=<2006-01-02T15:04> duration=<minutes>",
			Fields:       contestFormFields(),
		},
		{
			Service:      "contest",
			Action:       "get",
			Method:       http.MethodGet,
			PathTemplate: "/contests/:id",
			RequiresAuth: true,
			View:         ViewContest,
			Usage:        "contest get id=<contest_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"contest_id"}, Prompt: "contest_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "contest",
			Action:       "edit",
			Method:       http.MethodPut,
			PathTemplate: "/contests/:id",
			RequiresAuth: true,
			Usage:        "contest edit id=<contest_id> title=<title> start_time=<time> duration=<minutes>",
			Fields: append([]Field{
				{Name: "id", Aliases: []string{"contest_id"}, Prompt: "contest_id", Type: FieldInt64, Required: true},
			}, contestFormFields()...),
		},
		{
			Service:      "contest",
			Action:       "delete",
			Method:       http.MethodDelete,
			PathTemplate: "/contests/:id",
			RequiresAuth: true,
			Usage:        "contest delete id=<contest_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"contest_id"}, Prompt: "contest_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "contest",
			Action:       "remove-problem",
			Method:       http.MethodDelete,
			PathTemplate: "/contests/:id/problems/:problem_id",
			RequiresAuth: true,
			Usage:        "contest remove-problem id=<contest_id> problem_id=<problem_id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"contest_id"}, Prompt: "contest_id", Type: FieldInt64, Required: true},
				{Name: "problem_id", Aliases: []string{"problem"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "contest",
			Action:       "scoreboard",
			Method:       http.MethodGet,
			PathTemplate: "/contests/:id/scoreboard",
			RequiresAuth: true,
			View:         ViewScoreboard,
			Usage:        "contest scoreboard id=<contest_id> [page=1] [rows=100]",
			Fields: []Field{
				{Name: "id", Aliases: []string{"contest_id"}, Prompt: "contest_id", Type: FieldInt64, Required: true},
				{Name: "page", Prompt: "page", Type: FieldInt},
				{Name: "rows", Prompt: "rows", Type: FieldInt},
			},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// Keys returns the registry keys in a stable order.
func Keys(commands map[string]Command) []string {
	keys := make([]string, 0, len(commands))
	for key := range commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func problemFormFields() []Field {
	return []Field{
		{Name: "title", Prompt: "title", Type: FieldString, Required: true},
		{Name: "hardness", Prompt: "hardness", Type: FieldInt, Required: true},
		{Name: "contest_id", Prompt: "contest_id", Type: FieldInt},
		{Name: "description", Prompt: "description", Type: FieldString},
		{Name: "description_file", Prompt: "description file", Type: FieldFile},
	}
}

func contestFormFields() []Field {
	return []Field{
		{Name: "title", Prompt: "title", Type: FieldString, Required: true},
		{Name: "start_time", Aliases: []string{"start"}, Prompt: "start time (2006-01-02T15:04)", Type: FieldTime, Required: true},
		{Name: "duration", Prompt: "duration (minutes)", Type: FieldInt, Required: true},
	}
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	if cmd.Local() {
		return RequestSpec{}, pkgerrors.Newf(pkgerrors.InvalidParams, "%s does not send a request", cmd.Key())
	}
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}
	query, err := buildQuery(cmd, params)
	if err != nil {
		return RequestSpec{}, err
	}
	if query != "" {
		path += "?" + query
	}

	spec := RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
	}
	if cmd.Method == http.MethodGet || cmd.Method == http.MethodDelete {
		return spec, nil
	}

	switch cmd.Key() {
	case "submit create":
		key := params.Get("idempotency_key")
		if key == "" {
			key = uuid.NewString()
		}
		spec.Headers[idempotencyHeader] = key
		return buildSubmissionUpload(spec, params)
	case "problem testcases":
		return buildTestCaseUpload(spec, params)
	}

	payload, err := buildPayload(cmd, params)
	if err != nil {
		return RequestSpec{}, err
	}
	spec.Body, err = json.Marshal(payload)
	if err != nil {
		return RequestSpec{}, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "marshal request body failed: %v", err)
	}
	return spec, nil
}

func buildPath(template string, params Params) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		key := strings.TrimPrefix(segment, ":")
		value := strings.TrimSpace(params.Get(key))
		if value == "" {
			return "", pkgerrors.ValidationError(key, "missing path parameter")
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

func buildQuery(cmd Command, params Params) (string, error) {
	values := url.Values{}
	switch cmd.Key() {
	case "submit list":
		if raw := params.Get("problem_id"); raw != "" {
			id, err := int64Param(params, "problem_id")
			if err != nil {
				return "", err
			}
			values.Set("problem_id", strconv.FormatInt(id, 10))
		}
		for _, key := range []string{"limit", "offset"} {
			if params.Get(key) == "" {
				continue
			}
			n, err := intParam(params, key, 0)
			if err != nil {
				return "", err
			}
			if n < 0 {
				return "", pkgerrors.ValidationError(key, "must be no less than 0")
			}
			values.Set(key, strconv.Itoa(n))
		}
	case "contest scoreboard":
		page, err := ScoreboardPage(params)
		if err != nil {
			return "", err
		}
		values.Set("limit", strconv.Itoa(page.Limit()))
		values.Set("offset", strconv.Itoa(page.Offset()))
	}
	return values.Encode(), nil
}

// ScoreboardPage reads page and rows, falling back to the first page of 100 rows.
func ScoreboardPage(params Params) (model.ScoreboardPage, error) {
	page, err := intParam(params, "page", model.DefaultScoreboardPage)
	if err != nil {
		return model.ScoreboardPage{}, err
	}
	rows, err := intParam(params, "rows", model.DefaultScoreboardRows)
	if err != nil {
		return model.ScoreboardPage{}, err
	}
	p := model.ScoreboardPage{Page: page, Rows: rows}
	if err := p.Validate(); err != nil {
		return model.ScoreboardPage{}, err
	}
	return p, nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Service {
	case "auth":
		return buildAuthPayload(cmd.Action, params)
	case "problem":
		return buildProblemPayload(params)
	case "contest":
		return buildContestPayload(cmd.Action == "create", params)
	}
	return nil, pkgerrors.Newf(pkgerrors.UnknownCommand, "no request body for %s", cmd.Key())
}

func buildAuthPayload(action string, params Params) (interface{}, error) {
	var form interface{ Validate() error }
	switch action {
	case "login":
		form = model.LoginForm{Username: params.Get("username"), Password: params.Get("password")}
	case "profile":
		form = model.ProfileForm{Username: params.Get("username"), Email: params.Get("email")}
	case "forgot":
		form = model.ForgotPasswordForm{Email: params.Get("email")}
	case "verify":
		form = model.VerifyForm{Email: params.Get("email"), Code: strings.TrimSpace(params.Get("code"))}
	default:
		return nil, pkgerrors.Newf(pkgerrors.UnknownCommand, "unknown command: auth %s", action)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form, nil
}

func buildProblemPayload(params Params) (interface{}, error) {
	hardness, err := int64Param(params, "hardness")
	if err != nil {
		return nil, err
	}
	contestID, err := intParam(params, "contest_id", 0)
	if err != nil {
		return nil, err
	}
	description := params.Get("description")
	if description == "" && params.Get("description_file") != "" {
		data, err := ReadFile(params.Get("description_file"))
		if err != nil {
			return nil, err
		}
		description = string(data)
	}
	form := model.ProblemForm{
		Title:       strings.TrimSpace(params.Get("title")),
		ContestID:   contestID,
		Description: description,
		Hardness:    int(hardness),
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form, nil
}

func buildContestPayload(create bool, params Params) (interface{}, error) {
	start, err := model.ParseStartTime(params.Get("start_time"), location)
	if err != nil {
		return nil, err
	}
	duration, err := int64Param(params, "duration")
	if err != nil {
		return nil, err
	}
	form := model.ContestForm{
		Title:     strings.TrimSpace(params.Get("title")),
		StartTime: start,
		Duration:  int(duration),
	}
	if err := form.Validate(now(), create); err != nil {
		return nil, err
	}
	return form.Payload(), nil
}

func buildSubmissionUpload(spec RequestSpec, params Params) (RequestSpec, error) {
	problemID, err := int64Param(params, "problem_id")
	if err != nil {
		return RequestSpec{}, err
	}
	path := strings.TrimSpace(params.Get("file"))
	if path == "" {
		return RequestSpec{}, pkgerrors.New(pkgerrors.NoFileSelected)
	}
	content, err := ReadFile(path)
	if err != nil {
		return RequestSpec{}, err
	}
	fields := map[string]string{"problem_id": strconv.FormatInt(problemID, 10)}
	return attachMultipart(spec, fields, "file", filepath.Base(path), content)
}

func buildTestCaseUpload(spec RequestSpec, params Params) (RequestSpec, error) {
	path := strings.TrimSpace(params.Get("file"))
	if path == "" {
		return RequestSpec{}, pkgerrors.New(pkgerrors.NoFileSelected)
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return RequestSpec{}, pkgerrors.ValidationError("testcases", "only .zip archives are accepted")
	}
	content, err := ReadFile(path)
	if err != nil {
		return RequestSpec{}, err
	}
	return attachMultipart(spec, nil, "testcases", filepath.Base(path), content)
}

func attachMultipart(spec RequestSpec, fields map[string]string, fileField, fileName string, content []byte) (RequestSpec, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, fields[name]); err != nil {
			return RequestSpec{}, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "write form field failed: %v", err)
		}
	}
	part, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return RequestSpec{}, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		return RequestSpec{}, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "write form file failed: %v", err)
	}
	if err := w.Close(); err != nil {
		return RequestSpec{}, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "close multipart body failed: %v", err)
	}
	spec.Headers["Content-Type"] = w.FormDataContentType()
	spec.Body = buf.Bytes()
	return spec, nil
}
