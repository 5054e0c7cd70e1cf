package repl

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ocontest/internal/cli/command"
	"ocontest/internal/cli/config"
	httpclient "ocontest/internal/cli/http"
	"ocontest/internal/cli/resultstore"
	"ocontest/internal/cli/state"
	"ocontest/internal/submission"
	"ocontest/internal/testutil"
	pkgerrors "ocontest/pkg/errors"

	"github.com/gin-gonic/gin"
)

// scriptedReader replays input lines and records prompts.
type scriptedReader struct {
	lines     []string
	passwords []string
	prompts   []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) ReadPassword(prompt string) ([]byte, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.passwords) == 0 {
		return nil, io.EOF
	}
	pw := r.passwords[0]
	r.passwords = r.passwords[1:]
	return []byte(pw), nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func (r *scriptedReader) Close() error { return nil }

type harness struct {
	session *Session
	out     *bytes.Buffer
	token   *state.TokenState
	store   *resultstore.LRUStore
	cfg     config.Config
}

func newHarness(t *testing.T, register func(r *gin.Engine)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	register(engine)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	pretty := false
	cfg := config.Config{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		TokenStatePath: filepath.Join(t.TempDir(), "state.json"),
		PrettyJSON:     &pretty,
		WatchInterval:  10 * time.Millisecond,
		WatchTimeout:   time.Second,
		Cache:          config.CacheConfig{LocalSize: 16},
	}
	token := &state.TokenState{}
	client := httpclient.New(cfg.BaseURL, cfg.Timeout, func() string { return token.AccessToken })
	store := resultstore.NewLRUStore(16, 0)
	var out bytes.Buffer
	session := New(client, command.Registry(), token, cfg, store, &out)
	return &harness{session: session, out: &out, token: token, store: store, cfg: cfg}
}

func (h *harness) exec(t *testing.T, line string) error {
	t.Helper()
	_, err := h.session.Execute(context.Background(), line)
	return err
}

const judgedBody = `{"metadata":{"submission_id":"s1","language":"cpp","created_at":"2024-05-01T14:30:05Z","problem_id":4,"problem_title":"two sum"},
"results":{"service_message":"judged","error_message":"","verdicts":[1,1,2,1]}}`

func TestLoginStoresToken(t *testing.T) {
	var body map[string]string
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			_ = c.ShouldBindJSON(&body)
			c.JSON(http.StatusOK, gin.H{"access_token": "acc", "refresh_token": "ref"})
		})
	})
	testutil.AssertNil(t, h.exec(t, "auth login username=neo password=zion"))
	testutil.AssertEqual(t, body["username"], "neo")
	testutil.AssertEqual(t, h.token.AccessToken, "acc")

	saved, err := state.Load(h.cfg.TokenStatePath)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, saved.RefreshToken, "ref")
	testutil.AssertContains(t, h.out.String(), "logged in")

	testutil.AssertNil(t, h.exec(t, "auth logout"))
	testutil.AssertEqual(t, h.token.AccessToken, "")
	_, err = os.Stat(h.cfg.TokenStatePath)
	testutil.AssertTrue(t, os.IsNotExist(err), "state file removed on logout")
}

func TestBackendMessageShownVerbatim(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "username or password is wrong"})
		})
	})
	err := h.exec(t, "auth login username=neo password=bad")
	testutil.AssertEqual(t, err.Error(), "username or password is wrong")
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.Unauthorized), "401 maps to Unauthorized")
	testutil.AssertEqual(t, h.token.AccessToken, "")
}

func TestSubmitShowRendersAndRemembers(t *testing.T) {
	var gotAuth string
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions/:id", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			c.Data(http.StatusOK, "application/json", []byte(judgedBody))
		})
	})
	h.token.AccessToken = "raw-token"
	testutil.AssertNil(t, h.exec(t, "submit show id=s1"))
	testutil.AssertEqual(t, gotAuth, "raw-token")

	out := h.out.String()
	testutil.AssertContains(t, out, "75")
	testutil.AssertContains(t, out, "Test Case 3: Wrong")

	result, ok, err := h.store.Get(context.Background(), "s1")
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, ok, "result remembered")
	testutil.AssertEqual(t, result.Score().Display(), "75")

	h.out.Reset()
	testutil.AssertNil(t, h.exec(t, "show cache id=s1"))
	testutil.AssertContains(t, h.out.String(), "[s1] score 75 judged")
}

func TestStrictDecodingInDebug(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions/:id", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`{"metadata":{"submission_id":"s1"},"results":{"verdicts":[1,9]}}`))
		})
	})
	testutil.AssertNil(t, h.exec(t, "submit show id=s1"))
	testutil.AssertContains(t, h.out.String(), "Test Case 2: Unknown")

	h.session.cfg.Debug = true
	err := h.exec(t, "submit show id=s1")
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.VerdictOutOfRange), "strict decoding fails loudly")
}

func TestSubmitListHidesProblemWhenFiltered(t *testing.T) {
	var gotQuery string
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions", func(c *gin.Context) {
			gotQuery = c.Request.URL.RawQuery
			c.Data(http.StatusOK, "application/json", []byte("["+judgedBody+"]"))
		})
	})
	testutil.AssertNil(t, h.exec(t, "submit list"))
	testutil.AssertContains(t, h.out.String(), "Two sum")

	h.out.Reset()
	testutil.AssertNil(t, h.exec(t, "submit list problem_id=4 limit=10"))
	testutil.AssertEqual(t, gotQuery, "limit=10&problem_id=4")
	testutil.AssertNotContains(t, h.out.String(), "Two sum")
}

func TestWatchPollsUntilJudged(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	bodies := []string{
		`{"metadata":{"submission_id":"s1"},"results":{"service_message":"queued","verdicts":null}}`,
		`{"metadata":{"submission_id":"s1"},"results":{"service_message":"queued","verdicts":null}}`,
		`{"metadata":{"submission_id":"s1"},"results":{"service_message":"running","verdicts":[]}}`,
		judgedBody,
	}
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions/:id", func(c *gin.Context) {
			mu.Lock()
			body := bodies[min(calls, len(bodies)-1)]
			calls++
			mu.Unlock()
			c.Data(http.StatusOK, "application/json", []byte(body))
		})
	})
	testutil.AssertNil(t, h.exec(t, "submit watch id=s1 interval=5ms"))

	out := h.out.String()
	testutil.AssertEqual(t, strings.Count(out, "[s1] score - queued"), 1)
	testutil.AssertEqual(t, strings.Count(out, "[s1] score - running"), 1)
	testutil.AssertContains(t, out, "[s1] score 75 judged")
	testutil.AssertContains(t, out, "Test Case 4: OK")
	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, calls, 4)
}

func TestWatchTimesOut(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions/:id", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`{"metadata":{"submission_id":"s1"},"results":{"verdicts":null}}`))
		})
	})
	err := h.exec(t, "submit watch id=s1 interval=5ms timeout=40ms")
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.WatchTimedOut), "watch should time out")
	testutil.AssertEqual(t, strings.Count(h.out.String(), "[s1] score - waiting"), 1)

	err = h.exec(t, "submit watch id=s1 interval=soon")
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.ValidationFailed), "bad interval rejected")
}

func TestWatchStopsOnCompileError(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/submissions/:id", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`{"metadata":{"submission_id":"s1"},"results":{"service_message":"failed","error_message":"compilation failed","verdicts":null}}`))
		})
	})
	testutil.AssertNil(t, h.exec(t, "submit watch id=s1 interval=5ms"))
	testutil.AssertContains(t, h.out.String(), "compilation failed")
}

func TestSubmitCreateUploadsFile(t *testing.T) {
	var problemID, fileName, content, idem string
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/submissions", func(c *gin.Context) {
			problemID = c.PostForm("problem_id")
			idem = c.GetHeader("Idempotency-Key")
			fh, err := c.FormFile("file")
			if err == nil {
				fileName = fh.Filename
				f, _ := fh.Open()
				data, _ := io.ReadAll(f)
				_ = f.Close()
				content = string(data)
			}
			c.JSON(http.StatusCreated, gin.H{"submission_id": "s7"})
		})
	})
	source := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(source, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatalf("write source failed: %v", err)
	}
	testutil.AssertNil(t, h.exec(t, "submit create problem_id=4 file="+source))
	testutil.AssertEqual(t, problemID, "4")
	testutil.AssertEqual(t, fileName, "main.py")
	testutil.AssertEqual(t, content, "print(1)\n")
	testutil.AssertTrue(t, idem != "", "idempotency key sent")
	testutil.AssertContains(t, h.out.String(), "HTTP 201")
}

func TestSubmitCreateWithoutFile(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {})
	err := h.exec(t, "submit create problem_id=4")
	testutil.AssertEqual(t, err.Error(), "no file selected")
}

func TestScoreboardPaging(t *testing.T) {
	var gotQuery string
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/contests/:id/scoreboard", func(c *gin.Context) {
			gotQuery = c.Request.URL.RawQuery
			c.JSON(http.StatusOK, gin.H{
				"count":    1,
				"problems": []gin.H{{"id": 1, "title": "A"}},
				"users":    []gin.H{{"user_id": 5, "username": "neo", "problems": []gin.H{{"problem_id": 1, "score": 100}}}},
			})
		})
	})
	testutil.AssertNil(t, h.exec(t, "contest scoreboard id=2 page=2 rows=5"))
	testutil.AssertEqual(t, gotQuery, "limit=5&offset=5")
	testutil.AssertContains(t, strings.Join(strings.Fields(h.out.String()), " "), "6 neo 100")
}

func TestContestAndProblemViews(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/contests/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"contest_Id": 3, "title": "Cup", "start_time": 1714564800, "duration": 60,
				"register_status": 3, "problems": []gin.H{{"ID": 7, "Title": "Sixteen chars!!!"}}})
		})
		r.GET("/problems/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"title": "Two Sum", "hardness": 2, "solve_count": 4, "description": "Add."})
		})
		r.DELETE("/contests/:id/problems/:pid", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "removed " + c.Param("pid")})
		})
	})
	testutil.AssertNil(t, h.exec(t, "contest get id=3"))
	testutil.AssertContains(t, h.out.String(), "Status: NonRegistered")
	testutil.AssertContains(t, h.out.String(), "Sixteen chars!!...")

	testutil.AssertNil(t, h.exec(t, "problem get problem_id=1"))
	testutil.AssertContains(t, h.out.String(), "Hardness: 2")

	testutil.AssertNil(t, h.exec(t, "contest remove-problem id=3 problem_id=7"))
	testutil.AssertContains(t, h.out.String(), `{"message":"removed 7"}`)
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/auth/forgotpass", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"UserID": 42})
		})
	})
	testutil.AssertNil(t, h.exec(t, "auth forgot email=neo@zion.io"))
	testutil.AssertContains(t, h.out.String(), "verification code sent to user 42")

	err := h.exec(t, "auth forgot email=nope")
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.ValidationFailed), "bad email rejected before sending")
}

func TestSystemCommands(t *testing.T) {
	var gotAuth string
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/problems/:id", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, gin.H{"title": "x"})
		})
	})
	testutil.AssertNil(t, h.exec(t, "set token abc"))
	testutil.AssertNil(t, h.exec(t, "set scheme Bearer"))
	testutil.AssertNil(t, h.exec(t, "problem get id=1"))
	testutil.AssertEqual(t, gotAuth, "Bearer abc")

	testutil.AssertNil(t, h.exec(t, "set scheme raw"))
	testutil.AssertNil(t, h.exec(t, "problem get id=1"))
	testutil.AssertEqual(t, gotAuth, "abc")

	testutil.AssertNil(t, h.exec(t, "set timeout 5s"))
	h.out.Reset()
	testutil.AssertNil(t, h.exec(t, "show config"))
	testutil.AssertContains(t, h.out.String(), "timeout: 5s")
	testutil.AssertContains(t, h.out.String(), "store: memory")

	h.out.Reset()
	testutil.AssertNil(t, h.exec(t, "show token"))
	testutil.AssertContains(t, h.out.String(), "token: abc")

	testutil.AssertTrue(t, pkgerrors.Is(h.exec(t, "set timeout never"), pkgerrors.InvalidParams), "bad timeout")
	testutil.AssertTrue(t, pkgerrors.Is(h.exec(t, "frobnicate now"), pkgerrors.UnknownCommand), "unknown command")
	testutil.AssertTrue(t, pkgerrors.Is(h.exec(t, "problem get 1"), pkgerrors.InvalidParams), "bare param")
	testutil.AssertTrue(t, h.exec(t, `problem get id="unterminated`) != nil, "unbalanced quotes")

	exit, err := h.session.Execute(context.Background(), "quit")
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, exit, "quit ends the session")
}

func TestRunPromptsForMissingFields(t *testing.T) {
	var body map[string]string
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			_ = c.ShouldBindJSON(&body)
			c.JSON(http.StatusOK, gin.H{"access_token": "acc"})
		})
	})
	reader := &scriptedReader{
		lines:     []string{"", "auth login", "neo", "help", "exit", "never read"},
		passwords: []string{"zion"},
	}
	testutil.AssertNil(t, h.session.Run(context.Background(), reader))

	testutil.AssertEqual(t, body["username"], "neo")
	testutil.AssertEqual(t, body["password"], "zion")
	testutil.AssertEqual(t, len(reader.lines), 1)
	prompts := strings.Join(reader.prompts, "|")
	testutil.AssertContains(t, prompts, "username: ")
	testutil.AssertContains(t, prompts, "password: ")

	out := h.out.String()
	testutil.AssertContains(t, out, "logged in")
	testutil.AssertContains(t, out, "* problem get id=<problem_id>")
	testutil.AssertContains(t, out, "bye")
}

func TestRunEndsOnEOF(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {})
	reader := &scriptedReader{lines: []string{"frobnicate now"}}
	testutil.AssertNil(t, h.session.Run(context.Background(), reader))
	out := h.out.String()
	testutil.AssertContains(t, out, "error: unknown command: frobnicate now")
	testutil.AssertContains(t, out, "bye")
}

func TestCompleterCoversRegistry(t *testing.T) {
	completer := Completer(command.Registry())
	tree := completer.Tree("")
	for _, word := range []string{"auth", "problem", "submit", "contest", "login", "scoreboard", "remove-problem", "show", "cache"} {
		testutil.AssertContains(t, tree, word)
	}
}

func TestRememberKeepsLatest(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {})
	ctx := context.Background()
	sub := submission.Submission{Metadata: submission.Metadata{SubmissionID: "s1"}}
	testutil.AssertTrue(t, h.session.remember(ctx, sub), "first result is new")
	testutil.AssertFalse(t, h.session.remember(ctx, sub), "same result is not new")
	sub.Results.Verdicts = []submission.Verdict{submission.OK}
	testutil.AssertTrue(t, h.session.remember(ctx, sub), "new verdicts replace the old")
	got, _, _ := h.store.Get(ctx, "s1")
	testutil.AssertEqual(t, got.Score().Display(), "100")
}
