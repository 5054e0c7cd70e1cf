package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/contextkey"
	"ocontest/pkg/utils/logger"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	RequestID  string
}

// OK reports a 2xx/3xx status.
func (r ResponseInfo) OK() bool {
	return r.StatusCode < 400
}

// Err turns a failed response into an error carrying the backend's message unchanged.
func (r ResponseInfo) Err() error {
	if r.OK() {
		return nil
	}
	return pkgerrors.RemoteError(r.StatusCode, remoteMessage(r.Body))
}

// DecodeJSON fails with Err for error statuses and decodes the body into v otherwise.
func (r ResponseInfo) DecodeJSON(v interface{}) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode response failed: %v", err)
	}
	return nil
}

func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// Client wraps HTTP requests for CLI.
type Client struct {
	baseURL       string
	timeout       time.Duration
	authScheme    string
	tokenProvider func() string
	httpClient    *http.Client
}

func New(baseURL string, timeout time.Duration, tokenProvider func() string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		timeout:       timeout,
		tokenProvider: tokenProvider,
		httpClient:    &http.Client{},
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// SetAuthScheme sets the prefix of the Authorization header. Empty sends the raw token.
func (c *Client) SetAuthScheme(scheme string) {
	c.authScheme = strings.TrimSpace(scheme)
}

func (c *Client) authorization(token string) string {
	if c.authScheme == "" {
		return token
	}
	return c.authScheme + " " + token
}

func (c *Client) Do(ctx context.Context, method, path string, headers map[string]string, body []byte) (ResponseInfo, error) {
	var info ResponseInfo
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	info.RequestID = requestID
	ctx = context.WithValue(ctx, contextkey.RequestID, requestID)

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.RequestFailed, "build request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set(requestIDHeader, requestID)
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", c.authorization(token))
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		logger.Warn(ctx, "request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", info.Duration),
			zap.Error(err),
		)
		if stderrors.Is(err, context.DeadlineExceeded) {
			return info, pkgerrors.Wrapf(err, pkgerrors.Timeout, "request timed out after %s", c.timeout)
		}
		return info, pkgerrors.Wrapf(err, pkgerrors.RequestFailed, "request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := readBody(resp)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "read response body failed: %v", err)
	}
	info.Body = bodyBytes

	logger.Debug(ctx, "request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", info.StatusCode),
		zap.Int("bytes", len(info.Body)),
		zap.Duration("duration", info.Duration),
	)
	return info, nil
}

// readBody inflates gzip bodies; Accept-Encoding is set by hand, so net/http leaves them as is.
func readBody(resp *http.Response) ([]byte, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.ReadAll(resp.Body)
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("open gzip body: %w", err)
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}
