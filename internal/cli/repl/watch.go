package repl

import (
	"context"
	stderrors "errors"
	"time"

	"ocontest/internal/cli/command"
	"ocontest/internal/submission"
	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/contextkey"
	"ocontest/pkg/utils/logger"

	"go.uber.org/zap"
)

func durationParam(params command.Params, key string, def time.Duration) (time.Duration, error) {
	raw := params.Get(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, pkgerrors.ValidationError(key, "must be a positive duration such as 2s")
	}
	return d, nil
}

// finished reports whether the backend is done with the submission.
func finished(result submission.Result) bool {
	return result.Score().IsScored() || result.ErrorMessage != ""
}

// watch polls a submission until it is judged or the timeout elapses, printing a line
// whenever the received result differs from the one seen before.
func (s *Session) watch(ctx context.Context, id string, req command.RequestSpec, params command.Params) error {
	interval, err := durationParam(params, "interval", s.cfg.WatchInterval)
	if err != nil {
		return err
	}
	timeout, err := durationParam(params, "timeout", s.cfg.WatchTimeout)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, contextkey.SubmissionID, id)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	for {
		polls++
		sub, err := s.poll(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return s.watchStopped(ctx, id, timeout)
			}
			return err
		}
		if sub.Metadata.SubmissionID == "" {
			sub.Metadata.SubmissionID = id
		}
		if s.remember(ctx, sub) {
			s.out.WatchUpdate(id, sub.Results)
		}
		if finished(sub.Results) {
			logger.Debug(ctx, "watch finished", zap.Int("polls", polls))
			s.out.TestCases(sub.Results)
			return nil
		}

		select {
		case <-ctx.Done():
			return s.watchStopped(ctx, id, timeout)
		case <-ticker.C:
		}
	}
}

func (s *Session) poll(ctx context.Context, req command.RequestSpec) (submission.Submission, error) {
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return submission.Submission{}, err
	}
	if err := resp.Err(); err != nil {
		return submission.Submission{}, err
	}
	return submission.Decode(resp.Body, s.cfg.Debug)
}

func (s *Session) watchStopped(ctx context.Context, id string, timeout time.Duration) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Newf(pkgerrors.WatchTimedOut, "submission %s was not judged within %s", id, timeout).
			WithDetail("submission_id", id)
	}
	s.out.Line("watch stopped")
	return nil
}
