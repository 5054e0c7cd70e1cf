package repl

import (
	"context"

	"ocontest/internal/cli/command"
	httpclient "ocontest/internal/cli/http"
	"ocontest/internal/cli/model"
	"ocontest/internal/cli/state"
	"ocontest/internal/submission"
	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/contextkey"
	"ocontest/pkg/utils/logger"

	"go.uber.org/zap"
)

// present renders a response according to the command's view.
func (s *Session) present(ctx context.Context, cmd command.Command, params command.Params, resp httpclient.ResponseInfo) error {
	if err := resp.Err(); err != nil {
		return err
	}
	switch cmd.View {
	case command.ViewToken:
		var tokens model.TokenResponse
		if err := resp.DecodeJSON(&tokens); err != nil {
			return err
		}
		if tokens.AccessToken == "" {
			return pkgerrors.New(pkgerrors.ResponseDecodeFailed).WithMessage("login response carried no access token")
		}
		*s.tokenState = state.TokenState{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
		if err := state.Save(s.cfg.TokenStatePath, *s.tokenState); err != nil {
			return err
		}
		s.out.Success("logged in")
		s.out.Token(*s.tokenState, s.now())
	case command.ViewForgot:
		var forgot model.ForgotPasswordResponse
		if err := resp.DecodeJSON(&forgot); err != nil {
			return err
		}
		s.out.Success("verification code sent to user %d", forgot.UserID)
	case command.ViewProblem:
		var problem model.Problem
		if err := resp.DecodeJSON(&problem); err != nil {
			return err
		}
		s.out.Problem(problem)
	case command.ViewSubmission:
		sub, err := submission.Decode(resp.Body, s.cfg.Debug)
		if err != nil {
			return err
		}
		s.remember(ctx, sub)
		s.out.Submission(sub)
	case command.ViewSubmissionList:
		subs, err := submission.DecodeList(resp.Body, s.cfg.Debug)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			s.remember(ctx, sub)
		}
		s.out.SubmissionList(subs, params.Get("problem_id") == "")
	case command.ViewSource:
		s.out.Source(params.Get("id"), resp.Body)
	case command.ViewContest:
		var contest model.Contest
		if err := resp.DecodeJSON(&contest); err != nil {
			return err
		}
		s.out.Contest(contest)
	case command.ViewScoreboard:
		page, err := command.ScoreboardPage(params)
		if err != nil {
			return err
		}
		var board model.Scoreboard
		if err := resp.DecodeJSON(&board); err != nil {
			return err
		}
		s.out.Scoreboard(board, page)
	default:
		s.out.Raw(resp.StatusCode, resp.Duration, resp.Body)
	}
	return nil
}

// remember stores the result as the latest received for its submission. Store failures
// only cost the cache, so they are logged and otherwise ignored.
func (s *Session) remember(ctx context.Context, sub submission.Submission) bool {
	id := sub.Metadata.SubmissionID
	if id == "" {
		return true
	}
	ctx = context.WithValue(ctx, contextkey.SubmissionID, id)
	changed, err := s.store.Put(ctx, id, sub.Results)
	if err != nil {
		logger.Warn(ctx, "remember result failed", zap.Error(err))
		return true
	}
	return changed
}
