package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/golang-jwt/jwt/v5"

	apperrors "barista-web/pkg/common/errors"
	"barista-web/pkg/core/challenge"
	"barista-web/pkg/core/registration/model"
	"barista-web/pkg/core/registration/repository/dao"
)

// UserDirectory is the part of the account backend the registration flow needs.
type UserDirectory interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AttemptObserver receives one call per finished attempt.
type AttemptObserver interface {
	ObserveAttempt(outcome string)
}

type Options struct {
	Action        string        // challenge action the token must carry
	SessionMaxAge time.Duration // used when the session token has no exp claim
}

// Result of a registration attempt that did not fail.
type Result struct {
	Submitted    bool // false when the passwords did not match
	SubmissionID string
	Token        string
	MaxAge       time.Duration
}

// Service runs the whole registration flow around the Submitter: challenge,
// username check, submission, login and audit.
type Service struct {
	submitter *Submitter
	verifier  challenge.Verifier
	users     UserDirectory
	attempts  dao.AttemptRepository
	observer  AttemptObserver
	opts      Options
	now       func() time.Time
}

func NewService(submitter *Submitter, verifier challenge.Verifier, users UserDirectory,
	attempts dao.AttemptRepository, observer AttemptObserver, opts Options) *Service {
	if verifier == nil {
		verifier = challenge.NopVerifier{}
	}
	if opts.Action == "" {
		opts.Action = "register"
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 24 * time.Hour
	}
	return &Service{
		submitter: submitter,
		verifier:  verifier,
		users:     users,
		attempts:  attempts,
		observer:  observer,
		opts:      opts,
		now:       time.Now,
	}
}

// Register forwards the form to the account backend and logs the new user in.
//
// A password mismatch is not an error: nothing is sent and the zero Result is
// returned. The check runs before the challenge so a single-use token is not
// burnt on a form that will be shown again.
func (s *Service) Register(ctx context.Context, form model.Form, clientIP string) (Result, error) {
	if !form.PasswordsMatch() {
		s.finish(ctx, form.Username, clientIP, model.OutcomeMismatch, 0)
		return Result{}, nil
	}

	if _, err := s.verifier.Verify(ctx, form.Token, s.opts.Action); err != nil {
		s.finish(ctx, form.Username, clientIP, model.OutcomeChallengeFailed, 0)
		if apperrors.StatusOf(err) == 401 {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}

	taken, err := s.users.UsernameTaken(ctx, form.Username)
	if err != nil {
		s.finish(ctx, form.Username, clientIP, model.OutcomeBackendError, 0)
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}
	if taken {
		s.finish(ctx, form.Username, clientIP, model.OutcomeUsernameTaken, 0)
		return Result{}, apperrors.ErrUsernameTaken
	}

	sub := s.submitter.Submit(ctx, form.Username, form.Password, form.ConfirmPassword, form.Token)
	if sub == nil {
		s.finish(ctx, form.Username, clientIP, model.OutcomeMismatch, 0)
		return Result{}, nil
	}

	outcome, err := sub.Wait(ctx)
	if err != nil {
		s.finish(ctx, form.Username, clientIP, model.OutcomeBackendError, 0)
		return Result{}, fmt.Errorf("%w: waiting for submission %s: %v", apperrors.ErrBackendUnavailable, sub.ID, err)
	}
	if outcome.Err != nil {
		hlog.CtxErrorf(ctx, "err registering user w/ backend: %v", outcome.Err)
		s.finish(ctx, form.Username, clientIP, model.OutcomeBackendError, 0)
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, outcome.Err)
	}
	if !outcome.OK() {
		hlog.CtxWarnf(ctx, "backend refused registration: status=%d", outcome.StatusCode)
		s.finish(ctx, form.Username, clientIP, model.OutcomeRejected, outcome.StatusCode)
		return Result{}, apperrors.NewRegistrationRefused(outcome.StatusCode)
	}

	token, err := s.users.Login(ctx, form.Username, form.Password)
	if err != nil {
		hlog.CtxErrorf(ctx, "err logging in user w/ backend: %v", err)
		s.finish(ctx, form.Username, clientIP, model.OutcomeLoginFailed, outcome.StatusCode)
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrLoginFailed, err)
	}

	s.finish(ctx, form.Username, clientIP, model.OutcomeRegistered, outcome.StatusCode)
	return Result{
		Submitted:    true,
		SubmissionID: sub.ID,
		Token:        token,
		MaxAge:       s.sessionMaxAge(token),
	}, nil
}

// sessionMaxAge reads exp from the backend's token. The token is not
// verified here; the backend signed it and the frontend only sizes the cookie.
// An already expired token gets 0 and no cookie is set for it.
func (s *Service) sessionMaxAge(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s.opts.SessionMaxAge
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return s.opts.SessionMaxAge
	}
	if d := exp.Sub(s.now()); d > 0 {
		return d.Truncate(time.Second)
	}
	return 0
}

func (s *Service) finish(ctx context.Context, username, clientIP string, outcome model.Outcome, status int) {
	if s.observer != nil {
		s.observer.ObserveAttempt(string(outcome))
	}
	if s.attempts == nil {
		return
	}
	err := s.attempts.Record(context.WithoutCancel(ctx), model.Attempt{
		Username:   username,
		Outcome:    outcome,
		StatusCode: status,
		ClientIP:   clientIP,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		hlog.CtxWarnf(ctx, "failed to record registration attempt: %v", err)
	}
}
