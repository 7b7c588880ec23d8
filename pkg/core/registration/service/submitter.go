package service

import (
	"context"
	"fmt"
	"time"

	"barista-web/pkg/core/registration/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/json"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// Doer sends a single HTTP request. The hertz *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error
}

// Outcome is the result of the outbound registration call.
type Outcome struct {
	StatusCode int
	Body       []byte
	Err        error
	Latency    time.Duration
}

// OK reports a completed call answered with a 2xx status.
func (o Outcome) OK() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// Submission is a registration call in flight. Callers may drop it
// (fire-and-forget) or wait for its Outcome.
type Submission struct {
	ID string

	done    chan struct{}
	outcome Outcome
}

// Done is closed once the outbound call has finished.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the call finished or ctx ends. Cancelling ctx only stops
// the wait; the request itself keeps going.
func (s *Submission) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Submitter turns a filled registration form into at most one POST to the
// registration endpoint. It holds no per-call state.
type Submitter struct {
	client   Doer
	endpoint string
	onDone   func(Outcome)
}

type SubmitterOption func(*Submitter)

// WithCompletionHook registers fn to run after every finished call, on the
// goroutine that made it.
func WithCompletionHook(fn func(Outcome)) SubmitterOption {
	return func(s *Submitter) {
		s.onDone = fn
	}
}

func NewSubmitter(client Doer, endpoint string, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		client:   client,
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint returns the URL registrations are posted to.
func (s *Submitter) Endpoint() string {
	return s.endpoint
}

// Submit sends {username, password, token} as JSON when password equals
// confirmPassword and returns without waiting for the response. On a mismatch
// nothing is sent and Submit returns nil.
//
// There is no retry and no timeout. Cancellation of ctx does not reach the
// outbound request; only its values are kept.
func (s *Submitter) Submit(ctx context.Context, username, password, confirmPassword, token string) *Submission {
	form := model.Form{
		Username:        username,
		Password:        password,
		ConfirmPassword: confirmPassword,
		Token:           token,
	}
	req, ok := form.Request()
	if !ok {
		return nil
	}

	sub := &Submission{
		ID:   uuid.NewString(),
		done: make(chan struct{}),
	}

	body, err := json.Marshal(req)
	if err != nil {
		sub.outcome = Outcome{Err: fmt.Errorf("encode registration request: %w", err)}
		close(sub.done)
		return sub
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(sub.done)
		sub.outcome = s.send(ctx, body)
		hlog.CtxDebugf(ctx, "registration submission %s finished: status=%d latency=%v err=%v",
			sub.ID, sub.outcome.StatusCode, sub.outcome.Latency, sub.outcome.Err)
		if s.onDone != nil {
			s.onDone(sub.outcome)
		}
	}()

	return sub
}

func (s *Submitter) send(ctx context.Context, body []byte) Outcome {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetRequestURI(s.endpoint)
	req.SetMethod(consts.MethodPost)
	req.Header.SetContentTypeBytes([]byte(consts.MIMEApplicationJSON))
	req.SetBody(body)

	start := time.Now()
	err := s.client.Do(ctx, req, resp)
	out := Outcome{Latency: time.Since(start)}
	if err != nil {
		out.Err = err
		return out
	}

	out.StatusCode = resp.StatusCode()
	out.Body = append([]byte(nil), resp.Body()...)
	return out
}
