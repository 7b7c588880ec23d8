// Package account talks to the external account backend that owns user records.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barista-web/pkg/core/registration/model"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/json"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ServerActionHeader selects the operation on the backend's users endpoint.
const ServerActionHeader = "Server-Action"

type Doer interface {
	Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error
}

type Endpoints struct {
	Users  string
	Login  string
	Health string
	Blogs  string
}

type Client struct {
	doer      Doer
	endpoints Endpoints
}

func NewClient(doer Doer, endpoints Endpoints) *Client {
	return &Client{doer: doer, endpoints: endpoints}
}

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// UsernameTaken asks the backend whether username already has an account.
// 404 means free, any 2xx means taken.
func (c *Client) UsernameTaken(ctx context.Context, username string) (bool, error) {
	status, _, err := c.call(ctx, consts.MethodPost, c.endpoints.Users, func(req *protocol.Request) {
		req.Header.Set(ServerActionHeader, "GetByUsername")
		req.Header.SetContentTypeBytes([]byte(consts.MIMETextPlain))
		req.SetBodyString(username)
	})
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}

	switch {
	case status == consts.StatusNotFound:
		return false, nil
	case status >= 200 && status < 300:
		return true, nil
	default:
		return false, &StatusError{Op: "lookup user", StatusCode: status}
	}
}

// Login exchanges credentials for the backend's session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	status, respBody, err := c.call(ctx, consts.MethodPost, c.endpoints.Login, func(req *protocol.Request) {
		req.Header.SetContentTypeBytes([]byte(consts.MIMEApplicationJSON))
		req.SetBody(body)
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if status < 200 || status > 299 {
		return "", &StatusError{Op: "login", StatusCode: status, Body: strings.TrimSpace(string(respBody))}
	}

	token := strings.TrimSpace(string(respBody))
	if token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}
	return token, nil
}

// Ping checks that the backend answers on its health path.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.call(ctx, consts.MethodGet, c.endpoints.Health, nil)
	if err != nil {
		return err
	}
	if status >= 500 {
		return &StatusError{Op: "ping", StatusCode: status}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, url string, build func(*protocol.Request)) (int, []byte, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetRequestURI(url)
	req.SetMethod(method)
	// the hertz client does not watch ctx; carry its deadline as a request timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil, context.DeadlineExceeded
		}
		req.SetOptions(config.WithRequestTimeout(remaining))
	}
	if build != nil {
		build(req)
	}

	if err := c.doer.Do(ctx, req, resp); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}
