package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method, uri, contentType, action string
	body                             string
	timeout                          time.Duration
}

type stubDoer struct {
	status int
	body   string
	err    error
	last   captured
}

func (s *stubDoer) Do(_ context.Context, req *protocol.Request, resp *protocol.Response) error {
	s.last = captured{
		method:      string(req.Method()),
		uri:         req.URI().String(),
		contentType: string(req.Header.ContentType()),
		action:      string(req.Header.Peek(ServerActionHeader)),
		body:        string(req.Body()),
		timeout:     req.Options().RequestTimeout(),
	}
	if s.err != nil {
		return s.err
	}
	resp.SetStatusCode(s.status)
	resp.SetBodyString(s.body)
	return nil
}

var endpoints = Endpoints{
	Users:  "http://backend.test/v1/users",
	Login:  "http://backend.test/login",
	Health: "http://backend.test/health",
	Blogs:  "http://backend.test/v1/blogs",
}

func TestUsernameTaken(t *testing.T) {
	tests := []struct {
		status  int
		taken   bool
		wantErr bool
	}{
		{status: 404, taken: false},
		{status: 200, taken: true},
		{status: 204, taken: true},
		{status: 500, wantErr: true},
		{status: 400, wantErr: true},
	}

	for _, tt := range tests {
		doer := &stubDoer{status: tt.status}
		taken, err := NewClient(doer, endpoints).UsernameTaken(context.Background(), "alice")

		assert.Equal(t, "POST", doer.last.method)
		assert.Equal(t, endpoints.Users, doer.last.uri)
		assert.Equal(t, "GetByUsername", doer.last.action)
		assert.Equal(t, "alice", doer.last.body)

		if tt.wantErr {
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.taken, taken, "status %d", tt.status)
	}
}

func TestUsernameTakenTransportError(t *testing.T) {
	_, err := NewClient(&stubDoer{err: errors.New("refused")}, endpoints).UsernameTaken(context.Background(), "alice")
	assert.ErrorContains(t, err, "refused")
}

func TestLogin(t *testing.T) {
	doer := &stubDoer{status: 200, body: "  header.payload.sig\n"}

	token, err := NewClient(doer, endpoints).Login(context.Background(), `al"ice`, `p\w`)
	require.NoError(t, err)

	assert.Equal(t, "header.payload.sig", token)
	assert.Equal(t, endpoints.Login, doer.last.uri)
	assert.Equal(t, "application/json", doer.last.contentType)
	assert.JSONEq(t, `{"username":"al\"ice","password":"p\\w"}`, doer.last.body)
}

func TestLoginFailures(t *testing.T) {
	_, err := NewClient(&stubDoer{status: 401, body: "bad credentials"}, endpoints).
		Login(context.Background(), "alice", "pw")
	assert.EqualError(t, err, "login: unexpected status 401: bad credentials")

	_, err = NewClient(&stubDoer{status: 200, body: "  "}, endpoints).
		Login(context.Background(), "alice", "pw")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	doer := &stubDoer{status: 200}
	require.NoError(t, NewClient(doer, endpoints).Ping(context.Background()))
	assert.Equal(t, "GET", doer.last.method)
	assert.Equal(t, endpoints.Health, doer.last.uri)

	assert.NoError(t, NewClient(&stubDoer{status: 404}, endpoints).Ping(context.Background()))
	assert.Error(t, NewClient(&stubDoer{status: 503}, endpoints).Ping(context.Background()))
	assert.Error(t, NewClient(&stubDoer{err: errors.New("refused")}, endpoints).Ping(context.Background()))
}

func TestCallCarriesContextDeadline(t *testing.T) {
	doer := &stubDoer{status: 404}
	c := NewClient(doer, endpoints)

	_, err := c.UsernameTaken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Zero(t, doer.last.timeout, "no deadline, no per-request timeout")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = c.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.Greater(t, doer.last.timeout, time.Duration(0))
	assert.LessOrEqual(t, doer.last.timeout, 3*time.Second)
}

func TestCallExpiredDeadlineSendsNothing(t *testing.T) {
	doer := &stubDoer{status: 200}
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := NewClient(doer, endpoints).Ping(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, doer.last.uri)
}

func TestListBlogs(t *testing.T) {
	doer := &stubDoer{status: 200, body: `[
		{"id":1,"owner_username":"alice","title":"Pour over","content":"<p>hi</p>","created_at":"2026-10-01T08:00:00Z","updated_at":"2026-10-02T08:00:00Z"},
		{"id":2,"owner_username":"bob","title":"Grinders","content":"","created_at":"2026-10-03T08:00:00Z","updated_at":"2026-10-03T08:00:00Z"}
	]`}

	blogs, err := NewClient(doer, endpoints).ListBlogs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "GET", doer.last.method)
	assert.Equal(t, endpoints.Blogs, doer.last.uri)
	require.Len(t, blogs, 2)
	assert.Equal(t, 1, blogs[0].Id)
	assert.Equal(t, "alice", blogs[0].OwnerUsername)
	assert.Equal(t, "<p>hi</p>", string(blogs[0].Content))
	assert.Equal(t, time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC), blogs[0].CreatedAt.UTC())
	assert.Equal(t, "Grinders", blogs[1].Title)
}

func TestListBlogsFailures(t *testing.T) {
	_, err := NewClient(&stubDoer{status: 503}, endpoints).ListBlogs(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)

	_, err = NewClient(&stubDoer{status: 200, body: "not json"}, endpoints).ListBlogs(context.Background())
	assert.Error(t, err)

	_, err = NewClient(&stubDoer{err: errors.New("refused")}, endpoints).ListBlogs(context.Background())
	assert.ErrorContains(t, err, "refused")
}

func TestGetBlog(t *testing.T) {
	doer := &stubDoer{status: 200, body: `{"id":7,"owner_username":"alice","title":"Ratios","content":"<p>1:16</p>"}`}

	blog, err := NewClient(doer, endpoints).GetBlog(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test/v1/blogs/7", doer.last.uri)
	assert.Equal(t, 7, blog.Id)
	assert.Equal(t, "Ratios", blog.Title)

	_, err = NewClient(&stubDoer{status: 404}, endpoints).GetBlog(context.Background(), 8)
	assert.ErrorIs(t, err, ErrBlogNotFound)

	_, err = NewClient(&stubDoer{status: 500}, endpoints).GetBlog(context.Background(), 8)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBlogNotFound)
}
