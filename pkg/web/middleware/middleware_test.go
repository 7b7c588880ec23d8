package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barista-web/pkg/common/config"
)

func ok(ctx context.Context, c *app.RequestContext) {
	c.String(200, "ok")
}

func formBody(s string) *ut.Body {
	return &ut.Body{Body: bytes.NewBufferString(s), Len: len(s)}
}

var formHeader = ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, time.Second)
	now := time.Now()
	tb.last = now
	tb.now = func() time.Time { return now }

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped at capacity")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := server.New()
	h.Use(RateLimitMiddleware(1, time.Hour))
	h.GET("/", ok)

	assert.Equal(t, 200, ut.PerformRequest(h.Engine, "GET", "/", nil).Result().StatusCode())
	assert.Equal(t, 429, ut.PerformRequest(h.Engine, "GET", "/", nil).Result().StatusCode())
}

func TestSecurityCheckMiddleware(t *testing.T) {
	h := server.New()
	h.Use(SecurityCheckMiddleware(config.SecurityConfig{
		MaxBodySize:     64,
		AllowedMethods:  []string{"GET", "POST"},
		SensitiveFields: []string{"username", "password"},
	}))
	h.GET("/", ok)
	h.POST("/register", ok)
	h.PUT("/register", ok)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"plain get", "GET", "/", "", 200},
		{"xss in query", "GET", "/?q=%3Cscript%3E", "", 422},
		{"sql in form", "POST", "/register", "comment=drop+table", 422},
		{"sql keywords are case sensitive", "POST", "/register", "comment=Drop+table", 200},
		{"sensitive field exempt", "POST", "/register", "username=alice&password=select+1", 200},
		{"username exempt", "POST", "/register", "username=drop&password=pw", 200},
		{"body too large", "POST", "/register", "username=" + string(bytes.Repeat([]byte("a"), 100)), 413},
		{"method not allowed", "PUT", "/register", "", 405},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *ut.Body
			if tt.body != "" {
				body = formBody(tt.body)
			}
			w := ut.PerformRequest(h.Engine, tt.method, tt.path, body, formHeader)
			assert.Equal(t, tt.want, w.Result().StatusCode())
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		cfg := config.Default()
		cfg.Env = env

		h := server.New()
		h.Use(RecoveryMiddleware(cfg))
		h.GET("/panic", func(ctx context.Context, c *app.RequestContext) {
			panic("boom")
		})

		w := ut.PerformRequest(h.Engine, "GET", "/panic", nil)
		resp := w.Result()
		assert.Equal(t, 500, resp.StatusCode())
		if env == "production" {
			assert.NotContains(t, string(resp.Body()), "boom")
		} else {
			assert.Contains(t, string(resp.Body()), "boom")
		}
	}
}

func TestTimeoutMiddlewareSetsDeadline(t *testing.T) {
	h := server.New()
	h.Use(TimeoutMiddleware(5))
	h.GET("/", func(ctx context.Context, c *app.RequestContext) {
		_, has := ctx.Deadline()
		c.JSON(200, map[string]bool{"deadline": has})
	})

	w := ut.PerformRequest(h.Engine, "GET", "/", nil)
	assert.JSONEq(t, `{"deadline":true}`, string(w.Result().Body()))
}

func TestSessionAuthMiddleware(t *testing.T) {
	cfg := config.Default().Session
	mw, err := SessionAuthMiddleware(cfg)
	require.NoError(t, err)

	h := server.New()
	h.GET("/account", mw, func(ctx context.Context, c *app.RequestContext) {
		v, _ := c.Get(SessionIdentityKey)
		c.String(200, "%v", v)
	})

	t.Run("no cookie", func(t *testing.T) {
		resp := ut.PerformRequest(h.Engine, "GET", "/account", nil).Result()
		assert.Equal(t, 302, resp.StatusCode())
		assertLocation(t, resp, "/register")
	})

	t.Run("valid cookie", func(t *testing.T) {
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
			"username": "alice",
			"exp":      time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(cfg.Secret))
		require.NoError(t, err)

		resp := ut.PerformRequest(h.Engine, "GET", "/account", nil,
			ut.Header{Key: "Cookie", Value: cfg.CookieName + "=" + token}).Result()
		assert.Equal(t, 200, resp.StatusCode())
		assert.Equal(t, "alice", string(resp.Body()))
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
			"username": "mallory",
			"exp":      time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("not-the-secret"))
		require.NoError(t, err)

		resp := ut.PerformRequest(h.Engine, "GET", "/account", nil,
			ut.Header{Key: "Cookie", Value: cfg.CookieName + "=" + token}).Result()
		assert.Equal(t, 302, resp.StatusCode())
	})
}

func assertLocation(t *testing.T, resp *protocol.Response, path string) {
	t.Helper()
	loc := string(resp.Header.Peek("Location"))
	assert.True(t, strings.HasSuffix(loc, path), "location %q, want %q", loc, path)
}
