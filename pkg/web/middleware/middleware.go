package middleware

import (
	"context"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/hertz-contrib/cors"

	"barista-web/pkg/common/config"
)

// LoggerMiddleware 结构化的请求日志记录
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		latency := time.Since(start)

		hlog.CtxInfof(c, "| %3d | %13v | %15s | %-7s | %s | UA=%s",
			ctx.Response.StatusCode(),
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			ctx.GetHeader("User-Agent"),
		)
	}
}

// RecoveryMiddleware 异常捕获，生产环境不暴露堆栈
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				hlog.CtxErrorf(c, "[PANIC RECOVERED] %v\n%s", err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(500, utils.H{
						"code":    500,
						"message": "internal server error",
					})
					return
				}
				ctx.AbortWithStatusJSON(500, utils.H{
					"code":  500,
					"error": fmt.Sprintf("%v", err),
					"stack": strings.Split(stack, "\n"),
				})
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware 安全的跨域配置
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     corsConfig.AllowOrigins,
		AllowMethods:     corsConfig.AllowMethods,
		AllowHeaders:     corsConfig.AllowHeaders,
		ExposeHeaders:    corsConfig.ExposeHeaders,
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           corsConfig.MaxAge,
	}
	if len(corsConfig.TrustedDomains) > 0 {
		// 动态校验来源; AllowOriginFunc and AllowOrigins are exclusive in cors.Config
		cfg.AllowOrigins = nil
		allowed := corsConfig.AllowOrigins
		cfg.AllowOriginFunc = func(origin string) bool {
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			for _, domain := range corsConfig.TrustedDomains {
				if strings.HasSuffix(origin, domain) {
					return true
				}
			}
			return false
		}
	}
	return cors.New(cfg)
}

// TimeoutMiddleware puts a deadline on the request context. The hertz client
// does not watch ctx, so account.Client copies the remaining time into each
// request's RequestTimeout option; the submitter detaches from it.
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if seconds <= 0 {
			ctx.Next(c)
			return
		}
		timeoutCtx, cancel := context.WithTimeout(c, time.Duration(seconds)*time.Second)
		defer cancel()

		ctx.Next(timeoutCtx)

		if timeoutCtx.Err() == context.DeadlineExceeded {
			hlog.CtxWarnf(c, "request exceeded deadline path=%s", ctx.Path())
		}
	}
}

// RateLimitMiddleware 令牌桶算法限流
func RateLimitMiddleware(rate int, interval time.Duration) app.HandlerFunc {
	limiter := NewTokenBucket(rate, interval)

	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			hlog.CtxInfof(c, "[RATE LIMIT] path=%s", ctx.Path())
			ctx.AbortWithStatusJSON(429, utils.H{
				"code":    429001,
				"message": "too many requests",
			})
			return
		}
		ctx.Next(c)
	}
}

// TokenBucket refills one token per interval up to capacity. It starts full.
type TokenBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewTokenBucket(rate int, interval time.Duration) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &TokenBucket{
		capacity: rate,
		tokens:   rate,
		interval: interval,
		last:     time.Now(),
		now:      time.Now,
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if refill := int(now.Sub(tb.last) / tb.interval); refill > 0 {
		tb.tokens += refill
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = tb.last.Add(time.Duration(refill) * tb.interval)
	}

	if tb.tokens == 0 {
		return false
	}
	tb.tokens--
	return true
}

// SecurityCheckMiddleware 全局安全校验中间件
// Fields named in sensitiveFields (passwords, challenge tokens) are never
// pattern-matched: their content is opaque and forwarded unchanged.
func SecurityCheckMiddleware(sec config.SecurityConfig) app.HandlerFunc {
	xssRegex := regexp.MustCompile(`(?i)<script.*?>|</script>|alert\(|onerror=`)
	sqlInjectRegex := regexp.MustCompile(`\b(union|select|drop|delete|insert)\b`)

	sensitive := make(map[string]bool, len(sec.SensitiveFields))
	for _, f := range sec.SensitiveFields {
		sensitive[f] = true
	}
	allowed := make(map[string]bool, len(sec.AllowedMethods))
	for _, m := range sec.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		// 防护机制1：检查HTTP方法
		if len(allowed) > 0 && !allowed[string(ctx.Method())] {
			securityResponse(c, ctx, 405001, "method not allowed", 405)
			return
		}

		// 防护机制2：请求体大小限制
		if sec.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > sec.MaxBodySize {
			securityResponse(c, ctx, 413001, "request body exceeds max size", 413)
			return
		}

		// 防护机制3：参数恶意字符检查
		if hasMaliciousContent(ctx, sensitive, xssRegex, sqlInjectRegex) {
			securityResponse(c, ctx, 422001, "request contains invalid characters", 422)
			return
		}

		ctx.Next(c)
	}
}

func hasMaliciousContent(ctx *app.RequestContext, sensitive map[string]bool, patterns ...*regexp.Regexp) bool {
	found := false
	visitor := func(key, value []byte) {
		if found || sensitive[string(key)] {
			return
		}
		for _, p := range patterns {
			if p.Match(key) || p.Match(value) {
				found = true
				return
			}
		}
	}

	ctx.QueryArgs().VisitAll(visitor)
	if found {
		return true
	}
	ctx.PostArgs().VisitAll(visitor)
	return found
}

// 安全响应统一处理
func securityResponse(c context.Context, ctx *app.RequestContext, code int, msg string, status int) {
	hlog.CtxWarnf(c, "SecurityAlert[code=%d]: %s path=%s", code, msg, ctx.Path())
	ctx.AbortWithStatusJSON(status, utils.H{
		"code":    code,
		"message": msg,
	})
}
