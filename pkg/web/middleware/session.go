package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/jwt"

	"barista-web/pkg/common/config"
)

// SessionIdentityKey is the context key holding the signed-in username.
const SessionIdentityKey = "username"

// SessionAuthMiddleware validates the session cookie the account backend
// issued at login. Requests without a valid cookie are sent to /register.
func SessionAuthMiddleware(cfg config.SessionConfig) (app.HandlerFunc, error) {
	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:            "barista",
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Secret),
		TokenLookup:      "cookie: " + cfg.CookieName,
		IdentityKey:      SessionIdentityKey,
		TimeFunc:         time.Now,
		Unauthorized:     handleSessionError,
	})
	if err != nil {
		return nil, err
	}
	return mw.MiddlewareFunc(), nil
}

func handleSessionError(ctx context.Context, c *app.RequestContext, code int, message string) {
	hlog.CtxInfof(ctx, "session rejected (code=%d) path=%s: %s", code, c.Path(), message)
	c.Redirect(consts.StatusFound, []byte("/register"))
}
