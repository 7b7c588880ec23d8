package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"barista-web/pkg/common/config"
	apperrors "barista-web/pkg/common/errors"
	"barista-web/pkg/core/registration/model"
	"barista-web/pkg/core/registration/service"
	webmodel "barista-web/pkg/web/model"
)

type RegistrationService interface {
	Register(ctx context.Context, form model.Form, clientIP string) (service.Result, error)
}

type RegisterHandler struct {
	svc       RegistrationService
	session   config.SessionConfig
	challenge config.ChallengeConfig
}

func NewRegisterHandler(svc RegistrationService, cfg *config.Config) *RegisterHandler {
	return &RegisterHandler{
		svc:       svc,
		session:   cfg.Session,
		challenge: cfg.Challenge,
	}
}

// Form renders the registration page.
func (h *RegisterHandler) Form(ctx context.Context, c *app.RequestContext) {
	c.HTML(consts.StatusOK, "register.html", h.page(""))
}

// Submit forwards the posted form. A password mismatch sends the user back to
// an empty form without saying which field was wrong.
func (h *RegisterHandler) Submit(ctx context.Context, c *app.RequestContext) {
	var req webmodel.RegisterForm
	if err := c.BindAndValidate(&req); err != nil {
		hlog.CtxWarnf(ctx, "err parsing form data: %v", err)
		c.HTML(consts.StatusBadRequest, "register.html", h.page("invalid form"))
		return
	}
	// the JSON encoder would swap invalid bytes for U+FFFD and register a
	// different username or password than the one typed
	if !req.ValidUTF8() {
		hlog.CtxWarnf(ctx, "rejecting form with invalid utf-8")
		c.HTML(consts.StatusBadRequest, "register.html", h.page("invalid form"))
		return
	}

	res, err := h.svc.Register(ctx, req.Domain(), c.ClientIP())
	if err != nil {
		status := apperrors.StatusOf(err)
		if status >= consts.StatusInternalServerError {
			hlog.CtxErrorf(ctx, "registration failed: %v", err)
		} else {
			hlog.CtxInfof(ctx, "registration refused: %v", err)
		}
		c.HTML(status, "register.html", h.page(apperrors.PublicMessage(err)))
		return
	}

	if !res.Submitted {
		c.Redirect(consts.StatusSeeOther, []byte("/register"))
		return
	}

	if res.MaxAge > 0 {
		c.SetCookie(h.session.CookieName, res.Token, int(res.MaxAge.Seconds()), "/",
			h.session.Domain, protocol.CookieSameSiteLaxMode, h.session.Secure, true)
	} else {
		hlog.CtxWarnf(ctx, "backend issued an expired session token, not setting cookie")
	}
	c.Redirect(consts.StatusFound, []byte("/"))
}

func (h *RegisterHandler) page(msg string) webmodel.RegisterPage {
	return webmodel.RegisterPage{
		Error:            msg,
		ChallengeEnabled: h.challenge.Enabled,
		SiteKey:          h.challenge.SiteKey,
		Action:           h.challenge.Action,
	}
}
