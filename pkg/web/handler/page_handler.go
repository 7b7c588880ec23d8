package handler

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	webmodel "barista-web/pkg/web/model"
)

type PageHandler struct {
	identityKey string
}

// NewPageHandler serves the static pages. identityKey is where the session
// middleware stores the signed-in username.
func NewPageHandler(identityKey string) *PageHandler {
	return &PageHandler{identityKey: identityKey}
}

func (h *PageHandler) Account(ctx context.Context, c *app.RequestContext) {
	identity, ok := c.Get(h.identityKey)
	if !ok {
		c.Redirect(consts.StatusFound, []byte("/register"))
		return
	}
	c.HTML(consts.StatusOK, "account.html", webmodel.AccountPage{Username: fmt.Sprint(identity)})
}

func (h *PageHandler) NotFound(ctx context.Context, c *app.RequestContext) {
	c.HTML(consts.StatusNotFound, "404.html", nil)
}
