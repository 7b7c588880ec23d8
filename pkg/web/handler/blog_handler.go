package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"barista-web/pkg/core/account"
	webmodel "barista-web/pkg/web/model"
)

// BlogSource is the part of the account backend the blog pages read from.
type BlogSource interface {
	ListBlogs(ctx context.Context) ([]account.Blog, error)
	GetBlog(ctx context.Context, id int) (account.Blog, error)
}

type BlogHandler struct {
	blogs    BlogSource
	notFound func(ctx context.Context, c *app.RequestContext)
}

func NewBlogHandler(blogs BlogSource, pages *PageHandler) *BlogHandler {
	return &BlogHandler{blogs: blogs, notFound: pages.NotFound}
}

// Home 首页（博客列表）
func (h *BlogHandler) Home(ctx context.Context, c *app.RequestContext) {
	h.list(ctx, c, "home.html")
}

func (h *BlogHandler) List(ctx context.Context, c *app.RequestContext) {
	h.list(ctx, c, "blogs.html")
}

func (h *BlogHandler) list(ctx context.Context, c *app.RequestContext, page string) {
	blogs, err := h.blogs.ListBlogs(ctx)
	if err != nil {
		hlog.CtxErrorf(ctx, "err fetching blogs: %v", err)
		c.HTML(consts.StatusInternalServerError, "500.html", nil)
		return
	}
	c.HTML(consts.StatusOK, page, webmodel.HomePage{Blogs: blogs})
}

func (h *BlogHandler) Show(ctx context.Context, c *app.RequestContext) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.notFound(ctx, c)
		return
	}
	blog, err := h.blogs.GetBlog(ctx, id)
	if errors.Is(err, account.ErrBlogNotFound) {
		h.notFound(ctx, c)
		return
	}
	if err != nil {
		hlog.CtxErrorf(ctx, "err fetching blog %d: %v", id, err)
		c.HTML(consts.StatusInternalServerError, "500.html", nil)
		return
	}
	c.HTML(consts.StatusOK, "blog.html", webmodel.BlogPage{Blog: blog})
}
