package account

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/json"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ErrBlogNotFound is returned when the backend answers 404 for a blog.
var ErrBlogNotFound = errors.New("blog not found")

// Blog as served by the backend's blogs endpoint. Content is trusted HTML
// authored through the backend.
type Blog struct {
	Id            int           `json:"id"`
	OwnerUsername string        `json:"owner_username"`
	Title         string        `json:"title"`
	Content       template.HTML `json:"content"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ListBlogs fetches every blog.
func (c *Client) ListBlogs(ctx context.Context) ([]Blog, error) {
	status, body, err := c.call(ctx, consts.MethodGet, c.endpoints.Blogs, nil)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Op: "list blogs", StatusCode: status}
	}

	var blogs []Blog
	if err := json.Unmarshal(body, &blogs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	return blogs, nil
}

// GetBlog fetches one blog by id.
func (c *Client) GetBlog(ctx context.Context, id int) (Blog, error) {
	endpoint := strings.TrimRight(c.endpoints.Blogs, "/") + "/" + strconv.Itoa(id)
	status, body, err := c.call(ctx, consts.MethodGet, endpoint, nil)
	if err != nil {
		return Blog{}, fmt.Errorf("get blog: %w", err)
	}
	if status == consts.StatusNotFound {
		return Blog{}, ErrBlogNotFound
	}
	if status < 200 || status > 299 {
		return Blog{}, &StatusError{Op: "get blog", StatusCode: status}
	}

	var blog Blog
	if err := json.Unmarshal(body, &blog); err != nil {
		return Blog{}, fmt.Errorf("decode blog: %w", err)
	}
	return blog, nil
}
