package router

import (
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"barista-web/pkg/common/config"
	"barista-web/pkg/web/handler"
	"barista-web/pkg/web/middleware"
	"barista-web/pkg/web/templates"
)

// Dependencies are the services the routes delegate to.
type Dependencies struct {
	Registration handler.RegistrationService
	Database     handler.Pinger
	Backend      handler.Pinger
	Blogs        handler.BlogSource
}

// RegisterAPIs 注册所有路由
func RegisterAPIs(h *server.Hertz, cfg *config.Config, deps Dependencies) error {
	healthHandler := handler.NewHealthCheckHandler(deps.Database, deps.Backend)
	registerHandler := handler.NewRegisterHandler(deps.Registration, cfg)
	pageHandler := handler.NewPageHandler(middleware.SessionIdentityKey)
	blogHandler := handler.NewBlogHandler(deps.Blogs, pageHandler)

	sessionAuth, err := middleware.SessionAuthMiddleware(cfg.Session)
	if err != nil {
		return fmt.Errorf("init session middleware: %w", err)
	}

	h.SetHTMLTemplate(templates.Parse())

	// 注册全局中间件（按执行顺序）
	h.Use(
		middleware.RecoveryMiddleware(cfg),
		middleware.LoggerMiddleware(),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
	)

	h.GET("/health", healthHandler.AdvancedHealthCheck)

	staticDir(h, "/static", cfg.Server.StaticDir)
	staticDir(h, "/js", cfg.Server.JSDir)

	h.GET("/", blogHandler.Home)
	h.GET("/blogs/", blogHandler.List)
	h.GET("/blogs/:id", blogHandler.Show)
	h.GET("/account", sessionAuth, pageHandler.Account)

	h.GET("/register", registerHandler.Form)
	h.POST("/register", middleware.RateLimitMiddleware(
		cfg.Middleware.RateLimit.Rate,
		cfg.Middleware.RateLimit.Interval,
	), registerHandler.Submit)

	h.NoRoute(pageHandler.NotFound)
	return nil
}

// staticDir serves files under root at prefix, so /static/site.css maps to
// <root>/site.css. An empty root disables the route.
func staticDir(h *server.Hertz, prefix, root string) {
	if root == "" {
		return
	}
	h.StaticFS(prefix, &app.FS{
		Root:        root,
		PathRewrite: app.NewPathSlashesStripper(1),
	})
}
