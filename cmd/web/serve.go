package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/spf13/cobra"

	"barista-web/pkg/common/config"
	"barista-web/pkg/common/metrics"
	"barista-web/pkg/core/account"
	"barista-web/pkg/core/challenge"
	"barista-web/pkg/core/registration/model"
	dao "barista-web/pkg/core/registration/repository/dao/impl"
	"barista-web/pkg/core/registration/service"
	"barista-web/pkg/web/router"
)

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Server.Address = ":" + port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "the port the app will run on (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	hlog.SetLevel(cfg.HlogLevel())

	// 初始化数据库连接
	db, err := cfg.InitDB()
	if err != nil {
		return err
	}
	if err := model.AutoMigrate(db); err != nil {
		return err
	}
	attempts := dao.NewGormAttemptRepository(db)

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return err
	}

	verifier, closeVerifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeVerifier()

	m := metrics.New()
	backend := newAccountClient(httpClient, cfg)
	submitter := service.NewSubmitter(httpClient, cfg.Backend.RegisterURL(),
		service.WithCompletionHook(func(o service.Outcome) {
			m.ObserveSubmission(o.StatusCode, o.Latency)
		}))
	svc := service.NewService(submitter, verifier, backend, attempts, m, service.Options{
		Action:        cfg.Challenge.Action,
		SessionMaxAge: cfg.Session.MaxAge,
	})

	if cfg.Metrics.Address != "" {
		go serveMetrics(cfg.Metrics.Address, m)
	}

	// 创建Hertz实例
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Middleware.Security.MaxBodySize)),
	)

	// 注册路由
	if err := router.RegisterAPIs(h, cfg, router.Dependencies{
		Registration: svc,
		Database:     attempts,
		Backend:      backend,
		Blogs:        backend,
	}); err != nil {
		return err
	}

	hlog.Infof("app listening on %s, registering against %s", cfg.Server.Address, submitter.Endpoint())
	h.Spin()
	return nil
}

func newHTTPClient(cfg *config.Config) (*client.Client, error) {
	return client.NewClient(
		client.WithDialTimeout(cfg.Backend.DialTimeout),
	)
}

func newAccountClient(c *client.Client, cfg *config.Config) *account.Client {
	return account.NewClient(c, account.Endpoints{
		Users:  cfg.Backend.UsersURL(),
		Login:  cfg.Backend.LoginURL(),
		Health: cfg.Backend.HealthURL(),
		Blogs:  cfg.Backend.BlogsURL(),
	})
}

func newVerifier(ctx context.Context, cfg *config.Config) (challenge.Verifier, func(), error) {
	if !cfg.Challenge.Enabled {
		hlog.Warnf("challenge verification disabled")
		return challenge.NopVerifier{}, func() {}, nil
	}
	v, err := challenge.NewRecaptchaVerifier(ctx, cfg.Challenge.ProjectID, cfg.Challenge.SiteKey, cfg.Challenge.MinScore)
	if err != nil {
		return nil, nil, err
	}
	return v, func() {
		if err := v.Close(); err != nil {
			hlog.Warnf("close recaptcha client: %v", err)
		}
	}, nil
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	hlog.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		hlog.Errorf("metrics server stopped: %v", err)
	}
}
