package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendURLs(t *testing.T) {
	b := BackendConfig{
		BaseURL:      "http://backend:8080/",
		RegisterPath: "/register",
		LoginPath:    "login",
		UsersPath:    "/v1/users",
		BlogsPath:    "/v1/blogs",
	}

	assert.Equal(t, "http://backend:8080/register", b.RegisterURL())
	assert.Equal(t, "http://backend:8080/login", b.LoginURL())
	assert.Equal(t, "http://backend:8080/v1/users", b.UsersURL())
	assert.Equal(t, "http://backend:8080/", b.HealthURL())
	assert.Equal(t, "http://backend:8080/v1/blogs", b.BlogsURL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_URL", "http://accounts.internal:8080/")
	t.Setenv("RECAPTCHA_PROJECT_ID", "barista-prod")
	t.Setenv("RECAPTCHA_MIN_SCORE", "0.7")
	t.Setenv("SESSION_ALGORITHM", "hs512")
	t.Setenv("BACKEND_DIAL_TIMEOUT", "250ms")
	t.Setenv("CORS_TRUSTED_DOMAINS", ".barista.dev, ,.barista.io")
	t.Setenv("STATIC_DIR", "/srv/barista/static")

	cfg := defaultConfig
	loadFromEnv(&cfg)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "/srv/barista/static", cfg.Server.StaticDir)
	assert.Equal(t, "js", cfg.Server.JSDir)
	assert.Equal(t, "http://accounts.internal:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Backend.DialTimeout)
	assert.True(t, cfg.Challenge.Enabled)
	assert.Equal(t, "barista-prod", cfg.Challenge.ProjectID)
	assert.InDelta(t, 0.7, cfg.Challenge.MinScore, 1e-9)
	assert.Equal(t, "HS512", cfg.Session.SigningMethod)
	assert.Equal(t, []string{".barista.dev", ".barista.io"}, cfg.Middleware.CORS.TrustedDomains)
}

func TestLoadFromEnvRejectsUnknownAlgorithm(t *testing.T) {
	t.Setenv("SESSION_ALGORITHM", "RS256")

	cfg := defaultConfig
	loadFromEnv(&cfg)

	assert.Equal(t, "HS256", cfg.Session.SigningMethod)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"env": "production",
		"backend": {"baseURL": "http://accounts:8080"},
		"challenge": {"enabled": true, "minScore": 0.5}
	}`), 0o600))

	cfg := defaultConfig
	require.NoError(t, loadFromFile(&cfg, path))

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "http://accounts:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "/register", cfg.Backend.RegisterPath, "unset fields keep defaults")
	assert.True(t, cfg.Challenge.Enabled)
	assert.Equal(t, "register", cfg.Challenge.Action)
}

func TestLoadFromFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	cfg := defaultConfig
	assert.Error(t, loadFromFile(&cfg, path))
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 3307, Username: "u", Password: "p", DBName: "barista"}
	assert.Equal(t, "u:p@tcp(db:3307)/barista?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())

	d.UseUnixSock = true
	d.Host = "/var/run/mysqld/mysqld.sock"
	assert.Equal(t, "u:p@unix(/var/run/mysqld/mysqld.sock)/barista?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}

func TestHlogLevel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, hlog.LevelInfo, cfg.HlogLevel())

	cfg.LogLevel = "debug"
	assert.Equal(t, hlog.LevelDebug, cfg.HlogLevel())
}
