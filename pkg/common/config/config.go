package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServerConfig struct {
	Address   string `json:"address"`
	StaticDir string `json:"staticDir"` // served under /static/
	JSDir     string `json:"jsDir"`     // served under /js/
}

// BackendConfig 账户后端（注册/登录接口由外部服务提供）
type BackendConfig struct {
	BaseURL      string        `json:"baseURL"`
	RegisterPath string        `json:"registerPath"`
	LoginPath    string        `json:"loginPath"`
	UsersPath    string        `json:"usersPath"`
	HealthPath   string        `json:"healthPath"`
	BlogsPath    string        `json:"blogsPath"`
	DialTimeout  time.Duration `json:"dialTimeout"`
}

// RegisterURL is the fixed endpoint the submitter posts to.
func (b BackendConfig) RegisterURL() string { return joinURL(b.BaseURL, b.RegisterPath) }
func (b BackendConfig) LoginURL() string    { return joinURL(b.BaseURL, b.LoginPath) }
func (b BackendConfig) UsersURL() string    { return joinURL(b.BaseURL, b.UsersPath) }
func (b BackendConfig) HealthURL() string   { return joinURL(b.BaseURL, b.HealthPath) }
func (b BackendConfig) BlogsURL() string    { return joinURL(b.BaseURL, b.BlogsPath) }

type ChallengeConfig struct {
	Enabled   bool    `json:"enabled"`
	ProjectID string  `json:"projectID"`
	SiteKey   string  `json:"siteKey"`
	Action    string  `json:"action"`
	MinScore  float64 `json:"minScore"`
}

// SessionConfig 登录后下发的认证Cookie
type SessionConfig struct {
	CookieName    string        `json:"cookieName"`
	Secret        string        `json:"secret"`
	SigningMethod string        `json:"signingMethod"`
	MaxAge        time.Duration `json:"maxAge"` // token 没有 exp 时使用
	Domain        string        `json:"domain"`
	Secure        bool          `json:"secure"`
}

type SecurityConfig struct {
	MaxBodySize     int64    `json:"maxBodySize"` // 单位：字节
	AllowedMethods  []string `json:"allowedMethods"`
	SensitiveFields []string `json:"sensitiveFields"` // 不做内容匹配的表单字段
}

type TimeoutConfig struct {
	RequestTimeout int `json:"requestTimeout"` // 单位：秒
}

type CORSConfig struct {
	AllowOrigins     []string      `json:"allowOrigins"`
	AllowMethods     []string      `json:"allowMethods"`
	AllowHeaders     []string      `json:"allowHeaders"`
	ExposeHeaders    []string      `json:"exposeHeaders"`
	AllowCredentials bool          `json:"allowCredentials"`
	MaxAge           time.Duration `json:"maxAge"`
	TrustedDomains   []string      `json:"trustedDomains"`
}

type RateLimitConfig struct {
	Rate     int           `json:"rate"`
	Interval time.Duration `json:"interval"`
}

type MiddlewareConfig struct {
	Security  SecurityConfig  `json:"security"`
	Timeout   TimeoutConfig   `json:"timeout"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

type DatabaseConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DBName      string `json:"dbname"`
	UseUnixSock bool   `json:"useUnixSock"` // 是否使用Unix套接字连接
	MinPoolSize int    `json:"minPoolSize"`
	MaxPoolSize int    `json:"maxPoolSize"`
	LogLevel    string `json:"logLevel"` // GORM日志级别
}

type MetricsConfig struct {
	Address string `json:"address"` // 空字符串表示不启动
}

type Config struct {
	Server     ServerConfig     `json:"server"`
	Backend    BackendConfig    `json:"backend"`
	Challenge  ChallengeConfig  `json:"challenge"`
	Session    SessionConfig    `json:"session"`
	Database   DatabaseConfig   `json:"database"`
	Middleware MiddlewareConfig `json:"middleware"`
	Metrics    MetricsConfig    `json:"metrics"`
	LogLevel   string           `json:"logLevel"`
	Env        string           `json:"env"` // 环境标识
}

var defaultConfig = Config{
	Server: ServerConfig{
		Address:   ":8000",
		StaticDir: "static",
		JSDir:     "js",
	},
	Backend: BackendConfig{
		BaseURL:      "http://localhost:8080",
		RegisterPath: "/register",
		LoginPath:    "/login",
		UsersPath:    "/v1/users",
		HealthPath:   "/health",
		BlogsPath:    "/v1/blogs",
		DialTimeout:  5 * time.Second,
	},
	Challenge: ChallengeConfig{
		Enabled:  false,
		Action:   "register",
		MinScore: 0.4,
	},
	Session: SessionConfig{
		CookieName:    "barista_auth_token",
		Secret:        "dev-secret-change-me-in-production",
		SigningMethod: "HS256",
		MaxAge:        24 * time.Hour,
	},
	Database: DatabaseConfig{
		Host:        "localhost",
		Port:        3306,
		Username:    "root",
		Password:    "root",
		DBName:      "barista",
		MinPoolSize: 2,
		MaxPoolSize: 10,
		LogLevel:    "warn",
	},
	Middleware: MiddlewareConfig{
		Security: SecurityConfig{
			MaxBodySize:     1 << 20, // 1MB
			AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
			SensitiveFields: []string{"username", "password", "confirm_password", "g-recaptcha-response"},
		},
		Timeout: TimeoutConfig{
			RequestTimeout: 15,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Rate:     20,
			Interval: time.Second,
		},
	},
	Metrics: MetricsConfig{
		Address: ":9100",
	},
	LogLevel: "info",
	Env:      "development",
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// IsProd 判断当前是否生产环境
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）
// A .env file in the working directory is loaded into the process environment first.
func Load() *Config {
	config := defaultConfig

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		hlog.Warnf("Failed to load .env file: %v", err)
	}

	if configPath := getConfigPath(); configPath != "" {
		if err := loadFromFile(&config, configPath); err != nil {
			hlog.Warnf("Failed to load config file: %v", err)
		}
	}

	loadFromEnv(&config)

	return &config
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	searchPaths := []string{
		"./config.json",
		"../config.json",
		"/etc/barista-web/config.json",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadFromEnv 从环境变量加载配置
func loadFromEnv(config *Config) {
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Address = ":" + v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Address = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		config.Server.StaticDir = v
	}
	if v := os.Getenv("JS_DIR"); v != "" {
		config.Server.JSDir = v
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		config.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = strings.ToLower(v)
	}

	// 账户后端
	if v := os.Getenv("BACKEND_URL"); v != "" {
		config.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("BACKEND_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Backend.DialTimeout = d
		} else {
			hlog.Warnf("Invalid BACKEND_DIAL_TIMEOUT format: %v", err)
		}
	}

	// ReCAPTCHA
	if v := os.Getenv("RECAPTCHA_PROJECT_ID"); v != "" {
		config.Challenge.ProjectID = v
		config.Challenge.Enabled = true
	}
	if v := os.Getenv("RECAPTCHA_KEY"); v != "" {
		config.Challenge.SiteKey = v
	}
	if v := os.Getenv("RECAPTCHA_MIN_SCORE"); v != "" {
		if score, err := strconv.ParseFloat(v, 64); err == nil {
			config.Challenge.MinScore = score
		}
	}
	if v := os.Getenv("RECAPTCHA_ENABLED"); v != "" {
		config.Challenge.Enabled = parseBool(v)
	}

	// Session
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}
	if v := os.Getenv("SESSION_COOKIE"); v != "" {
		config.Session.CookieName = v
	}
	if v := os.Getenv("SESSION_SECURE"); v != "" {
		config.Session.Secure = parseBool(v)
	}
	if v := os.Getenv("SESSION_ALGORITHM"); v != "" {
		algorithm := strings.ToUpper(strings.ReplaceAll(v, " ", ""))
		switch algorithm {
		case "HS256", "HS384", "HS512":
			config.Session.SigningMethod = algorithm
		default:
			hlog.Warnf("Unsupported session algorithm: %s", v)
		}
	}

	// 中间件配置
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Middleware.Security.MaxBodySize = size
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			config.Middleware.Timeout.RequestTimeout = timeout
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			config.Middleware.RateLimit.Rate = rate
		}
	}
	if v := os.Getenv("CORS_TRUSTED_DOMAINS"); v != "" {
		config.Middleware.CORS.TrustedDomains = splitEnvList(v)
	}

	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		config.Metrics.Address = v
	}

	// 数据库配置
	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.DBName = v
	}
	if v := os.Getenv("DB_SOCKET"); v != "" {
		config.Database.UseUnixSock = parseBool(v)
	}
	if v := os.Getenv("DB_MIN_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MinPoolSize = size
		}
	}
	if v := os.Getenv("DB_MAX_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MaxPoolSize = size
		}
	}
	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.Database.LogLevel = strings.ToLower(v)
	}
}

// HlogLevel maps the configured log level onto hertz's logger levels.
func (c *Config) HlogLevel() hlog.Level {
	switch c.LogLevel {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}

// 分割环境变量列表（支持逗号分隔的字符串）
func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// DSN builds the MySQL connection string.
func (d DatabaseConfig) DSN() string {
	charsetParam := "charset=utf8mb4&parseTime=True&loc=Local"

	// 自动切换连接方式
	if d.UseUnixSock {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?%s",
			d.Username, d.Password, d.Host, d.DBName, charsetParam)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, charsetParam)
}

func (c *Config) InitDB() (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	switch c.Database.LogLevel {
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	case "warn":
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(mysql.Open(c.Database.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(c.Database.MinPoolSize)
	sqlDB.SetMaxOpenConns(c.Database.MaxPoolSize)

	return db, nil
}
