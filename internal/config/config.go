package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	GinMode       string
	SessionSecret string

	DatabaseDriver string
	DatabasePath   string
	Postgres       PostgresConfig

	SupabaseURL     string
	SupabaseKey     string
	SupabaseTimeout time.Duration

	JWTSecret      string
	TokenTTL       time.Duration
	AllowDevTokens bool

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string

	EnableTestRoutes bool
}

// PostgresConfig 描述关系型后端的连接参数
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN 拼接 gorm postgres 驱动使用的连接串
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// SupabaseEnabled 表示是否配置了远程 REST 后端
func (c AppConfig) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// 浏览器前端的默认来源
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// LoadDotEnv 读取工作目录下的 .env（若存在），已有的环境变量不会被覆盖。
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8080")

	return AppConfig{
		ListenAddr:    env("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:          port,
		GinMode:       env("GIN_MODE", "release"),
		SessionSecret: env("SESSION_SECRET", "plantcare-dev-secret"),

		DatabaseDriver: strings.ToLower(env("DATABASE_DRIVER", "sqlite")),
		DatabasePath:   env("DATABASE_PATH", "plantcare.db"),
		Postgres: PostgresConfig{
			Host:     env("PG_HOST", "localhost"),
			Port:     env("PG_PORT", "5432"),
			User:     env("PG_USER", "postgres"),
			Password: env("PG_PASS", ""),
			DBName:   env("PG_DB", "plantcare"),
			SSLMode:  env("PG_SSLMODE", "disable"),
		},

		SupabaseURL:     env("SUPABASE_URL", ""),
		SupabaseKey:     env("SUPABASE_KEY", ""),
		SupabaseTimeout: envDuration("SUPABASE_TIMEOUT", 10*time.Second),

		JWTSecret:      env("JWT_SECRET", "plantcare-dev-jwt-secret"),
		TokenTTL:       envDuration("TOKEN_TTL", 24*time.Hour),
		AllowDevTokens: envBool("ALLOW_DEV_TOKENS", false),

		CORSOrigins:    envList("CORS_ORIGINS", defaultCORSOrigins),
		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),

		LogLevel:  strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env("LOG_FORMAT", "text")),

		EnableTestRoutes: envBool("ENABLE_TEST_ROUTES", false),
	}
}

func env(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(env(key, ""))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(env(key, ""), 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(env(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envList(key string, fallback []string) []string {
	raw := env(key, "")
	if raw == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
