package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	SessionSecret      string
	SessionCookie      string
	AuthHeaderFallback bool

	LogLevel  string
	LogFormat string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	MigrateOnStart  bool
	ShutdownTimeout time.Duration
}

// Load reads a .env file when present, then the environment. Every missing
// required variable and every malformed value is reported in one error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var problems []string
	cfg := Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:   required("DATABASE_URL", &problems),
		SessionSecret: required("SESSION_SECRET", &problems),
		SessionCookie: getenv("SESSION_COOKIE", "__session"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "json")),

		CORSAllowCredentials: getbool("CORS_ALLOW_CREDENTIALS", false, &problems),
		AuthHeaderFallback:   getbool("AUTH_HEADER_FALLBACK", true, &problems),
		MigrateOnStart:       getbool("MIGRATE_ON_START", true, &problems),

		DBMaxOpenConns:    getint("DB_MAX_OPEN_CONNS", 10, &problems),
		DBMaxIdleConns:    getint("DB_MAX_IDLE_CONNS", 5, &problems),
		DBConnMaxLifetime: getduration("DB_CONN_MAX_LIFETIME", 30*time.Minute, &problems),
		ShutdownTimeout:   getduration("SHUTDOWN_TIMEOUT", 10*time.Second, &problems),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		problems = append(problems, "LOG_FORMAT must be json or text")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func required(key string, problems *[]string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		*problems = append(*problems, "missing env: "+key)
	}
	return v
}

func getbool(key string, def bool, problems *[]string) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: invalid bool %q", key, v))
		return def
	}
	return b
}

func getint(key string, def int, problems *[]string) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*problems = append(*problems, fmt.Sprintf("%s: invalid non-negative integer %q", key, v))
		return def
	}
	return n
}

func getduration(key string, def time.Duration, problems *[]string) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*problems = append(*problems, fmt.Sprintf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
