package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity (JWT issued by the external identity provider)
	JWTSecret            string
	AllowAnonymousReport bool
	FallbackSubmitterID  string

	// Content moderation
	ModerationAPIKey  string
	ModerationAPIURL  string
	ModerationModel   string
	ModerationTimeout time.Duration

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Rewards
	ReportRewardPoints int

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "civicfix_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		AllowAnonymousReport: parseBool(getEnv("ALLOW_ANONYMOUS_REPORTS", "true")),
		FallbackSubmitterID:  getEnv("FALLBACK_SUBMITTER_ID", "demo-user"),

		ModerationAPIKey:  getEnv("OPENAI_API_KEY", ""),
		ModerationAPIURL:  getEnv("OPENAI_MODERATION_URL", "https://api.openai.com/v1/moderations"),
		ModerationModel:   getEnv("OPENAI_MODERATION_MODEL", "omni-moderation-latest"),
		ModerationTimeout: parseDuration(getEnv("MODERATION_TIMEOUT", "40s")),

		UploadDir:      getEnv("UPLOAD_DIR", "wwwroot"),
		MaxUploadBytes: parseInt64(getEnv("MAX_UPLOAD_MB", "5")) * 1024 * 1024,

		ReportRewardPoints: int(parseInt64(getEnv("REPORT_REWARD_POINTS", "10"))),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 40 * time.Second
	}
	return d
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
