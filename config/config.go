package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds everything the service reads at startup. It is never mutated
// after Load returns.
type Config struct {
	Port string
	Env  string

	// Database
	DBDriver string
	DBDSN    string

	// Sessions
	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn int // days
	BcryptCost         int
	PasswordResetTTL   time.Duration

	// Uploaded images
	ImageStore     string
	ImageDir       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	MaxUploadBytes int64

	// Outbound mail
	MailFrom string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	// Rate limiting on the public auth routes
	RateLimitRPS   int
	RateLimitBurst int

	MaxBodyBytes int64
}

// Load reads configuration from envFile (if it exists) and the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// missing .env is fine, real deployments use the environment
		_ = godotenv.Load(envFile)
	}

	jwtExpires, err := parseDuration(getEnv("JWT_EXPIRES_IN", "90d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	resetTTL, err := parseDuration(getEnv("RESET_TOKEN_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("RESET_TOKEN_TTL: %w", err)
	}

	config := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("APP_ENV", EnvDevelopment),
		DBDriver:           getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:              getEnv("DB_DSN", "./fastmemo.db?_foreign_keys=on"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiresIn:       jwtExpires,
		JWTCookieExpiresIn: getEnvAsInt("JWT_COOKIE_EXPIRES_IN", 90),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		PasswordResetTTL:   resetTTL,
		ImageStore:         getEnv("IMAGE_STORE", "disk"),
		ImageDir:           getEnv("IMAGE_DIR", "./images"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
		MailFrom:           getEnv("MAIL_FROM", "FastMemo <noreply@fastmemo.local>"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPass:           getEnv("SMTP_PASS", ""),
		RateLimitRPS:       getEnvAsInt("RATE_LIMIT_RPS", 1),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 10*1024)),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q", EnvDevelopment, EnvProduction)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.JWTCookieExpiresIn <= 0 {
		return fmt.Errorf("JWT_COOKIE_EXPIRES_IN must be positive")
	}

	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}

	switch c.ImageStore {
	case "disk":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("IMAGE_STORE %q is not supported", c.ImageStore)
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// parseDuration accepts anything time.ParseDuration does plus a "d" suffix
// for whole days ("90d").
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
