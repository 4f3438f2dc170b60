package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	RedisAddr   string

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration

	AdminUsername string
	AdminPassword string
	LogsPassword  string

	UploadDir   string
	MaxUploadMB int64

	PythonBin    string
	FrameScript  string
	EnrollScript string
	FrameTimeout time.Duration

	QueueBackend    string
	RateLimitPerMin int

	SendGridAPIKey string
	EmailFrom      string

	AllowedOrigins   []string
	LookaheadMinutes int
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is read first when
// present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("HTTP_PORT", "5000"),

		DatabaseURL: getEnv("DATABASE_URL", defaultDatabaseURL()),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		JWTIssuer:     getEnv("JWT_ISSUER", "attendance-system"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:     durationEnv("ACCESS_TTL", 8*time.Hour),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		LogsPassword:  getEnv("LOGS_PASSWORD", "logs123"),

		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB: int64(intEnv("MAX_UPLOAD_MB", 10)),

		PythonBin:    getEnv("PYTHON_BIN", "python3"),
		FrameScript:  getEnv("FRAME_SCRIPT", "python-camera-system/process_web_frame.py"),
		EnrollScript: getEnv("ENROLL_SCRIPT", "python-camera-system/register_student.py"),
		FrameTimeout: durationEnv("FRAME_TIMEOUT", 10*time.Second),

		QueueBackend:    getEnv("QUEUE_BACKEND", "redis"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 300),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),

		AllowedOrigins:   splitEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		LookaheadMinutes: intEnv("LOOKAHEAD_MINUTES", 60),
	}
}

// EmailConfigured reports whether outbound email can be sent. Missing
// credentials degrade email features instead of failing startup.
func (a App) EmailConfigured() bool {
	return a.SendGridAPIKey != "" && a.EmailFrom != ""
}

// defaultDatabaseURL assembles a DSN from the individual DB_* variables kept
// for compatibility with the original deployment scripts.
func defaultDatabaseURL() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "attendance")
	pass := getEnv("DB_PASSWORD", "attendance")
	name := getEnv("DB_NAME", "attendance_system")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("invalid int for %s, using fallback %d", key, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
