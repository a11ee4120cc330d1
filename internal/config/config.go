package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisAddr string
	RedisPass string

	JWTSecret string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	APIURL      string
	FrontendURL string
	UploadDir   string
}

// Load reads .env if present, then the environment. Missing keys fall
// back to local-development defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getenv("PORT", "8080"),

		DBHost: getenv("DB_HOST", "localhost"),
		DBPort: getenv("DB_PORT", "3306"),
		DBUser: getenv("DB_USER", "root"),
		DBPass: getenv("DB_PASS", ""),
		DBName: getenv("DB_NAME", "nevermore"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getenv("REDIS_PASS", ""),

		JWTSecret: getenv("JWT_SECRET", "secret"),

		SMTPHost: getenv("SMTP_HOST", "localhost"),
		SMTPPort: getenv("SMTP_PORT", "1025"),
		SMTPUser: getenv("SMTP_USER", ""),
		SMTPPass: getenv("SMTP_PASS", ""),
		SMTPFrom: getenv("SMTP_FROM", "no-reply@nevermore.local"),

		APIURL:      getenv("API_URL", "http://localhost:8080"),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
		UploadDir:   getenv("UPLOAD_DIR", "uploads"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
