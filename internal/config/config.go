package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Archive  ArchiveConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTLMin  int
	RefreshTokenTTLHrs int
	OTPTTLMin          int
}

type SMTPConfig struct {
	Host        string
	Port        int
	Email       string
	Password    string
	SenderEmail string
}

type AIConfig struct {
	Provider     string // "gemini" or "ollama"
	Model        string
	GeminiAPIKey string
	OllamaURL    string
}

type ArchiveConfig struct {
	Dir          string
	ArchiveTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			AccessTokenTTLMin:  getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLHrs: getEnvAsInt("REFRESH_TOKEN_TTL_HOURS", 24*7),
			OTPTTLMin:          getEnvAsInt("OTP_TTL_MINUTES", 10),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Email:       getEnv("SMTP_EMAIL", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			SenderEmail: getEnv("SMTP_SENDER_EMAIL", "no-reply@clinicalscribe.app"),
		},
		Ai: AIConfig{
			Provider:     getEnv("AI_PROVIDER", "gemini"),
			Model:        getEnv("AI_MODEL", "gemini-2.0-flash"),
			GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Archive: ArchiveConfig{
			Dir:          getEnv("ARCHIVE_DIR", "./archive"),
			ArchiveTopic: getEnv("REPORT_ARCHIVE_TOPIC_NAME", "REPORT_ARCHIVE"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
