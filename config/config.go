package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sheets   SheetsConfig
	Pix      PixConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SheetsConfig holds the spreadsheet webhook collaborator settings. The
// endpoint is injected here rather than baked into the source.
type SheetsConfig struct {
	EndpointURL string
	TimeoutSec  int
}

// PixConfig holds the merchant identity encoded into PIX payloads.
type PixConfig struct {
	Key          string
	MerchantName string
	MerchantCity string
}

// SessionConfig holds form-session lifetime settings.
type SessionConfig struct {
	TTLMinutes int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "festa"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Sheets: SheetsConfig{
			EndpointURL: getEnv("SHEETS_WEBHOOK_URL", ""),
			TimeoutSec:  getEnvInt("SHEETS_TIMEOUT_SEC", 15),
		},
		Pix: PixConfig{
			Key:          getEnv("PIX_KEY", ""),
			MerchantName: pixField(getEnv("PIX_MERCHANT_NAME", "IBGP"), 25),
			MerchantCity: pixField(getEnv("PIX_MERCHANT_CITY", "GOIANIA"), 15),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 120),
		},
	}
	if cfg.Sheets.EndpointURL == "" {
		return nil, fmt.Errorf("SHEETS_WEBHOOK_URL is required")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pixTransliterate maps the accented characters common in Brazilian merchant
// names and cities to their ASCII forms.
var pixTransliterate = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "É", "E", "Ê", "E", "Í", "I",
	"Ó", "O", "Ô", "O", "Õ", "O", "Ú", "U", "Ü", "U", "Ç", "C",
	"á", "a", "à", "a", "â", "a", "ã", "a", "é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o", "ú", "u", "ü", "u", "ç", "c",
)

// pixField normalizes a PIX merchant field to the single-byte printable ASCII
// subset BR Code readers expect, truncated to the EMV limit for the field.
// This keeps the payload's byte-counted TLV lengths equal to what a reader
// counting characters sees.
func pixField(s string, max int) string {
	s = pixTransliterate.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7F {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > max {
		out = out[:max]
	}
	return out
}
