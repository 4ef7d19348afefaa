package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultGeminiModels é a sequência de fallback de modelos do Gemini
var DefaultGeminiModels = []string{
	"gemini-3-pro-preview",
	"gemini-3-flash-preview",
	"gemini-flash-lite-latest",
}

// Config armazena as configurações da aplicação
type Config struct {
	TokenAPI string
	Port     string
	GinMode  string
	LogLevel string
	LogJSON  bool

	GeminiAPIKey string
	GeminiModels []string
	GeminiRPM    int

	CatalogPath string
	CacheTTL    time.Duration

	DB DBConfig
}

// DBConfig são os parâmetros opcionais do PostgreSQL; sem DB_HOST o histórico fica em memória
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled indica se o banco foi configurado
func (d DBConfig) Enabled() bool {
	return d.Host != ""
}

// ErrMissingToken indica que um token obrigatório não foi configurado
var ErrMissingToken = errors.New("token obrigatório não configurado")

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := &Config{
		TokenAPI:     os.Getenv("TOKEN_API"),
		Port:         os.Getenv("PORT"),
		GinMode:      os.Getenv("GIN_MODE"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogJSON:      parseBool(os.Getenv("LOG_JSON")),
		GeminiAPIKey: firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		GeminiModels: splitList(os.Getenv("GEMINI_MODELS")),
		GeminiRPM:    parseInt(os.Getenv("GEMINI_RPM"), 0),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		CacheTTL:     parseDuration(os.Getenv("CACHE_TTL"), 0),
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
		},
	}

	// Validações obrigatórias
	if cfg.TokenAPI == "" {
		return nil, errors.Join(ErrMissingToken, errors.New("TOKEN_API não configurado"))
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "debug"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.GeminiModels) == 0 {
		c.GeminiModels = append([]string(nil), DefaultGeminiModels...)
	}
	if c.GeminiRPM <= 0 {
		c.GeminiRPM = 10
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 30 * time.Minute
	}
	if c.DB.Port == "" {
		c.DB.Port = "5432"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return d
}
