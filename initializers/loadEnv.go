package initializers

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	AllowedOrigins []string

	StorageDriver string
	DBDriver      string
	DBDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogURL    string
	CatalogKey    string
	CatalogSecret string
	BackendURL    string

	PayPalURL      string
	PayPalClientID string
	PayPalSecret   string
	PayPalCurrency string

	AWSBucket string

	FromEmail         string
	FromEmailPassword string
	FromEmailSMTP     string
	SMTPAddress       string

	SearchDebounce time.Duration
	HTTPTimeout    time.Duration
	ClientIdleTTL  time.Duration
}

// LoadEnv reads .env when present. A missing file only warns; the process
// environment still applies.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: could not load .env file, using process environment")
	}
}

func LoadConfig() *Config {
	LoadEnv()

	return &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "debug"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),

		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", "memory"),
		DBDriver:      getEnvOrDefault("DB_DRIVER", "mysql"),
		DBDSN:         os.Getenv("DB_DSN"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CatalogURL:    getEnvOrDefault("CATALOG_URL", "https://texasstore-108ac1a.ingress-haven.ewp.live/wp-json/wc/v3"),
		CatalogKey:    os.Getenv("CATALOG_KEY"),
		CatalogSecret: os.Getenv("CATALOG_SECRET"),
		BackendURL:    getEnvOrDefault("BACKEND_URL", "https://aaa-eight-beta.vercel.app/api/v1"),

		PayPalURL:      getEnvOrDefault("PAYPAL_URL", "https://api-m.sandbox.paypal.com"),
		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_SECRET"),
		PayPalCurrency: getEnvOrDefault("PAYPAL_CURRENCY", "USD"),

		AWSBucket: os.Getenv("AWS_BUCKET"),

		FromEmail:         os.Getenv("FROM_EMAIL"),
		FromEmailPassword: os.Getenv("FROM_EMAIL_PASSWORD"),
		FromEmailSMTP:     os.Getenv("FROM_EMAIL_SMTP"),
		SMTPAddress:       os.Getenv("SMTP_ADDRESS"),

		SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		ClientIdleTTL:  time.Duration(getEnvInt("CLIENT_IDLE_MINUTES", 30)) * time.Minute,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
