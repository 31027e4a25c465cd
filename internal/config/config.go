package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	LogLevel    string

	JWTSecret            string
	JWTExpiresInSeconds  int64
	AuthReturnResetToken bool
	PasswordResetTTL     time.Duration

	MapboxToken     string
	MapboxBaseURL   string
	GeocodeTimeout  time.Duration
	GeocodeCacheTTL time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "venuemap")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", getEnv("PSQL_SSLMODE", "disable"))
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:            getEnv("JWT_SECRET", "dev-secret"),
		JWTExpiresInSeconds:  getEnvInt64("JWT_EXPIRES_IN_SECONDS", 86400),
		AuthReturnResetToken: getEnvBool("AUTH_RETURN_RESET_TOKEN", false),
		PasswordResetTTL:     getEnvDuration("PASSWORD_RESET_TTL", 30*time.Minute),

		MapboxToken:     os.Getenv("MAPBOX_API_KEY"),
		MapboxBaseURL:   getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		GeocodeTimeout:  getEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
		GeocodeCacheTTL: getEnvDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPUseTLS:   getEnvBool("SMTP_USE_TLS", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
