package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv" // loads .env files into the process environment
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	JWTAccessSecret  string        // signs access tokens
	JWTRefreshSecret string        // signs refresh tokens; must differ from the access secret
	AccessTTL        time.Duration // access token lifetime
	RefreshTTL       time.Duration // refresh token lifetime
	BcryptCost       int           // bcrypt cost for password hashing
	CORSOrigin       string        // allowed browser origin
	LogLevel         string        // debug, info, warn, error
	LogFormat        string        // text or json
	RabbitURL        string        // AMQP broker; empty disables events
	ActivityLogDir   string        // where the activity consumer writes
	RefreshPurgeSpec string        // cron spec for purging expired refresh tokens

	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// Load reads .env (when present) and then the environment. Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env is fine; real env vars win
	return Config{
		Env:              envStr("APP_ENV", "dev"),
		Port:             envStr("APP_PORT", "8080"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           envStr("DB_PORT", "3306"),
		DBName:           must("DB_NAME"),
		JWTAccessSecret:  must("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: must("JWT_REFRESH_SECRET"),
		AccessTTL:        envDur("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:       envDur("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:       envInt("BCRYPT_COST", 12),
		CORSOrigin:       envStr("CORS_ORIGIN", "http://localhost:5173"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogFormat:        envStr("LOG_FORMAT", "text"),
		RabbitURL:        os.Getenv("RABBITMQ_URL"),
		ActivityLogDir:   envStr("ACTIVITY_LOG_DIR", "logs"),
		RefreshPurgeSpec: envStr("REFRESH_PURGE_SPEC", "@every 1h"),
		RateLimit:        LoadRateLimitConfig(),
		Cache:            LoadCacheConfig(),
	}
}

// DSNParts returns the database connection fields in database.Open order.
func (c Config) DSNParts() (user, pass, host, port, name string) {
	return c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
