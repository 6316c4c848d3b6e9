package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Secrets are strings; durations and sizes
// that express business rules live in Policy (see policy.go) rather
// than here, so deployment knobs and policy constants stay separate.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	BaseURL      string // external base URL used when building confirmation links
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	DBMaxOpen    int    // connection pool ceiling
	DBMaxIdle    int    // idle connections kept warm
	DBConnTTLMin int    // connection recycle interval in minutes
	JWTSecret    string // secret used to sign admin session tokens
	LinkSecret   string // HMAC secret for confirmation/cancellation links, per stage
	AccessTTLMin int    // admin session token time-to-live in minutes
	TemplateDir  string // directory holding email templates
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		BaseURL:      must("APP_BASE_URL"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		DBMaxOpen:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnTTLMin: envInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		JWTSecret:    must("JWT_SECRET"),
		LinkSecret:   must("LINK_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		TemplateDir:  envStr("TEMPLATE_DIR", "templates"),
	}
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
