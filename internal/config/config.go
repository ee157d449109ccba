package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the duration-valued settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is built once at startup and injected
// into the token issuer and auth service; nothing reads configuration from
// ambient global state after Load returns.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	PublicBaseURL  string // externally reachable base URL, used in confirmation links
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs and account tokens
	JWTIssuer      string // iss claim stamped into access tokens
	JWTAudience    string // aud claim stamped into access tokens
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing

	PasswordMinLen  int           // minimum password length for the complexity gate
	OtpTTL          time.Duration // lifetime of a password-reset OTP
	ConfirmTokenTTL time.Duration // lifetime of an email-confirmation token
	ResetTokenTTL   time.Duration // lifetime of a password-reset token

	GoogleClientID     string // OAuth client id for Google sign-in (optional)
	GoogleClientSecret string // OAuth client secret for Google sign-in (optional)
	GoogleRedirectURL  string // callback URL registered with Google (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Policy and TTL
// settings fall back to sensible defaults when unset.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),      // environment (dev/test/prod)
		Port:           must("APP_PORT"),     // port to bind the HTTP server
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		DBUser:         must("DB_USER"),      // database user
		DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:         must("DB_HOST"),      // database host
		DBPort:         must("DB_PORT"),      // database port
		DBName:         must("DB_NAME"),      // database name
		JWTSecret:      must("JWT_SECRET"),   // secret used for signing JWTs
		JWTIssuer:      getenv("JWT_ISSUER", "bookhive-auth"),
		JWTAudience:    getenv("JWT_AUDIENCE", "bookhive"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor

		PasswordMinLen:  atoi(getenv("PASSWORD_MIN_LEN", "8")),
		OtpTTL:          parseDur(getenv("OTP_TTL", "5m")),
		ConfirmTokenTTL: parseDur(getenv("CONFIRM_TOKEN_TTL", "1h")),
		ResetTokenTTL:   parseDur(getenv("RESET_TOKEN_TTL", "15m")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
	}
}

// must retrieves the value of a required environment variable.  If the
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

// getenv returns the value of an optional variable or the given default.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
