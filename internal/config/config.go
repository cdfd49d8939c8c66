package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/joho/godotenv"     // godotenv loads a local .env file into the environment
    "github.com/sirupsen/logrus"   // logrus reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and connection parameters are strings,
// numeric knobs are ints.
type Config struct {
    Env         string // application environment (e.g. "dev", "prod")
    Port        string // HTTP port to listen on
    DBUser      string // database username
    DBPass      string // database password (optional)
    DBHost      string // database host address
    DBPort      string // database port number
    DBName      string // database name
    DBMigrate   bool   // apply embedded migrations at startup
    JWTSecret   string // secret used to sign identity tokens
    TokenTTLMin int    // token time-to-live in minutes; 0 issues tokens without expiry
    BcryptCost  int    // bcrypt work factor for password hashing
    LogLevel    string // logrus level name
    LogFormat   string // "text" or "json"
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // a missing .env is fine; real environments set variables directly
    return Config{
        Env:         must("APP_ENV"),                     // environment (dev/test/prod)
        Port:        must("APP_PORT"),                    // port to bind the HTTP server
        DBUser:      must("DB_USER"),                     // database user
        DBPass:      os.Getenv("DB_PASS"),                // database password (empty allowed)
        DBHost:      must("DB_HOST"),                     // database host
        DBPort:      must("DB_PORT"),                     // database port
        DBName:      must("DB_NAME"),                     // database name
        DBMigrate:   envBool("DB_MIGRATE", true),         // run goose migrations on boot
        JWTSecret:   must("JWT_SECRET"),                  // secret used for signing tokens
        TokenTTLMin: envInt("TOKEN_TTL_MIN", 0),          // tokens never expire unless set
        BcryptCost:  mustInt("BCRYPT_COST"),              // bcrypt cost factor
        LogLevel:    envStr("LOG_LEVEL", "info"),         // logging verbosity
        LogFormat:   envStr("LOG_FORMAT", "text"),        // logging output format
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        logrus.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        logrus.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
