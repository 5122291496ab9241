// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Storage backend selectors. The CRUD surface is identical across all
// three; the value only decides which store implementations main wires up.
const (
	StorageMemory     = "memory"      // everything in process memory
	StorageMySQL      = "mysql"       // users and messages in MySQL
	StorageMySQLMongo = "mysql+mongo" // users in MySQL, messages in MongoDB
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StorageBackend string // memory | mysql | mysql+mongo
	DBUser         string // MySQL username
	DBPass         string // MySQL password (optional)
	DBHost         string // MySQL host address
	DBPort         string // MySQL port number
	DBName         string // MySQL database name
	MongoURI       string // MongoDB connection string
	MongoDB        string // MongoDB database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	AdminUsername  string // the single privileged identity
	AdminPassword  string // bootstrap password for the seeded admin account
	VerifySubject  bool   // token verification re-checks subject existence
}

// Load reads configuration values from environment variables. Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message. The MySQL and MongoDB settings are only
// required when the selected storage backend uses them.
func Load() Config {
	cfg := Config{
		Env:            getenvDefault("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		StorageBackend: getenvDefault("STORAGE_BACKEND", StorageMySQL),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   intDefault("ACCESS_TOKEN_TTL_MIN", 30),
		BcryptCost:     intDefault("BCRYPT_COST", 10),
		AdminUsername:  getenvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:  must("ADMIN_PASSWORD"),
		VerifySubject:  boolDefault("VERIFY_SUBJECT", true),
	}
	switch cfg.StorageBackend {
	case StorageMemory:
	case StorageMySQL:
		cfg.loadMySQL()
	case StorageMySQLMongo:
		cfg.loadMySQL()
		cfg.MongoURI = must("MONGO_URI")
		cfg.MongoDB = getenvDefault("MONGO_DB", "social_db")
	default:
		log.Fatalf("unknown STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	return cfg
}

func (c *Config) loadMySQL() {
	c.DBUser = must("DB_USER")
	c.DBPass = os.Getenv("DB_PASS")
	c.DBHost = must("DB_HOST")
	c.DBPort = must("DB_PORT")
	c.DBName = must("DB_NAME")
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

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func boolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool for %s: %q", key, v)
	}
	return b
}
