package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs sessions when JWT_SECRET is unset. Fine for local
// development only.
const DefaultJWTSecret = "jewel-palace-dev-secret"

// ErrDefaultSecret is returned by Validate for a production config that
// still signs with DefaultJWTSecret
var ErrDefaultSecret = errors.New("JWT_SECRET must be set when LOG_MODE=production")

// Config holds application configuration from environment variables
type Config struct {
	// Application
	AppPort     string
	RoutePrefix string
	SeedOnStart bool

	// Record store
	StoreBackend  string // memory, file, bolt, mysql, postgres, mongo
	DataDir       string
	BoltPath      string
	DatabaseURL   string // Postgres DSN
	MongoURI      string
	MongoDatabase string

	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Identity
	JWTSecret    string
	SessionTTL   time.Duration
	AdminByEmail bool
	LaxLogin     bool
	BcryptCost   int

	// Logging
	LogMode string
	LogFile string

	// OpenTelemetry
	MetricsEnabled            bool
	InventoryMetricsSchedule  string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPProtocol  string
	OTELExporterOTLPHeaders   string // For SigNoz Cloud: signoz-ingestion-key=<key>
	OTELExporterOTLPInsecure  bool   // true for http://, false for https://
	OTELServiceName           string
	OTELServiceVersion        string
	OTELDeploymentEnvironment string
	OTELResourceAttributes    string
}

// LoadConfig loads configuration from .env file and environment variables with defaults
func LoadConfig() *Config {
	// .env is optional; only report errors other than a missing file
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		RoutePrefix: strings.TrimRight(getEnvAllowEmpty("ROUTE_PREFIX", "/make-server-ff9d2bf9"), "/"),
		SeedOnStart: getEnvBool("SEED_ON_START", true),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", "file")),
		DataDir:       dataDir,
		BoltPath:      getEnv("BOLT_PATH", dataDir+"/storefront.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "jewelpalace"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "jewelpalace"),

		JWTSecret:    getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:   getEnvDuration("SESSION_TTL", time.Hour),
		AdminByEmail: getEnvBool("ADMIN_BY_EMAIL", true),
		LaxLogin:     getEnvBool("AUTH_LAX_LOGIN", false),
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),

		LogMode: getEnv("LOG_MODE", "development"),
		LogFile: getEnv("LOG_FILE", ""),

		MetricsEnabled:            getEnvBool("METRICS_ENABLED", true),
		InventoryMetricsSchedule:  getEnv("INVENTORY_METRICS_SCHEDULE", "@every 30s"),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPProtocol:  getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "jewel-palace-storefront"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
		OTELResourceAttributes:    getEnv("OTEL_RESOURCE_ATTRIBUTES", ""),
	}
}

// UsesDefaultSecret reports whether sessions are signed with DefaultJWTSecret
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// Validate rejects settings that are unsafe to run with
func (c *Config) Validate() error {
	if c.LogMode == "production" && c.UsesDefaultSecret() {
		return ErrDefaultSecret
	}
	return nil
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// GetPostgresDSN returns DATABASE_URL, or a DSN assembled from the DB_* keys
func (c *Config) GetPostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	port := c.DBPort
	if port == "3306" {
		port = "5432"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + port + "/" + c.DBName + "?sslmode=disable"
}

// GetAppPortInt returns the application port as an integer
func (c *Config) GetAppPortInt() int {
	port, err := strconv.Atoi(c.AppPort)
	if err != nil {
		return 8080
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset key from one explicitly set to ""
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
