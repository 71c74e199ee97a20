package confs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds everything the API server reads from the environment.
type Config struct {
	Port     int    `env:"PORT,default=31356" description:"listening port"`
	LogLevel string `env:"LOG_LEVEL,default=info" description:"logrus level"`

	DBDriver   string `env:"DB_DRIVER,default=postgres" description:"postgres, sqlite or mongo"`
	DBURI      string `env:"DB_URI" description:"store connection string"`
	DBName     string `env:"DB_NAME,default=iot_dashboard" description:"database name"`
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`

	StrictReferences bool `env:"STRICT_REFERENCES,default=false" description:"check referenced users and sensors exist on write"`

	AuthSecret        string        `env:"AUTH_SECRET" description:"HMAC secret for bearer tokens, empty disables auth"`
	AuthTokenTTL      time.Duration `env:"AUTH_TOKEN_TTL,default=12h"`
	AdminUsername     string        `env:"ADMIN_USERNAME,default=admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH" description:"bcrypt hash of the admin password"`

	KafkaBrokers string `env:"KAFKA_BROKERS" description:"comma separated broker list"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=measures"`

	S3Bucket string `env:"S3_BUCKET"`
	S3Region string `env:"S3_REGION,default=eu-west-1"`
	S3Prefix string `env:"S3_PREFIX,default=exports/"`

	IngestFlushInterval time.Duration `env:"INGEST_FLUSH_INTERVAL,default=1m"`
	IngestThreshold     float64       `env:"INGEST_THRESHOLD,default=0" description:"minimum value change kept when flushing socket readings"`
}

// LoadConfig loads environment variables from a .env file if present,
// decodes them into a Config and validates the combination.
func LoadConfig() (Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("could not load .env: %v", err)
		}
	}
	return Decode()
}

// Decode reads the process environment without touching .env files.
func Decode() (Config, error) {
	var cfg Config
	err := envdecode.Decode(&cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var problems []string

	switch c.DBDriver {
	case DriverPostgres:
		if c.DBURI == "" && (c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "") {
			problems = append(problems, "postgres needs DB_URI or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	case DriverSQLite:
		if c.DBURI == "" {
			problems = append(problems, "sqlite needs DB_URI")
		}
	case DriverMongo:
		if c.DBURI == "" || c.DBName == "" {
			problems = append(problems, "mongo needs DB_URI and DB_NAME")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d", c.Port))
	}
	if c.AuthSecret != "" && c.AdminPasswordHash == "" {
		problems = append(problems, "AUTH_SECRET requires ADMIN_PASSWORD_HASH")
	}
	if c.IngestFlushInterval <= 0 {
		problems = append(problems, "INGEST_FLUSH_INTERVAL must be positive")
	}
	if c.IngestThreshold < 0 {
		problems = append(problems, "INGEST_THRESHOLD must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c Config) AuthEnabled() bool { return c.AuthSecret != "" }

// Brokers splits KAFKA_BROKERS into addresses.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf("0.0.0.0:%d", c.Port) }
