package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/toptunez/pkg/config"
	"github.com/Skotchmaster/toptunez/pkg/tokens"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	SearchDatabase      = "database"
	SearchElasticsearch = "elasticsearch"
)

type Config struct {
	Env  string
	Port int

	DatabaseURL string

	JWTSecret []byte
	JWTExpiry time.Duration

	LogLevel  string
	LogFormat string

	CORSOrigins []string

	KafkaBrokers   []string
	IndexerGroupID string

	SearchBackend string
	ESURL         string
	ESUser        string
	ESPassword    string
	ESIndex       string
}

func (c Config) Production() bool { return c.Env == EnvProduction }

func (c Config) Test() bool { return c.Env == EnvTest }

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv_load_failed", "error", err)
	}

	return Config{
		Env:  pkgconfig.EnvDefault("APP_ENV", EnvDevelopment),
		Port: pkgconfig.EnvIntDefault("PORT", 3000),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		JWTExpiry: pkgconfig.EnvDurationDefault("JWT_EXPIRY", tokens.DefaultTTL),

		LogLevel:  pkgconfig.EnvDefault("LOG_LEVEL", "info"),
		LogFormat: pkgconfig.EnvDefault("LOG_FORMAT", "json"),

		CORSOrigins: pkgconfig.CSV(os.Getenv("CORS_ORIGINS")),

		KafkaBrokers:   pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		IndexerGroupID: pkgconfig.EnvDefault("INDEXER_GROUP_ID", "toptunez-indexer"),

		SearchBackend: pkgconfig.EnvDefault("SEARCH_BACKEND", SearchDatabase),
		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		ESIndex:       pkgconfig.EnvDefault("ES_INDEX", "tunes"),
	}
}

// Validate reports the first required setting that is missing. The
// Elasticsearch backend is fed over Kafka, so it needs brokers too.
func (c Config) Validate() error {
	required := []struct{ value, env string }{
		{c.DatabaseURL, "DATABASE_URL"},
		{string(c.JWTSecret), "JWT_SECRET"},
	}
	if c.SearchBackend == SearchElasticsearch {
		required = append(required,
			struct{ value, env string }{c.ESURL, "ES_URL"},
			struct{ value, env string }{strings.Join(c.KafkaBrokers, ","), "KAFKA_BROKERS"},
		)
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required env %s", r.env)
		}
	}
	return nil
}

// MustValidate stops the process when a required setting is missing.
func (c Config) MustValidate() {
	if err := c.Validate(); err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
}
