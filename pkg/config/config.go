package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LASTBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Data          DataConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	Idempotency   IdempotencyConfig
	Classifier    ClassifierConfig
	Gemini        GeminiConfig
	OpenFoodFacts OpenFoodFactsConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Classifier.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LASTBITE_APP_ENV" default:"dev"`
	Port         string `envconfig:"LASTBITE_APP_PORT" default:"5001"`
	LogLevel     string `envconfig:"LASTBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LASTBITE_LOG_WARN_STACK" default:"false"`
	// AdminReload exposes the cache reload endpoint.
	AdminReload bool `envconfig:"LASTBITE_ADMIN_RELOAD" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DataConfig locates the flat tables backing the catalog, the links and the users.
type DataConfig struct {
	Dir          string `envconfig:"LASTBITE_DATA_DIR" default:"data"`
	ProductsFile string `envconfig:"LASTBITE_PRODUCTS_FILE" default:"products_table_v2.csv"`
	LinksFile    string `envconfig:"LASTBITE_LINKS_FILE" default:"user_product_link_table_v2.csv"`
	UsersFile    string `envconfig:"LASTBITE_USERS_FILE" default:"users_table_v2.csv"`
}

func (d DataConfig) ProductsPath() string { return d.path(d.ProductsFile) }

func (d DataConfig) LinksPath() string { return d.path(d.LinksFile) }

func (d DataConfig) UsersPath() string { return d.path(d.UsersFile) }

func (d DataConfig) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// RedisConfig is optional; an empty URL and address disables idempotency and rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"LASTBITE_REDIS_URL"`
	Address      string        `envconfig:"LASTBITE_REDIS_ADDR"`
	Password     string        `envconfig:"LASTBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"LASTBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LASTBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LASTBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LASTBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LASTBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LASTBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type RateLimitConfig struct {
	ClassifyWindow  time.Duration `envconfig:"LASTBITE_RATE_LIMIT_CLASSIFY_WINDOW" default:"1m"`
	ClassifyIPLimit int           `envconfig:"LASTBITE_RATE_LIMIT_CLASSIFY_IP_LIMIT" default:"30"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"LASTBITE_IDEMPOTENCY_TTL" default:"24h"`
}

// ClassifierConfig points at the local fruit model server.
type ClassifierConfig struct {
	ModelURL            string        `envconfig:"LASTBITE_CLASSIFIER_MODEL_URL" default:"http://localhost:8500"`
	Timeout             time.Duration `envconfig:"LASTBITE_CLASSIFIER_TIMEOUT" default:"10s"`
	ConfidenceThreshold float64       `envconfig:"LASTBITE_CLASSIFIER_CONFIDENCE_THRESHOLD" default:"0.6"`
	MaxUploadMB         int           `envconfig:"LASTBITE_CLASSIFIER_MAX_UPLOAD_MB" default:"10"`
}

func (c ClassifierConfig) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%s must be within [0,1], got %v", EnvClassifierThreshold, c.ConfidenceThreshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvClassifierTimeout)
	}
	return nil
}

// GeminiConfig configures the secondary vision gateway.
type GeminiConfig struct {
	Enabled bool          `envconfig:"LASTBITE_GEMINI_ENABLED" default:"false"`
	APIKey  string        `envconfig:"LASTBITE_GEMINI_API_KEY"`
	Model   string        `envconfig:"LASTBITE_GEMINI_MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `envconfig:"LASTBITE_GEMINI_TIMEOUT" default:"15s"`
}

type OpenFoodFactsConfig struct {
	BaseURL string        `envconfig:"LASTBITE_OFF_BASE_URL" default:"https://world.openfoodfacts.org"`
	Timeout time.Duration `envconfig:"LASTBITE_OFF_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LASTBITE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
