package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds everything the server needs at startup. It is built once by
// Load and handed to constructors; nothing else reads the environment.
type Config struct {
	Port     string `default:"5000"`
	GinMode  string `default:"debug"`
	LogLevel string `default:"info"`
	Store    string `default:"mongo"`

	Mongo   MongoConfig
	JWT     JWTConfig
	OpenAI  OpenAIConfig
	Weather WeatherConfig
	Maps    MapsConfig

	ExternalTimeout time.Duration `default:"20s"`

	// Empty means every origin is reflected back.
	CORSAllowedOrigins []string

	PlanRateLimit  int           `default:"30"`
	PlanRateWindow time.Duration `default:"1m"`

	CloudinaryURL string
}

type MongoConfig struct {
	URI             string        `default:"mongodb://127.0.0.1:27017"`
	Database        string        `default:"tripmind"`
	MaxRetries      int           `default:"5"`
	RetryDelay      time.Duration `default:"5s"`
	RetryMultiplier float64       `default:"1.5"`
	RetryMaxDelay   time.Duration `default:"1m"`
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration `default:"168h"`
}

type OpenAIConfig struct {
	APIKey  string
	Model   string `default:"gpt-3.5-turbo"`
	BaseURL string
}

type WeatherConfig struct {
	APIKey  string
	BaseURL string `default:"https://api.openweathermap.org/data/2.5"`
}

type MapsConfig struct {
	APIKey  string
	BaseURL string
}

// Load reads .env (when present), applies struct defaults and then
// environment overrides, and validates the result.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that only need a subset of
// the settings.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	e := &envReader{}
	e.str("PORT", &cfg.Port)
	e.str("GIN_MODE", &cfg.GinMode)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.str("STORE_BACKEND", &cfg.Store)

	e.str("MONGO_URI", &cfg.Mongo.URI)
	e.str("MONGO_DB", &cfg.Mongo.Database)
	e.integer("DB_MAX_RETRIES", &cfg.Mongo.MaxRetries)
	e.duration("DB_RETRY_DELAY", &cfg.Mongo.RetryDelay)
	e.float("DB_RETRY_MULTIPLIER", &cfg.Mongo.RetryMultiplier)
	e.duration("DB_RETRY_MAX_DELAY", &cfg.Mongo.RetryMaxDelay)

	e.str("JWT_SECRET", &cfg.JWT.Secret)
	e.duration("JWT_TTL", &cfg.JWT.TTL)

	e.str("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	e.str("OPENAI_MODEL", &cfg.OpenAI.Model)
	e.str("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	e.str("WEATHER_API_KEY", &cfg.Weather.APIKey)
	e.str("WEATHER_BASE_URL", &cfg.Weather.BaseURL)
	e.str("GOOGLE_MAPS_API_KEY", &cfg.Maps.APIKey)
	e.str("GOOGLE_MAPS_BASE_URL", &cfg.Maps.BaseURL)
	e.duration("EXTERNAL_TIMEOUT", &cfg.ExternalTimeout)

	e.list("CORS_ALLOWED_ORIGINS", &cfg.CORSAllowedOrigins)
	e.integer("PLAN_RATE_LIMIT", &cfg.PlanRateLimit)
	e.duration("PLAN_RATE_WINDOW", &cfg.PlanRateWindow)
	e.str("CLOUDINARY_URL", &cfg.CloudinaryURL)

	if e.err != nil {
		return nil, e.err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI must be set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store)
	}
	if c.Mongo.MaxRetries < 0 {
		return errors.New("DB_MAX_RETRIES must not be negative")
	}
	if c.Mongo.RetryMultiplier < 1 {
		return errors.New("DB_RETRY_MULTIPLIER must be at least 1")
	}
	if c.PlanRateLimit <= 0 {
		return errors.New("PLAN_RATE_LIMIT must be positive")
	}
	if c.PlanRateWindow <= 0 {
		return errors.New("PLAN_RATE_WINDOW must be positive")
	}
	return nil
}

// envReader keeps the first parse error so Load can report it once.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.lookup(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
