package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type BackendConfig struct {
	BaseURL        string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-required:"true"`
	AuthToken      string        `yaml:"auth_token" env:"BACKEND_AUTH_TOKEN"`
	Locale         string        `yaml:"locale" env:"BACKEND_LOCALE" env-default:"en"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"BACKEND_REQUEST_TIMEOUT" env-default:"30s"`
}

type CatalogConfig struct {
	PageSize      int `yaml:"page_size" env:"CATALOG_PAGE_SIZE" env-default:"10"`
	CarouselLimit int `yaml:"carousel_limit" env:"CATALOG_CAROUSEL_LIMIT" env-default:"5"`
}

type CartConfig struct {
	FulfillmentMethod string `yaml:"fulfillment_method" env:"CART_FULFILLMENT_METHOD" env-default:"pickup"`
}

type TrackingConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"TRACKING_POLL_INTERVAL" env-default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled" env:"NATS_ENABLED" env-default:"false"`
	URL     string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" env-default:"2006-01-02T15:04:05.000Z07:00"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Backend  BackendConfig  `yaml:"backend"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Cart     CartConfig     `yaml:"cart"`
	Tracking TrackingConfig `yaml:"tracking"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Logger   LoggerConfig   `yaml:"logger"`
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base URL must not be empty")
	}
	if c.Backend.Locale == "" {
		return errors.New("backend locale must not be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, cfg.Validate()
	}

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		if _, ok := err.(*os.PathError); ok {
			log.Printf("Warning: Config file not found at %s, attempting to load from environment variables only.", path)
			if errEnv := cleanenv.ReadEnv(&cfg); errEnv != nil {
				return nil, errEnv
			}
			return &cfg, cfg.Validate()
		}
		return nil, err
	}
	return &cfg, cfg.Validate()
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH_STOREFRONT")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}
