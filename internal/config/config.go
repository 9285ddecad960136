package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Outside production, unset secrets fall back to these fixed values
const (
	devSecret    = "dev-insecure-secret"
	devKeySecret = "dev-insecure-key-secret"
)

// Config represents the service configuration, read from the environment
type Config struct {
	Port            string `validate:"required,numeric"`
	GinMode         string `validate:"omitempty,oneof=debug release test"`
	Env             string `validate:"required,oneof=development production test"`
	DatabaseURL     string
	DataPath        string `validate:"required"`
	JWTSecret       string `validate:"required"`
	APIMasterSecret string `validate:"required_if=Env production"`
	AdminUsername   string `validate:"required"`
	AdminPassword   string `validate:"required_if=Env production"`
	AdminOrgID      string `validate:"required"`
	Timezone        string `validate:"required,timezone"`

	defaulted []string
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadDotEnv loads the first .env found in the working directory or its
// parents. Variables already set in the environment win.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env and the environment, applies defaults and validates
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		GinMode:         os.Getenv("GIN_MODE"),
		Env:             getEnv("APP_ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DataPath:        getEnv("DATA_PATH", "workforce.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AdminOrgID:      getEnv("ADMIN_ORG_ID", "default"),
		Timezone:        getEnv("TIMEZONE", "UTC"),
	}
	if cfg.Env != "production" {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devSecret
			cfg.defaulted = append(cfg.defaulted, "JWT_SECRET")
		}
		if cfg.APIMasterSecret == "" {
			cfg.APIMasterSecret = devKeySecret
			cfg.defaulted = append(cfg.defaulted, "API_MASTER_SECRET")
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Location resolves the configured timezone. The value is validated on load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DevSecrets names the secrets that fell back to publicly known development
// values. Tokens and keys signed with them can be forged by anyone.
func (c *Config) DevSecrets() []string {
	return c.defaulted
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
