package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	StorageDriver         string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI              string        `mapstructure:"MONGO_URI"`
	MongoDatabase         string        `mapstructure:"MONGO_DATABASE"`
	RedisURL              string        `mapstructure:"REDIS_URL"`
	LockTTL               time.Duration `mapstructure:"LOCK_TTL"`
	GeofenceRadiusMeters  float64       `mapstructure:"GEOFENCE_RADIUS_METERS"`
	TestHospitalName      string        `mapstructure:"TEST_HOSPITAL_NAME"`
	TestHospitalDistance  float64       `mapstructure:"TEST_HOSPITAL_DISTANCE_METERS"`
	QueueTimezone         string        `mapstructure:"QUEUE_TIMEZONE"`
	MaxRecurringInstances int           `mapstructure:"MAX_RECURRING_INSTANCES"`
	AuthSigningKey        string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer            string        `mapstructure:"AUTH_ISSUER"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit             string        `mapstructure:"BODY_LIMIT"`
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORAGE_DRIVER",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MONGO_URI", "MONGO_DATABASE",
	"REDIS_URL", "LOCK_TTL",
	"GEOFENCE_RADIUS_METERS", "TEST_HOSPITAL_NAME", "TEST_HOSPITAL_DISTANCE_METERS",
	"QUEUE_TIMEZONE", "MAX_RECURRING_INSTANCES",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DATABASE", "hospital-management")
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("GEOFENCE_RADIUS_METERS", 100)
	v.SetDefault("TEST_HOSPITAL_NAME", "Test Hospital")
	v.SetDefault("TEST_HOSPITAL_DISTANCE_METERS", 50)
	v.SetDefault("QUEUE_TIMEZONE", "UTC")
	v.SetDefault("MAX_RECURRING_INSTANCES", 366)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: development auth is active; every request is treated as admin.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves QUEUE_TIMEZONE. Token sequences roll over at midnight in
// this zone.
func (c *Config) Location() (*time.Location, error) {
	if c.QueueTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.QueueTimezone)
	if err != nil {
		return nil, fmt.Errorf("QUEUE_TIMEZONE %q: %w", c.QueueTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is usable for the selected storage
// driver and environment.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is %q", StoragePostgres)
		}
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_DRIVER is %q", StorageMongo)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMongo, c.StorageDriver)
	}

	if c.GeofenceRadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive, got %v", c.GeofenceRadiusMeters)
	}
	if c.TestHospitalDistance < 0 || c.TestHospitalDistance > c.GeofenceRadiusMeters {
		return fmt.Errorf("TEST_HOSPITAL_DISTANCE_METERS must be within [0, %v], got %v",
			c.GeofenceRadiusMeters, c.TestHospitalDistance)
	}
	if c.MaxRecurringInstances <= 0 {
		return fmt.Errorf("MAX_RECURRING_INSTANCES must be positive, got %d", c.MaxRecurringInstances)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV is %q", c.Env)
	}

	return nil
}
