// Package db opens the gorm connection used for inspection history.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLiteDSN = "file:fabric_inspections.db?_busy_timeout=5000"
	retryInterval    = 3 * time.Second
	connectTimeout   = 60 * time.Second
)

// Config holds the database connection settings.
type Config struct {
	Driver        string
	DSN           string // explicit DSN; takes precedence over the individual fields
	User          string
	Password      string
	Name          string
	Host          string
	Port          string
	InstanceName  string // Cloud SQL instance connection name (postgres over unix socket)
	RunMigrations bool
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv reads the database settings from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:        os.Getenv("DB_DRIVER"),
		DSN:           os.Getenv("DB_DSN"),
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          os.Getenv("DB_NAME"),
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		InstanceName:  os.Getenv("INSTANCE_CONNECTION_NAME"),
		RunMigrations: true,
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if v, err := strconv.ParseBool(os.Getenv("RUN_MIGRATIONS")); err == nil {
		cfg.RunMigrations = v
	}
	return cfg
}

// BuildDSN returns the DSN for the configured driver.
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	switch cfg.Driver {
	case DriverPostgres:
		host := cfg.Host
		if cfg.InstanceName != "" {
			host = "/cloudsql/" + cfg.InstanceName
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			host, cfg.User, cfg.Password, cfg.Name)
		if cfg.InstanceName == "" && cfg.Port != "" {
			dsn += " port=" + cfg.Port
		}
		return dsn
	default:
		return defaultSQLiteDSN
	}
}

// OpenerFor returns the gorm opener for a driver name.
func OpenerFor(driver string) (Opener, error) {
	gcfg := &gorm.Config{}
	switch driver {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// connectTimeoutFor returns how long to keep retrying for a driver.
// A local sqlite file either opens on the first attempt or never does.
func connectTimeoutFor(driver string) time.Duration {
	if driver == DriverSQLite {
		return 0
	}
	return connectTimeout
}

// OpenDB connects with retry and migrates the given models when enabled.
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeoutFor(cfg.Driver), opener)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
