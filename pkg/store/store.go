// Package store opens relational database handles for the database
// categories, e.g. the audit trail.
package store

import (
	"database/sql"
	"fmt"
	"time"

	// SQL drivers registered by import.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
)

// Config holds the decoded settings for a database category.
type Config struct {
	Provider        string        `yaml:"provider"`
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// New opens a *sql.DB for the category. The handle is lazy; no network
// round trip happens until the first query.
func New(category config.Category, settings config.Settings) (*sql.DB, error) {
	var cfg Config
	if err := settings.Decode(&cfg); err != nil {
		return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid database settings: %v", err))
	}

	var driver, dsn string

	switch cfg.Provider {
	case "postgres":
		driver = "postgres"
		dsn = cfg.DSN
		if dsn == "" {
			if cfg.Host == "" {
				return nil, config.MissingKeyError(category, "host")
			}
			sslMode := cfg.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			port := cfg.Port
			if port == 0 {
				port = 5432
			}
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, port, cfg.User, cfg.Password, cfg.Database, sslMode)
		}

	case "mysql":
		driver = "mysql"
		dsn = cfg.DSN
		if dsn == "" {
			if cfg.Host == "" {
				return nil, config.MissingKeyError(category, "host")
			}
			port := cfg.Port
			if port == 0 {
				port = 3306
			}
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
				cfg.User, cfg.Password, cfg.Host, port, cfg.Database)
		}

	case "sqlite":
		driver = "sqlite3"
		dsn = cfg.Path
		if dsn == "" {
			dsn = cfg.DSN
		}
		if dsn == "" {
			return nil, config.MissingKeyError(category, "path")
		}

	default:
		return nil, &backend.UnsupportedProviderError{Kind: config.KindDatabase, Provider: cfg.Provider}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Provider, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}
