// Package connect opens database connections described by configuration
// files and wraps them for executing sqlgen statements.
//
// The MySQL, PostgreSQL (pgx) and SQLite (modernc.org/sqlite) drivers are
// registered by this package. SQL Server and Oracle drivers must be
// imported by the application, and their name set in Config.Driver.
package connect

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ido50/sqlgen"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Config describes a database connection.
type Config struct {
	// Type is the database type, e.g. "mysql" or "postgres"
	Type sqlgen.DatabaseType `yaml:"type"`

	// Driver is the database/sql driver name. Defaults to DefaultDriver(Type)
	Driver string `yaml:"driver,omitempty"`

	// DSN is the driver specific data source name
	DSN string `yaml:"dsn"`

	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// DefaultDriver returns the driver name used for a database type when the
// configuration does not name one.
func DefaultDriver(t sqlgen.DatabaseType) string {
	switch t {
	case sqlgen.DatabaseMySQL:
		return "mysql"
	case sqlgen.DatabasePostgreSQL:
		return "pgx"
	case sqlgen.DatabaseSQLite:
		return "sqlite"
	case sqlgen.DatabaseSQLServer:
		return "sqlserver"
	case sqlgen.DatabaseOracle:
		return "godror"
	default:
		return ""
	}
}

// LoadConfig reads a YAML connection configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML connection configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration names a known database type and
// a data source.
func (cfg Config) Validate() error {
	if cfg.Type.Dialect() == nil {
		return fmt.Errorf("invalid database type %s", cfg.Type)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("missing dsn for %s", cfg.Type)
	}
	return nil
}

// Open connects to the configured database, verifies the connection and
// returns it wrapped for the configured dialect.
func Open(ctx context.Context, cfg Config, opts ...sqlgen.Option) (*sqlgen.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DefaultDriver(cfg.Type)
	}

	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", cfg.Type, err)
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

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed connecting to %s database: %w", cfg.Type, err)
	}

	return sqlgen.Newx(db, cfg.Type.Dialect(), opts...), nil
}
