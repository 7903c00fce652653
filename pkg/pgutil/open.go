package pgutil

import (
	"database/sql"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
)

// Config holds postgres connection settings, read from `PG_*` env vars.
type Config struct {
	Host     string `envconfig:"PG_HOST"      default:"localhost" yaml:"host"`
	Port     string `envconfig:"PG_PORT"      default:"5432"      yaml:"port"`
	User     string `envconfig:"PG_USER"      default:"postgres"  yaml:"user"`
	Password string `envconfig:"PG_PASS"                          yaml:"password"`
	DBName   string `envconfig:"PG_DB_NAME"   default:"postgres"  yaml:"dbName"`
	SSLMode  string `envconfig:"PG_SSL_MODE"  default:"disable"   yaml:"sslMode"`
}

// ConfigFromEnv reads the `PG_*` env vars, applying defaults.
func ConfigFromEnv() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("parsing postgres environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

func Open(c *Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}
	return db, nil
}

func OpenEnv() (*sql.DB, error) {
	c, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return Open(c)
}

func OpenEnvPing() (*sql.DB, error) {
	db, err := OpenEnv()
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return db, nil
}
