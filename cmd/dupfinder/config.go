package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/objectstore"
	"github.com/weberc2/dupfinder/pkg/pgutil"
	"github.com/weberc2/dupfinder/pkg/report"
	"github.com/weberc2/dupfinder/pkg/types"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "DUPFINDER"
	appName      = "dupfinder"
)

const (
	storeNone     = "none"
	storeDir      = "dir"
	storeS3       = "s3"
	storePostgres = "postgres"
)

type Config struct {
	Workers          int      `envconfig:"DUPFINDER_WORKERS"             yaml:"workers"`
	Algorithm        string   `envconfig:"DUPFINDER_ALGORITHM"           yaml:"algorithm"`
	BufferSize       int      `envconfig:"DUPFINDER_BUFFER_SIZE"         yaml:"bufferSize"`
	AbortOnReadError bool     `envconfig:"DUPFINDER_ABORT_ON_READ_ERROR" yaml:"abortOnReadError"`
	Ignore           []string `envconfig:"DUPFINDER_IGNORE"              yaml:"ignore"`
	Store            string   `envconfig:"DUPFINDER_STORE"               yaml:"store"`
	Dir              string   `envconfig:"DUPFINDER_DIR"                 yaml:"dir"`
	Bucket           string   `envconfig:"DUPFINDER_BUCKET"              yaml:"bucket"`
	Prefix           string   `envconfig:"DUPFINDER_PREFIX"              yaml:"prefix"`
	Gzip             bool     `envconfig:"DUPFINDER_GZIP"                yaml:"gzip"`
	Format           string   `envconfig:"DUPFINDER_FORMAT"              yaml:"format"`
	LogLevel         string   `envconfig:"DUPFINDER_LOG_LEVEL"           yaml:"logLevel"`
	ProgressInterval int      `envconfig:"DUPFINDER_PROGRESS_INTERVAL"   yaml:"progressInterval"`
}

// DefaultConfig is the configuration before the config file, environment
// and flags are applied. Defaults live here rather than in `default` tags so
// that envconfig doesn't clobber values from the config file.
func DefaultConfig() Config {
	return Config{
		Workers:    runtime.NumCPU(),
		Algorithm:  string(fingerprint.DefaultAlgorithm),
		BufferSize: fingerprint.DefaultBufferSize,
		Ignore:     []string{".git"},
		Store:      storeNone,
		Bucket:     appName,
		Format:     string(report.FormatJSON),
		LogLevel:   logrus.InfoLevel.String(),

		ProgressInterval: dupes.DefaultProgressInterval,
	}
}

func configFile() string {
	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		return configFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

func LoadConfig() (*Config, error) {
	c := DefaultConfig()
	if path := configFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e, reason := func() (string, string, string) {
		if c.Workers < 1 {
			return "workers", "WORKERS", "must be at least 1"
		}
		if c.BufferSize < 1 {
			return "bufferSize", "BUFFER_SIZE", "must be at least 1"
		}
		if c.BufferSize > fingerprint.MaxBufferSize {
			return "bufferSize", "BUFFER_SIZE", fmt.Sprintf(
				"must be at most %d",
				fingerprint.MaxBufferSize,
			)
		}
		if c.ProgressInterval < 1 {
			return "progressInterval", "PROGRESS_INTERVAL", "must be at least 1"
		}
		switch c.Store {
		case storeNone, storePostgres:
		case storeDir:
			if c.Dir == "" {
				return "dir", "DIR", "required for the `dir` store"
			}
			if c.Bucket == "" {
				return "bucket", "BUCKET", "required for the `dir` store"
			}
		case storeS3:
			if c.Bucket == "" {
				return "bucket", "BUCKET", "required for the `s3` store"
			}
		default:
			return "store", "STORE", fmt.Sprintf(
				"must be one of %s; found `%s`",
				strings.Join(
					[]string{storeNone, storeDir, storeS3, storePostgres},
					", ",
				),
				c.Store,
			)
		}
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return "logLevel", "LOG_LEVEL", err.Error()
		}
		return "", "", ""
	}(); y != "" {
		return &types.ConfigError{
			Field:  y,
			Reason: fmt.Sprintf("%s (%s_%s)", reason, envVarPrefix, e),
		}
	}

	if _, err := fingerprint.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

func (c *Config) Fingerprinter() (fingerprint.Fingerprinter, error) {
	algorithm, err := fingerprint.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return fingerprint.Fingerprinter{}, err
	}
	return fingerprint.Fingerprinter{
		Algorithm:  algorithm,
		BufferSize: c.BufferSize,
	}, nil
}

func (c *Config) Policy() dupes.ErrorPolicy {
	if c.AbortOnReadError {
		return dupes.AbortOnReadError
	}
	return dupes.ContinueOnReadError
}

func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, &types.ConfigError{Field: "logLevel", Reason: err.Error()}
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
	return log, nil
}

func (c *Config) objectStore() (types.ObjectStore, error) {
	var store types.ObjectStore
	switch c.Store {
	case storeDir:
		store = &objectstore.DirObjectStore{Root: c.Dir}
	case storeS3:
		s3, err := objectstore.NewS3ObjectStore()
		if err != nil {
			return nil, err
		}
		store = s3
	default:
		return nil, fmt.Errorf("store `%s` isn't an object store", c.Store)
	}
	if c.Gzip {
		store = &objectstore.GzipObjectStore{ObjectStore: store}
	}
	return store, nil
}

// ReportStore opens the configured report store. It returns a nil store for
// the `none` store.
func (c *Config) ReportStore() (report.Store, error) {
	switch c.Store {
	case storeNone:
		return nil, nil
	case storePostgres:
		db, err := pgutil.OpenEnv()
		if err != nil {
			return nil, err
		}
		store := &report.PGReportStore{DB: db}
		if err := store.EnsureTables(); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		format, err := report.ParseFormat(c.Format)
		if err != nil {
			return nil, err
		}
		objects, err := c.objectStore()
		if err != nil {
			return nil, err
		}
		return &report.ObjectReportStore{
			ObjectStore: objects,
			Bucket:      c.Bucket,
			Prefix:      c.Prefix,
			Format:      format,
		}, nil
	}
}

// StoreName describes the report store for humans.
func (c *Config) StoreName() string {
	switch c.Store {
	case storeDir:
		return filepath.Join(c.Dir, c.Bucket, c.Prefix)
	case storeS3:
		return fmt.Sprintf("s3://%s/%s", c.Bucket, c.Prefix)
	default:
		return c.Store
	}
}
