// Package config loads the brewery YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/koustreak/brewery/internal/backup"
	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore"
	"github.com/koustreak/brewery/internal/logger"
	"github.com/koustreak/brewery/internal/server"
	"go.yaml.in/yaml/v3"
)

// Config is the root of the configuration file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Backup   BackupConfig   `yaml:"backup"`
}

// DatabaseConfig configures the connection and the sink.
type DatabaseConfig struct {
	Path              string        `yaml:"path"`
	ReadOnly          bool          `yaml:"read_only"`
	StatementCapacity int           `yaml:"statement_capacity"`
	BusyTimeout       time.Duration `yaml:"busy_timeout"`
	ForeignKeys       bool          `yaml:"foreign_keys"`
	ColumnWidth       int           `yaml:"column_width"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
}

// ServerConfig configures the HTTP inspection server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRows         int           `yaml:"max_rows"`
}

// BackupConfig configures snapshot uploads. An empty Endpoint disables backups.
type BackupConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`

	// Keep bounds how many snapshots are retained after each backup.
	// Zero keeps all of them.
	Keep    int           `yaml:"keep"`
	LinkTTL time.Duration `yaml:"link_ttl"`
}

// Enabled reports whether a backup target is configured.
func (b BackupConfig) Enabled() bool {
	return b.Endpoint != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:              "brewery.sqlite",
			StatementCapacity: database.DefaultStatementCapacity,
			BusyTimeout:       5 * time.Second,
			ColumnWidth:       database.DefaultColumnWidth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRows:         1000,
		},
		Backup: BackupConfig{
			Bucket:  "brewery",
			Prefix:  "snapshots/",
			LinkTTL: 15 * time.Minute,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("config file %q", path), err)
		}
		return nil, errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("open config %q", path), err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode config", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}
	if c.Database.StatementCapacity < 0 {
		problems = append(problems, "database.statement_capacity must not be negative")
	}
	if c.Database.BusyTimeout < 0 {
		problems = append(problems, "database.busy_timeout must not be negative")
	}
	if c.Database.ColumnWidth < 1 {
		problems = append(problems, "database.column_width must be at least 1")
	}
	if !logger.ValidLevel(c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		problems = append(problems, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Server.MaxRows < 0 {
		problems = append(problems, "server.max_rows must not be negative")
	}
	if c.Backup.Enabled() && c.Backup.Bucket == "" {
		problems = append(problems, "backup.bucket is required when backup.endpoint is set")
	}
	if c.Backup.Keep < 0 {
		problems = append(problems, "backup.keep must not be negative")
	}

	if len(problems) > 0 {
		return errs.New(errs.ErrKindInvalidInput, "invalid config: "+strings.Join(problems, "; "))
	}
	return nil
}

// DatabaseConfig returns the connection settings.
func (c *Config) DatabaseConfig() *database.Config {
	cfg := database.DefaultConfig(c.Database.Path)
	cfg.ReadOnly = c.Database.ReadOnly
	cfg.StatementCapacity = c.Database.StatementCapacity
	cfg.BusyTimeout = c.Database.BusyTimeout
	cfg.ForeignKeys = c.Database.ForeignKeys
	return cfg
}

// LoggerConfig returns the logger settings writing to out.
func (c *Config) LoggerConfig(out io.Writer) *logger.Config {
	return &logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     out,
	}
}

// ServerConfig returns the HTTP listener settings.
func (c *Config) ServerConfig() *server.Config {
	return &server.Config{
		Addr:            c.Server.Addr,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		MaxRows:         c.Server.MaxRows,
	}
}

// FilestoreConfig returns the object store connection settings.
func (c *Config) FilestoreConfig() *filestore.Config {
	cfg := filestore.DefaultConfig(c.Backup.Endpoint, c.Backup.AccessKey, c.Backup.SecretKey)
	cfg.UseSSL = c.Backup.UseSSL
	cfg.Region = c.Backup.Region
	return cfg
}

// BackupConfig returns the snapshot placement settings.
func (c *Config) BackupConfig() *backup.Config {
	cfg := backup.DefaultConfig(c.Backup.Bucket)
	cfg.Prefix = c.Backup.Prefix
	cfg.Keep = c.Backup.Keep
	cfg.LinkTTL = c.Backup.LinkTTL
	return cfg
}
