package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// Config is the on-disk YAML configuration layered under CLI flags, the
// same way an operator overrides a checked-in config with flags at the
// command line.
type Config struct {
	UploadsDir                string `yaml:"uploads_dir"`
	DatabasePath              string `yaml:"database_path"`
	CheckpointPath            string `yaml:"checkpoint_path"`
	ImportAttachmentSizeLimit int64  `yaml:"import_attachment_size_limit"`
	AuthorMappingStrategy     string `yaml:"author_mapping_strategy"`
	CurrentUserID             string `yaml:"current_user_id"`
	LogLevel                  string `yaml:"log_level"`
	LogFormat                 string `yaml:"log_format"`
}

// DefaultConfig mirrors the defaults a fresh install ships with.
func DefaultConfig() *Config {
	return &Config{
		UploadsDir:                "./uploads",
		DatabasePath:              "./wxrimport.db",
		CheckpointPath:            "./wxrimport.checkpoint",
		ImportAttachmentSizeLimit: 0,
		AuthorMappingStrategy:     "create",
		LogLevel:                  "info",
		LogFormat:                 "text",
	}
}

// LoadConfig reads a YAML config file if present, falling back to defaults
// when path is empty or doesn't exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds CLI flags that override the YAML config's values.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.UploadsDir, "uploads-dir", c.UploadsDir, "directory attachments are fetched into")
	fs.StringVar(&c.DatabasePath, "database", c.DatabasePath, "path to the SQLite database")
	fs.StringVar(&c.CheckpointPath, "checkpoint", c.CheckpointPath, "path to the resumable import checkpoint")
	fs.Int64Var(&c.ImportAttachmentSizeLimit, "attachment-size-limit", c.ImportAttachmentSizeLimit, "max attachment bytes, 0 for unlimited")
	fs.StringVar(&c.AuthorMappingStrategy, "author-mapping", c.AuthorMappingStrategy, "how to map wp:author records onto local users (create, match-existing, current-user)")
	fs.StringVar(&c.CurrentUserID, "current-user-id", c.CurrentUserID, "local user ID to fall back to when an author can't be resolved")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "error, warn, info, or debug")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
}
