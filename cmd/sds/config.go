package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/sds/internal/logger"
)

// Config represents the sds configuration file (~/.config/sds/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Conversion defaults
	Mode string `yaml:"mode"`

	// Print defaults
	RowLimit *int64 `yaml:"row_limit"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sds", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist.
func LoadConfig() (Config, error) {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loggerFromConfig builds the CLI logger from the config file settings.
func loggerFromConfig(cfg Config) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logger.JSON(os.Stderr, level)
	}
	return logger.Pretty(os.Stderr, level)
}

// applyConvertConfig applies config file defaults to convert command
// variables when the corresponding CLI flag was not explicitly set.
func applyConvertConfig(c *cli.Command, cfg Config, mode *string) {
	if cfg.Mode != "" && !c.IsSet("mode") {
		*mode = cfg.Mode
	}
}

// applyPrintConfig applies config file defaults to print command variables.
func applyPrintConfig(c *cli.Command, cfg Config, rowLimit *int64) {
	if cfg.RowLimit != nil && !c.IsSet("rows") {
		*rowLimit = *cfg.RowLimit
	}
}
