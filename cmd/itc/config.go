package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the artcache configuration file
// (~/.config/artcache/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	OutputDir   string `yaml:"output_dir"`
	Variant     string `yaml:"variant"`
	Compression *int   `yaml:"compression"`
	Digest      *bool  `yaml:"digest"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Quiet     *bool  `yaml:"quiet"`
}

// cfg is loaded by the root Before hook.
var cfg Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "artcache", "config.yaml")
}

func configSource(path string) string {
	if path != "" {
		return path
	}
	if p := configPath(); p != "" {
		return p
	}
	return "none"
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing or malformed default file yields a zero Config;
// an explicitly requested file must exist and parse.
func loadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		return Config{}, nil
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		if explicit {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return Config{}, nil
	}
	return c, nil
}

// applyLoggingConfig applies config file defaults to the global logging
// flags when the corresponding CLI flag was not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Quiet != nil && !c.IsSet("quiet") {
		quiet = *cfg.Quiet
	}
}

// applyExtractConfig applies config file defaults to extract options.
func applyExtractConfig(c *cli.Command, cfg Config, dir *string, compression *int) {
	if cfg.OutputDir != "" && !c.IsSet("dir") {
		*dir = cfg.OutputDir
	}
	if cfg.Compression != nil && !c.IsSet("compression") {
		*compression = *cfg.Compression
	}
}

// applyVariantConfig applies the config file default layout for new
// containers.
func applyVariantConfig(c *cli.Command, cfg Config, variant *string) {
	if cfg.Variant != "" && !c.IsSet("variant") {
		*variant = cfg.Variant
	}
}

func applyListConfig(c *cli.Command, cfg Config, digest *bool) {
	if cfg.Digest != nil && !c.IsSet("digest") {
		*digest = *cfg.Digest
	}
}
