package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the fwigrad configuration file
// (~/.config/fwigrad/config.yaml). Fields are pointers where zero is
// a meaningful value, so "not set" stays distinguishable.
type Config struct {
	Order       *int64 `yaml:"order"`
	Workers     *int64 `yaml:"workers"`
	ShotWorkers *int64 `yaml:"shot_workers"`
	Iterations  *int64 `yaml:"iterations"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fwigrad", "config.yaml")
}

// applyComputeConfig applies config file defaults to the compute flag
// variables when the corresponding CLI flag was not explicitly set.
func applyComputeConfig(c *cli.Command, cfg Config) {
	if cfg.Order != nil && !c.IsSet("order") {
		order = *cfg.Order
	}
	if cfg.Workers != nil && !c.IsSet("workers") && !c.IsSet("w") {
		workers = *cfg.Workers
	}
	if cfg.ShotWorkers != nil && !c.IsSet("shot-workers") {
		shotWorkers = *cfg.ShotWorkers
	}
	if cfg.Iterations != nil && !c.IsSet("iterations") && !c.IsSet("n") {
		iterations = *cfg.Iterations
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or fails to parse.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
