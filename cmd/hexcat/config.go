package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the hexcat configuration file
// (~/.config/hexcat/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Output
	Format         string `yaml:"format"`
	BytesPerRecord *int   `yaml:"bytes_per_record"`
	LimitMB        *int64 `yaml:"limit_mb"`

	LogLevel string `yaml:"log_level"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hexcat", "config.yaml")
}

// applyConvertConfig applies config file defaults to convert command
// variables when the corresponding CLI flag was not explicitly set.
func applyConvertConfig(c *cli.Command, cfg Config, limitMB *int64, bytesPerRecord *int) {
	if cfg.LimitMB != nil && !c.IsSet("limit") {
		*limitMB = *cfg.LimitMB
	}
	if cfg.BytesPerRecord != nil && !c.IsSet("width") {
		*bytesPerRecord = *cfg.BytesPerRecord
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
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
