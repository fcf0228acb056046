package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config represents the yaesutool/yaesud configuration
type Config struct {
	Device struct {
		// Serial port connected to the radio, e.g. /dev/ttyUSB0
		Port string `yaml:"port"`
		// Model hint: "ft-60" or "vx-2". Empty means detect from the
		// image magic when reading files, or probe when cloning.
		Model string `yaml:"model"`
		// Per-read timeout in milliseconds
		ReadTimeout int `yaml:"read_timeout"`
		// Read timeouts tolerated while waiting for the radio to start
		// the clone send; the whole wait lasts roughly
		// ReadTimeout * HandshakeRetries milliseconds
		HandshakeRetries int `yaml:"handshake_retries"`
	} `yaml:"device"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	History struct {
		// SQLite database recording clone sessions
		DatabasePath string `yaml:"database_path"`
		MaxEntries   int    `yaml:"max_entries"`
	} `yaml:"history"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()
	return &config, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	var config Config
	config.setDefaults()
	return &config
}

func (c *Config) setDefaults() {
	if c.Device.Port == "" {
		c.Device.Port = "/dev/ttyUSB0"
	}
	if c.Device.ReadTimeout == 0 {
		c.Device.ReadTimeout = 200
	}
	if c.Device.HandshakeRetries == 0 {
		// about a minute at the default read timeout
		c.Device.HandshakeRetries = 300
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Device.Port == "" {
		return fmt.Errorf("device port is required")
	}
	switch c.Device.Model {
	case "", "ft-60", "vx-2":
	default:
		return fmt.Errorf("unknown radio model %q", c.Device.Model)
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port out of range: %d", c.Web.Port)
	}
	return nil
}
