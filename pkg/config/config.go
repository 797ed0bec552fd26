package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config represents the ic7300-mem-manager configuration
type Config struct {
	Radio struct {
		Device            string `yaml:"device"`
		BaudRate          int    `yaml:"baud_rate"`
		CIVAddress        string `yaml:"civ_address"`
		ControllerAddress string `yaml:"controller_address"`
		CommandTimeoutMs  int    `yaml:"command_timeout_ms"`
		PollIntervalMs    int    `yaml:"poll_interval_ms"`
		PacingDelayMs     int    `yaml:"pacing_delay_ms"`
	} `yaml:"radio"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"storage"`

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

	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a configuration with every default applied, for
// callers that run without a config file.
func DefaultConfig() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Radio.BaudRate == 0 {
		c.Radio.BaudRate = 19200
	}
	if c.Radio.CIVAddress == "" {
		c.Radio.CIVAddress = "0x94"
	}
	if c.Radio.ControllerAddress == "" {
		c.Radio.ControllerAddress = "0xE0"
	}
	if c.Radio.CommandTimeoutMs == 0 {
		c.Radio.CommandTimeoutMs = 1000
	}
	if c.Radio.PollIntervalMs == 0 {
		c.Radio.PollIntervalMs = 10
	}
	if c.Radio.PacingDelayMs == 0 {
		c.Radio.PacingDelayMs = 50
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "./ic7300.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 30
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.RadioAddress(); err != nil {
		return err
	}
	if _, err := c.ControllerAddress(); err != nil {
		return err
	}
	if c.Radio.BaudRate < 300 {
		return fmt.Errorf("baud rate %d is not usable", c.Radio.BaudRate)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	return nil
}

// RadioAddress parses the configured CI-V address of the radio.
func (c *Config) RadioAddress() (byte, error) {
	return parseAddress("civ_address", c.Radio.CIVAddress)
}

// ControllerAddress parses the configured CI-V address of the controller.
func (c *Config) ControllerAddress() (byte, error) {
	return parseAddress("controller_address", c.Radio.ControllerAddress)
}

func parseAddress(field, value string) (byte, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x")
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return byte(n), nil
}
