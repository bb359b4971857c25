package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig selects and configures the store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `yaml:"url,omitempty" validate:"required_if=Driver postgres"`
	Path   string `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
}

// StaffingConfig overrides the built-in staffing limits. Zero values fall
// back to the defaults in pkg/core/rules.
type StaffingConfig struct {
	MaxSlotCoverage    int `yaml:"maxSlotCoverage,omitempty" validate:"omitempty,min=1"`
	MinHealthyCoverage int `yaml:"minHealthyCoverage,omitempty" validate:"omitempty,min=1"`
}

// NotifierConfig configures email delivery of notifications. In-app
// notification rows are always written; email is opt-in.
type NotifierConfig struct {
	EmailEnabled    bool   `yaml:"emailEnabled,omitempty"`
	OAuthClientPath string `yaml:"oauthClientPath,omitempty" validate:"required_if=EmailEnabled true"`
	TokenPath       string `yaml:"tokenPath,omitempty" validate:"required_if=EmailEnabled true"`
}

// Config represents the application configuration
type Config struct {
	ListenAddr string         `yaml:"listenAddr" validate:"required"`
	Database   DatabaseConfig `yaml:"database" validate:"required"`
	Staffing   StaffingConfig `yaml:"staffing,omitempty"`
	Notifier   NotifierConfig `yaml:"notifier,omitempty"`

	// APITokens maps bearer tokens to user ids for the HTTP layer's
	// authentication boundary
	APITokens map[string]string `yaml:"apiTokens,omitempty"`

	// AllowedOrigins are the CORS origins the API accepts
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from scheduler_config.yaml,
// looking in the current directory first, then the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// findConfigFile searches for scheduler_config.yaml in the current
// directory and home directory
func findConfigFile() (string, error) {
	configFileName := "scheduler_config.yaml"

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
