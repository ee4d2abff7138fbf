package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerURL = "http://localhost:5000"
	configFileName   = ".agentctl.yaml"

	envToken     = "AGENTCTL_TOKEN"
	envServerURL = "AGENTCTL_SERVER_URL"
)

// cliConfig is persisted in ~/.agentctl.yaml.
type cliConfig struct {
	ServerURL    string    `yaml:"server_url"`
	Token        string    `yaml:"token,omitempty"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	TokenExpiry  time.Time `yaml:"token_expiry,omitempty"`
	// Subject is sent as X-User-Subject for servers running without token validation.
	Subject string        `yaml:"subject,omitempty"`
	OAuth   oauthSettings `yaml:"oauth,omitempty"`
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, configFileName), nil
}

// loadFileConfig reads path, returning an empty config when the file does not exist.
func loadFileConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// loadConfig is loadFileConfig with environment overrides and defaults applied.
func loadConfig(path string) (*cliConfig, error) {
	cfg, err := loadFileConfig(path)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv(envServerURL)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envToken)); v != "" {
		cfg.Token = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	return cfg, nil
}

func saveConfig(path string, cfg *cliConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *cliConfig) set(key, value string) error {
	switch key {
	case "server_url":
		c.ServerURL = strings.TrimRight(value, "/")
	case "token":
		c.Token = value
	case "subject":
		c.Subject = value
	case "oauth.client_id":
		c.OAuth.ClientID = value
	case "oauth.device_auth_url":
		c.OAuth.DeviceAuthURL = value
	case "oauth.token_url":
		c.OAuth.TokenURL = value
	case "oauth.scopes":
		c.OAuth.Scopes = strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		return fmt.Errorf("unknown config key %q (expected server_url, token, subject or oauth.*)", key)
	}
	return nil
}
