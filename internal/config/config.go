// Package config loads the vulture YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"vulture/internal/core/types"
)

// FileName is the config file name inside the config directory.
const FileName = "config.yaml"

// Config represents the application configuration.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Tunnel   TunnelConfig   `yaml:"tunnel"`
	Sampler  SamplerConfig  `yaml:"sampler"`
	Session  SessionConfig  `yaml:"session"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Log      LogConfig      `yaml:"log"`
}

// IdentityConfig is the metadata handed to the tunnel on connect.
type IdentityConfig struct {
	DisplayName string `yaml:"display_name"`
	BundleID    string `yaml:"bundle_id"`
}

// TunnelConfig controls how openvpn is launched.
type TunnelConfig struct {
	Binary         string        `yaml:"binary"`  // empty: search PATH
	Elevate        string        `yaml:"elevate"` // sudo, pkexec or empty
	Device         string        `yaml:"device"`
	CompatMode     string        `yaml:"compat_mode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	StopTimeout    time.Duration `yaml:"stop_timeout"`
}

// SamplerConfig controls throughput sampling.
type SamplerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// SessionConfig controls the session clock.
type SessionConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ProfilesConfig points at alternative profile and catalog sources.
type ProfilesConfig struct {
	SourceDir   string `yaml:"source_dir"`   // read instead of the bundled profiles
	CatalogFile string `yaml:"catalog_file"` // servers.yaml override
}

// LogConfig controls the application log.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Identity: IdentityConfig{
			DisplayName: "Vulture VPN",
			BundleID:    "com.vpn3001",
		},
		Tunnel: TunnelConfig{
			Device:         "tun0",
			CompatMode:     string(types.CompatTwoThree),
			ConnectTimeout: 30 * time.Second,
			StopTimeout:    5 * time.Second,
		},
		Sampler: SamplerConfig{Interval: time.Second},
		Session: SessionConfig{Interval: time.Second},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the configuration at path. A missing file is created with
// default values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values and fills zero durations with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.Identity.DisplayName == "" {
		c.Identity.DisplayName = def.Identity.DisplayName
	}
	if c.Identity.BundleID == "" {
		return fmt.Errorf("identity.bundle_id must not be empty")
	}
	if _, err := types.ParseCompatMode(c.Tunnel.CompatMode); err != nil {
		return fmt.Errorf("tunnel.compat_mode: %w", err)
	}
	switch c.Tunnel.Elevate {
	case "", "sudo", "pkexec", "doas":
	default:
		return fmt.Errorf("tunnel.elevate: unsupported helper %q", c.Tunnel.Elevate)
	}
	if c.Tunnel.Device == "" {
		c.Tunnel.Device = def.Tunnel.Device
	}
	if c.Tunnel.ConnectTimeout <= 0 {
		c.Tunnel.ConnectTimeout = def.Tunnel.ConnectTimeout
	}
	if c.Tunnel.StopTimeout <= 0 {
		c.Tunnel.StopTimeout = def.Tunnel.StopTimeout
	}
	if c.Sampler.Interval <= 0 {
		c.Sampler.Interval = def.Sampler.Interval
	}
	if c.Session.Interval <= 0 {
		c.Session.Interval = def.Session.Interval
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// CompatMode returns the parsed tunnel compat mode.
func (c *Config) CompatMode() types.CompatMode {
	m, _ := types.ParseCompatMode(c.Tunnel.CompatMode)
	return m
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
