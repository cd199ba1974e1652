package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vulture/internal/core/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Identity.DisplayName != "Vulture VPN" {
		t.Errorf("DisplayName = %v, want Vulture VPN", cfg.Identity.DisplayName)
	}
	if cfg.Identity.BundleID != "com.vpn3001" {
		t.Errorf("BundleID = %v, want com.vpn3001", cfg.Identity.BundleID)
	}
	if cfg.CompatMode() != types.CompatTwoThree {
		t.Errorf("CompatMode() = %v, want 2.3", cfg.CompatMode())
	}
	if cfg.Session.Interval != time.Second {
		t.Errorf("Session.Interval = %v, want 1s", cfg.Session.Interval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulture", FileName)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tunnel.Device != "tun0" {
		t.Errorf("Device = %v, want tun0", cfg.Tunnel.Device)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config was not written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of written defaults error = %v", err)
	}
	if again.Tunnel.ConnectTimeout != 30*time.Second {
		t.Errorf("ConnectTimeout round trip = %v, want 30s", again.Tunnel.ConnectTimeout)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "partial file keeps defaults",
			data: "tunnel:\n  device: vulture0\n  compat_mode: OVPN_TWO_FOUR_PEER\n",
			check: func(t *testing.T, c *Config) {
				if c.Tunnel.Device != "vulture0" {
					t.Errorf("Device = %v", c.Tunnel.Device)
				}
				if c.CompatMode() != types.CompatTwoFour {
					t.Errorf("CompatMode() = %v, want 2.4", c.CompatMode())
				}
				if c.Identity.BundleID != "com.vpn3001" {
					t.Errorf("BundleID = %v", c.Identity.BundleID)
				}
			},
		},
		{
			name: "durations",
			data: "sampler:\n  interval: 500ms\n",
			check: func(t *testing.T, c *Config) {
				if c.Sampler.Interval != 500*time.Millisecond {
					t.Errorf("Sampler.Interval = %v", c.Sampler.Interval)
				}
			},
		},
		{name: "unknown field", data: "tunnel:\n  port: 1194\n", wantErr: "field port not found"},
		{name: "bad compat", data: "tunnel:\n  compat_mode: \"1.0\"\n", wantErr: "compat_mode"},
		{name: "bad elevate", data: "tunnel:\n  elevate: su\n", wantErr: "elevate"},
		{name: "bad log level", data: "log:\n  level: loud\n", wantErr: "log.level"},
		{name: "empty bundle id", data: "identity:\n  bundle_id: \"\"\n", wantErr: "bundle_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
