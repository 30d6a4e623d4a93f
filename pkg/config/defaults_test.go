package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected format text, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected output stdout, got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Server.Metrics.Port)
	}

	// Default backends: local + memory
	if _, ok := cfg.Backends["local"]; !ok {
		t.Error("Expected default local backend")
	}
	if _, ok := cfg.Backends["memory"]; !ok {
		t.Error("Expected default memory backend")
	}
	if got := cfg.Backends["local"].Local["path"]; got != DefaultLocalBackendPath {
		t.Errorf("Expected default local path %q, got %v", DefaultLocalBackendPath, got)
	}

	// Default mount lands on the memory backend so startup never depends
	// on pre-created directories.
	if len(cfg.Mounts) != 1 {
		t.Fatalf("Expected one default mount, got %d", len(cfg.Mounts))
	}
	if cfg.Mounts[0].Name != "scratch" || cfg.Mounts[0].Backend != "memory" {
		t.Errorf("Unexpected default mount: %+v", cfg.Mounts[0])
	}
	if cfg.Mounts[0].Dir != "scratch" {
		t.Errorf("Expected mount dir to default to name, got %q", cfg.Mounts[0].Dir)
	}

	if !cfg.Adapters.WebDAV.Enabled {
		t.Error("Expected WebDAV adapter enabled by default")
	}
	if cfg.Adapters.WebDAV.Port != 5000 {
		t.Errorf("Expected WebDAV port 5000, got %d", cfg.Adapters.WebDAV.Port)
	}
	if cfg.Adapters.WebDAV.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected WebDAV shutdown timeout 30s, got %v", cfg.Adapters.WebDAV.ShutdownTimeout)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ShutdownTimeout = time.Minute
	cfg.Backends = map[string]BackendConfig{
		"disk": {Type: "local", Local: map[string]any{"path": "/srv/data"}},
	}
	cfg.Mounts = []MountConfig{
		{Name: "docs", Backend: "disk", Dir: "documents", ReadOnly: true},
	}
	cfg.Adapters.WebDAV.Port = 8080

	ApplyDefaults(cfg)

	if cfg.Server.ShutdownTimeout != time.Minute {
		t.Errorf("Explicit shutdown timeout overwritten: %v", cfg.Server.ShutdownTimeout)
	}
	if got := cfg.Backends["disk"].Local["path"]; got != "/srv/data" {
		t.Errorf("Explicit backend path overwritten: %v", got)
	}
	if len(cfg.Backends) != 1 {
		t.Errorf("Default backends added alongside explicit ones: %d", len(cfg.Backends))
	}
	if cfg.Mounts[0].Dir != "documents" {
		t.Errorf("Explicit mount dir overwritten: %q", cfg.Mounts[0].Dir)
	}
	if !cfg.Mounts[0].ReadOnly {
		t.Error("Explicit read_only flag lost")
	}
	if cfg.Adapters.WebDAV.Port != 8080 {
		t.Errorf("Explicit WebDAV port overwritten: %d", cfg.Adapters.WebDAV.Port)
	}
}

func TestApplyDefaults_ExplicitlyDisabledAdapterStaysDisabled(t *testing.T) {
	cfg := &Config{}
	cfg.Adapters.WebDAV.Enabled = false
	cfg.Adapters.WebDAV.Port = 8080 // explicit configuration

	ApplyDefaults(cfg)

	if cfg.Adapters.WebDAV.Enabled {
		t.Error("Explicitly configured disabled adapter was force-enabled")
	}
}

func TestApplyDefaults_RateBurstFollowsRateLimit(t *testing.T) {
	cfg := &Config{}
	cfg.Adapters.WebDAV.RateLimit = 100

	ApplyDefaults(cfg)

	if cfg.Adapters.WebDAV.RateBurst != 200 {
		t.Errorf("Expected rate burst 200, got %d", cfg.Adapters.WebDAV.RateBurst)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config does not validate: %v", err)
	}
}
