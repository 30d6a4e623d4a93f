package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitializeRegistry_MemoryBackend(t *testing.T) {
	cfg := &Config{
		Backends: map[string]BackendConfig{
			"mem": {Type: "memory"},
		},
		Mounts: []MountConfig{
			{Name: "scratch", Backend: "mem"},
			{Name: "readonly", Backend: "mem", ReadOnly: true},
		},
	}
	ApplyDefaults(cfg)

	reg, err := InitializeRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitializeRegistry failed: %v", err)
	}

	if reg.CountBackends() != 1 {
		t.Errorf("Expected 1 backend, got %d", reg.CountBackends())
	}
	if reg.CountMounts() != 2 {
		t.Errorf("Expected 2 mounts, got %d", reg.CountMounts())
	}

	mount, err := reg.GetMount("readonly")
	if err != nil {
		t.Fatalf("GetMount failed: %v", err)
	}
	if !mount.ReadOnly {
		t.Error("read_only flag not carried into the registry")
	}
}

func TestInitializeRegistry_LocalBackend(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "docs"), 0755); err != nil {
		t.Fatalf("Failed to create mount directory: %v", err)
	}

	cfg := &Config{
		Backends: map[string]BackendConfig{
			"disk": {Type: "local", Local: map[string]any{"path": base}},
		},
		Mounts: []MountConfig{
			{Name: "docs", Backend: "disk"},
		},
	}
	ApplyDefaults(cfg)

	reg, err := InitializeRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitializeRegistry failed: %v", err)
	}

	if _, err := reg.GetFilesystem(context.Background(), "docs"); err != nil {
		t.Fatalf("GetFilesystem failed: %v", err)
	}
}

func TestInitializeRegistry_MissingMountDirectory(t *testing.T) {
	base := t.TempDir()

	cfg := &Config{
		Backends: map[string]BackendConfig{
			"disk": {Type: "local", Local: map[string]any{"path": base}},
		},
		Mounts: []MountConfig{
			// Directory was never created: mounts are not auto-provisioned
			// on disk, so this must fail at startup.
			{Name: "ghost", Backend: "disk"},
		},
	}
	ApplyDefaults(cfg)

	if _, err := InitializeRegistry(context.Background(), cfg); err == nil {
		t.Fatal("Expected startup failure for a local mount without its directory")
	}
}

func TestInitializeRegistry_LocalBackendWithoutPath(t *testing.T) {
	cfg := &Config{
		Backends: map[string]BackendConfig{
			"disk": {Type: "local", Local: map[string]any{}},
		},
		Mounts: []MountConfig{
			{Name: "docs", Backend: "disk"},
		},
	}
	// No ApplyDefaults: the path stays empty.

	if _, err := InitializeRegistry(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for local backend without a path")
	}
}

// pointConfigDirAt redirects the default config directory into a temp dir
// for the duration of the test.
func pointConfigDirAt(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func TestInitConfig_Success(t *testing.T) {
	pointConfigDirAt(t, t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	if !strings.Contains(string(content), "adapters:") {
		t.Error("Generated config has no adapters section")
	}

	// The generated file must be valid YAML.
	var parsed map[string]any
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}

	// And it must survive a full load with validation.
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if !cfg.Adapters.WebDAV.Enabled {
		t.Error("Generated config should enable the WebDAV adapter")
	}
	if len(cfg.Mounts) == 0 {
		t.Error("Generated config has no mounts")
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	pointConfigDirAt(t, t.TempDir())

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	if _, err := InitConfig(false); err == nil {
		t.Fatal("Second InitConfig should refuse to overwrite")
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("Forced InitConfig failed: %v", err)
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Metrics.Enabled = false

	result := InitializeMetrics(cfg)
	if result.Server != nil {
		t.Error("Expected no metrics server when disabled")
	}
	if result.DavMetrics == nil {
		t.Error("Expected a no-op DavMetrics, got nil")
	}
}

func TestCreateAdapters(t *testing.T) {
	cfg := GetDefaultConfig()

	adapters, err := CreateAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("CreateAdapters failed: %v", err)
	}
	if len(adapters) != 1 {
		t.Fatalf("Expected 1 adapter, got %d", len(adapters))
	}
	if adapters[0].Protocol() != "WebDAV" {
		t.Errorf("Expected WebDAV adapter, got %q", adapters[0].Protocol())
	}

	cfg.Adapters.WebDAV.Enabled = false
	if _, err := CreateAdapters(cfg, nil); err == nil {
		t.Fatal("Expected error with no enabled adapters")
	}
}
