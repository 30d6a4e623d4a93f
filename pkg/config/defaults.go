package config

import (
	"strings"
	"time"

	"github.com/marmos91/scopefs/pkg/adapter/webdav"
)

// DefaultLocalBackendPath is where the default local backend keeps its data
// when no backend is configured explicitly.
const DefaultLocalBackendPath = "/var/lib/scopefs"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Adapter-specific defaults are handled by the adapter implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyBackendDefaults(cfg)
	applyMountDefaults(cfg)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// applyBackendDefaults ensures at least one backend exists and fills in
// per-backend option defaults.
func applyBackendDefaults(cfg *Config) {
	if cfg.Backends == nil {
		cfg.Backends = make(map[string]BackendConfig)
	}

	// A freshly loaded config (no config file) gets a local disk backend
	// plus an ephemeral memory backend.
	if len(cfg.Backends) == 0 {
		cfg.Backends["local"] = BackendConfig{Type: "local"}
		cfg.Backends["memory"] = BackendConfig{Type: "memory"}
	}

	for name, backend := range cfg.Backends {
		if backend.Type == "local" {
			if backend.Local == nil {
				backend.Local = make(map[string]any)
			}
			if _, ok := backend.Local["path"]; !ok {
				backend.Local["path"] = DefaultLocalBackendPath
			}
		}
		if backend.Type == "memory" && backend.Memory == nil {
			backend.Memory = make(map[string]any)
		}
		cfg.Backends[name] = backend
	}
}

// applyMountDefaults ensures at least one mount exists and fills in mount
// directories.
//
// The default mount lives on a memory backend so a bare server starts
// without the operator pre-creating directories on disk. Local mounts are
// never auto-provisioned: their directories must exist.
func applyMountDefaults(cfg *Config) {
	if len(cfg.Mounts) == 0 {
		backend := "memory"
		if _, ok := cfg.Backends[backend]; !ok {
			// No memory backend declared; fall back to the first declared one.
			for name := range cfg.Backends {
				backend = name
				break
			}
		}
		cfg.Mounts = []MountConfig{
			{Name: "scratch", Backend: backend},
		}
	}

	for i := range cfg.Mounts {
		if cfg.Mounts[i].Dir == "" {
			cfg.Mounts[i].Dir = cfg.Mounts[i].Name
		}
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the WebDAV adapter by default if it looks unconfigured (Port
	// 0 means no explicit configuration was provided). This ensures a
	// freshly loaded config has at least one adapter enabled and passes
	// validation; users can explicitly set enabled: false.
	if !cfg.WebDAV.Enabled && cfg.WebDAV.Port == 0 {
		cfg.WebDAV.Enabled = true
	}

	webdavDefaults(&cfg.WebDAV)
}

// webdavDefaults sets WebDAV adapter defaults.
func webdavDefaults(cfg *webdav.DavConfig) {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}

	// MaxConnections defaults to 0 (unlimited)

	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = cfg.RateLimit * 2
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
