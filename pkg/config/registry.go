package config

import (
	"context"
	"fmt"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/registry"
)

// InitializeRegistry creates a fully configured Registry from the provided configuration.
//
// This function orchestrates the complete initialization process:
//  1. Creates and registers all storage backends from cfg.Backends
//  2. Resolves and adds all mounts from cfg.Mounts
//
// The resulting Registry contains all backends and mounts ready for use by
// the facade. Mount resolution is where misconfiguration surfaces: a local
// mount whose directory does not exist fails here, at startup, not at
// request time.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Complete configuration loaded from config file
//
// Returns:
//   - *registry.Registry: Fully initialized registry
//   - error: If backend creation or mount resolution fails
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg)
//	if err != nil {
//	    log.Fatalf("Failed to initialize registry: %v", err)
//	}
func InitializeRegistry(ctx context.Context, cfg *Config) (*registry.Registry, error) {
	logger.Debug("Initializing registry from configuration")

	if err := validateRegistryConfig(cfg); err != nil {
		return nil, err
	}

	reg := registry.NewRegistry()

	if err := registerBackends(ctx, reg, cfg); err != nil {
		return nil, fmt.Errorf("failed to register backends: %w", err)
	}
	logger.Debug("Registered %d backend(s)", reg.CountBackends())

	if err := addMounts(ctx, reg, cfg); err != nil {
		return nil, fmt.Errorf("failed to add mounts: %w", err)
	}
	logger.Debug("Registered %d mount(s)", reg.CountMounts())

	return reg, nil
}

// validateRegistryConfig performs basic validation on the configuration.
func validateRegistryConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if len(cfg.Backends) == 0 {
		return fmt.Errorf("no backends configured: at least one backend is required")
	}

	if len(cfg.Mounts) == 0 {
		return fmt.Errorf("no mounts configured: at least one mount is required")
	}

	return nil
}

// registerBackends creates and registers all configured backends.
func registerBackends(ctx context.Context, reg *registry.Registry, cfg *Config) error {
	for name, backendCfg := range cfg.Backends {
		logger.Debug("Creating backend %q (type: %s)", name, backendCfg.Type)

		backend, err := createBackend(ctx, backendCfg)
		if err != nil {
			return fmt.Errorf("failed to create backend %q: %w", name, err)
		}

		if err := reg.RegisterBackend(name, backend); err != nil {
			return fmt.Errorf("failed to register backend %q: %w", name, err)
		}

		logger.Debug("Backend %q registered successfully", name)
	}

	return nil
}

// addMounts resolves and adds all configured mounts to the registry.
func addMounts(ctx context.Context, reg *registry.Registry, cfg *Config) error {
	for i, mountCfg := range cfg.Mounts {
		logger.Debug("Adding mount %q (backend: %s, dir: %s, read_only: %v)",
			mountCfg.Name, mountCfg.Backend, mountCfg.Dir, mountCfg.ReadOnly)

		if mountCfg.Name == "" {
			return fmt.Errorf("mount #%d: name cannot be empty", i+1)
		}
		if mountCfg.Backend == "" {
			return fmt.Errorf("mount %q: backend cannot be empty", mountCfg.Name)
		}

		err := reg.AddMount(ctx, &registry.MountConfig{
			Name:     mountCfg.Name,
			Backend:  mountCfg.Backend,
			Dir:      mountCfg.Dir,
			ReadOnly: mountCfg.ReadOnly,
		})
		if err != nil {
			return fmt.Errorf("failed to add mount %q: %w", mountCfg.Name, err)
		}

		logger.Debug("Mount %q added successfully", mountCfg.Name)
	}

	return nil
}
