package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/scopefs/pkg/store/local"
	"github.com/marmos91/scopefs/pkg/store/memory"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// createBackend creates a single storage backend instance.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "local": pkg/store/local (on-disk storage under a base directory)
//   - "memory": pkg/store/memory (ephemeral in-memory storage)
func createBackend(ctx context.Context, cfg BackendConfig) (vfs.Backend, error) {
	switch cfg.Type {
	case "local":
		return createLocalBackend(ctx, cfg)
	case "memory":
		return createMemoryBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend type: %q (supported: local, memory)", cfg.Type)
	}
}

// createLocalBackend creates a local-disk backend.
func createLocalBackend(ctx context.Context, cfg BackendConfig) (vfs.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decode local-specific configuration to get the base path
	var localCfg struct {
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(cfg.Local, &localCfg); err != nil {
		return nil, fmt.Errorf("invalid local backend config: %w", err)
	}

	if localCfg.Path == "" {
		return nil, fmt.Errorf("local backend: path is required")
	}

	backend, err := local.NewBackend(localCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local backend: %w", err)
	}

	return backend, nil
}

// createMemoryBackend creates an in-memory backend.
func createMemoryBackend(ctx context.Context, cfg BackendConfig) (vfs.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The memory backend currently takes no options; decode anyway so
	// unknown keys in the config surface as a decoding error later when
	// options exist, instead of being silently dropped.
	var memCfg struct{}
	if err := mapstructure.Decode(cfg.Memory, &memCfg); err != nil {
		return nil, fmt.Errorf("invalid memory backend config: %w", err)
	}

	return memory.NewBackend(), nil
}
