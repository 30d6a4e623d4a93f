package config

import (
	"fmt"

	"github.com/marmos91/scopefs/pkg/adapter"
	"github.com/marmos91/scopefs/pkg/adapter/webdav"
	"github.com/marmos91/scopefs/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// This factory function centralizes adapter creation logic and makes it easy to:
//   - Add new protocol adapters
//   - Configure metrics for all adapters
//   - Handle adapter-specific initialization
//
// Parameters:
//   - cfg: The complete ScopeFS configuration
//   - davMetrics: Optional WebDAV metrics collector (nil = no metrics)
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, davMetrics metrics.DavMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Adapters.WebDAV.Enabled {
		adapters = append(adapters, webdav.New(cfg.Adapters.WebDAV, davMetrics))
	}

	// Future adapters can be added here:
	// if cfg.Adapters.SFTP.Enabled {
	//     adapters = append(adapters, sftp.New(cfg.Adapters.SFTP))
	// }

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
