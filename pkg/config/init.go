package config

import (
	"fmt"
	"os"
)

// configTemplate is the starter configuration written by InitConfig. It
// mirrors GetDefaultConfig with every section spelled out and commented so
// operators can uncomment what they need.
const configTemplate = `# ScopeFS configuration
# Environment variables override any value here, e.g. SCOPEFS_LOGGING_LEVEL=DEBUG

logging:
  level: INFO # DEBUG, INFO, WARN, ERROR
  format: text # text or json
  output: stdout # stdout, stderr, or a file path

server:
  shutdown_timeout: 30s
  metrics:
    enabled: false
    port: 9090

# Storage backends mounts are carved out of.
backends:
  local:
    type: local
    local:
      path: /var/lib/scopefs
  memory:
    type: memory

# Tenant mounts exposed to clients as the first path segment.
# Local mount directories must exist before the server starts.
mounts:
  - name: scratch
    backend: memory
  # - name: docs
  #   backend: local
  #   dir: docs
  #   read_only: false

adapters:
  webdav:
    enabled: true
    port: 5000
    # max_connections: 0 # 0 = unlimited
    # rate_limit: 0 # requests per second, 0 = unlimited
    # read_timeout: 0s
    # write_timeout: 0s
    idle_timeout: 5m
    shutdown_timeout: 30s
`

// InitConfig writes a starter configuration file at the default location
// and returns its path. Refuses to overwrite an existing file unless force
// is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
