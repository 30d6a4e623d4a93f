package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Backends) == 0 {
		return fmt.Errorf("backends: at least one backend must be configured")
	}

	if len(cfg.Mounts) == 0 {
		return fmt.Errorf("mounts: at least one mount must be configured")
	}

	// Mount names must be unique and reference declared backends.
	names := make(map[string]bool)
	for i, mount := range cfg.Mounts {
		if names[mount.Name] {
			return fmt.Errorf("mounts[%d]: duplicate mount name %q", i, mount.Name)
		}
		names[mount.Name] = true

		if _, ok := cfg.Backends[mount.Backend]; !ok {
			return fmt.Errorf("mounts[%d]: mount %q references unknown backend %q",
				i, mount.Name, mount.Backend)
		}
	}

	// Validate at least one adapter is enabled
	if !cfg.Adapters.WebDAV.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	// The metrics server must not collide with an adapter port.
	if cfg.Server.Metrics.Enabled && cfg.Adapters.WebDAV.Enabled &&
		cfg.Server.Metrics.Port == cfg.Adapters.WebDAV.Port {
		return fmt.Errorf("server.metrics: port %d conflicts with the WebDAV adapter",
			cfg.Server.Metrics.Port)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
