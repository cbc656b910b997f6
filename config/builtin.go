package config

import "fmt"

// Builtin returns a named built-in configuration template to start from.
// Available names: minimal, enterprise, development.
func Builtin(name string) (*Document, error) {
	switch name {
	case "minimal":
		return &Document{
			Discovery: DiscoveryConfig{
				Enabled: true,
				Sources: []string{"cli-help"},
			},
			Validation: ValidationConfig{
				FallbackStrategy: "generic",
			},
		}, nil
	case "enterprise":
		return &Document{
			Discovery: DiscoveryConfig{
				Enabled: true,
				Sources: []string{"cli-help", "config", "manifest", "plugins", "env"},
			},
			Validation: ValidationConfig{
				Strict:             true,
				FallbackStrategy:   "error",
				ValidateAgainstCLI: true,
			},
			Plugins: PluginConfig{
				Enabled:   true,
				Directory: "./plugins",
				Pattern:   "*.plugin.yaml",
			},
		}, nil
	case "development":
		return &Document{
			Discovery: DiscoveryConfig{
				Enabled: true,
				Sources: []string{"cli-help", "manifest", "env"},
			},
			Validation: ValidationConfig{
				AutoCreate:       true,
				FallbackStrategy: "auto-discover",
			},
			Plugins: PluginConfig{
				Enabled:   true,
				Directory: "./plugins",
				Pattern:   "*.plugin.yaml",
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown builtin config %q", name)
	}
}
