// Package config persists the taxonomy and its discovery settings to a
// structured yaml document, and resolves environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Filename is the standard name for taxonomy configuration files.
const Filename = "citty-domains.yaml"

// Document is the on-disk configuration format.
type Document struct {
	Domains    map[string]taxonomy.Domain `yaml:"domains,omitempty"`
	Discovery  DiscoveryConfig            `yaml:"discovery"`
	Validation ValidationConfig           `yaml:"validation"`
	Plugins    PluginConfig               `yaml:"plugins"`
}

// DiscoveryConfig selects which sources discovery pulls from.
type DiscoveryConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Sources         []string `yaml:"sources,omitempty"`
	CLIPath         string   `yaml:"cliPath,omitempty"`
	PackageJSONPath string   `yaml:"packageJsonPath,omitempty"`
}

// ValidationConfig controls how discovered domains are checked against the
// live CLI. FallbackStrategy is one of generic, error, auto-discover, ignore.
type ValidationConfig struct {
	Strict             bool   `yaml:"strict"`
	AutoCreate         bool   `yaml:"autoCreate"`
	FallbackStrategy   string `yaml:"fallbackStrategy,omitempty"`
	ValidateAgainstCLI bool   `yaml:"validateAgainstCli"`
}

// PluginConfig controls loading of declarative plugin descriptors.
type PluginConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
}

// Manager loads and saves taxonomy configuration documents, caching parsed
// files per path.
type Manager struct {
	cache *gocache.Cache
	log   *zap.Logger
}

// NewManager creates a Manager. A nil logger disables logging.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: gocache.New(5*time.Minute, 10*time.Minute),
		log:   log,
	}
}

// Load loads configuration starting from the current directory, walking up
// the tree until a config file is found.
func (m *Manager) Load() (*Document, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return m.LoadFrom(cwd)
}

// LoadFrom loads configuration starting from startDir, walking up the tree.
// When no config file exists an empty document is returned, not an error.
func (m *Manager) LoadFrom(startDir string) (*Document, string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	currentDir := absDir
	for {
		configPath := filepath.Join(currentDir, Filename)
		if _, err := os.Stat(configPath); err == nil {
			doc, err := m.LoadFile(configPath)
			if err != nil {
				return nil, "", err
			}
			return doc, configPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return &Document{}, "", nil
		}
		currentDir = parentDir
	}
}

// LoadFile loads configuration from a specific path, using the cached parse
// when available.
func (m *Manager) LoadFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if cached, ok := m.cache.Get(abs); ok {
		doc := cached.(Document)
		return &doc, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	m.cache.Set(abs, doc, gocache.DefaultExpiration)
	m.log.Debug("loaded config", zap.String("path", abs), zap.Int("domains", len(doc.Domains)))
	return &doc, nil
}

// SaveTo writes the document to a specific path, creating parent directories
// as needed, and refreshes the cache entry.
func (m *Manager) SaveTo(doc *Document, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(abs, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.cache.Set(abs, *doc, gocache.DefaultExpiration)
	return nil
}

// Save writes the document to the standard filename in the current directory.
func (m *Manager) Save(doc *Document) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	return m.SaveTo(doc, filepath.Join(cwd, Filename))
}

// Invalidate drops all cached parses, forcing the next load to hit disk.
func (m *Manager) Invalidate() {
	m.cache.Flush()
}
