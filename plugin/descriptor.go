package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Descriptor is the on-disk yaml form of a plugin. Descriptors are purely
// declarative: they contribute domains and resource/action extensions, never
// executable hooks.
type Descriptor struct {
	Name    string                     `yaml:"name"`
	Version string                     `yaml:"version"`
	Domains map[string]taxonomy.Domain `yaml:"domains,omitempty"`

	Extensions []DescriptorExtension `yaml:"extensions,omitempty"`
}

// DescriptorExtension is the declarative subset of Extension.
type DescriptorExtension struct {
	Domain    string              `yaml:"domain"`
	Resources []taxonomy.Resource `yaml:"resources,omitempty"`
	Actions   []taxonomy.Action   `yaml:"actions,omitempty"`
}

// LoadError records one descriptor file that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("plugin descriptor %s: %v", e.Path, e.Err)
}

// LoadFromDirectory reads every descriptor file in dir whose base name
// matches pattern (filepath.Match syntax, e.g. "*.plugin.yaml") and registers
// it. Bad descriptors are skipped and reported in the returned slice; they
// never abort the scan.
func (s *System) LoadFromDirectory(dir, pattern string) (int, []LoadError) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, []LoadError{{Path: dir, Err: err}}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, matchErr := filepath.Match(pattern, entry.Name())
		if matchErr != nil {
			return 0, []LoadError{{Path: dir, Err: matchErr}}
		}
		if matched {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	var failures []LoadError
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := s.loadDescriptor(path); err != nil {
			s.log.Warn("skipping plugin descriptor", zap.String("path", path), zap.Error(err))
			failures = append(failures, LoadError{Path: path, Err: err})
			continue
		}
		loaded++
	}
	return loaded, failures
}

func (s *System) loadDescriptor(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var desc Descriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if desc.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}

	p := Plugin{
		Name:    desc.Name,
		Version: desc.Version,
		Domains: desc.Domains,
	}
	for _, ext := range desc.Extensions {
		p.Extensions = append(p.Extensions, Extension{
			Domain:    ext.Domain,
			Resources: ext.Resources,
			Actions:   ext.Actions,
		})
	}
	return s.Register(p)
}
