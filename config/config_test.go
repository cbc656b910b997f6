package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	m := NewManager(nil)
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)

	doc := &Document{
		Domains: map[string]taxonomy.Domain{
			"infra": {
				Name: "infra",
				Resources: []taxonomy.Resource{
					{Name: "server", Actions: []string{"create", "list"}},
				},
				Actions: []taxonomy.Action{{Name: "create"}, {Name: "list"}},
			},
		},
		Discovery:  DiscoveryConfig{Enabled: true, Sources: []string{"cli-help"}, CLIPath: "./mycli"},
		Validation: ValidationConfig{Strict: true, FallbackStrategy: "error"},
		Plugins:    PluginConfig{Enabled: true, Directory: "./plugins", Pattern: "*.plugin.yaml"},
	}

	require.NoError(t, m.SaveTo(doc, path))

	loaded, err := m.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Domains["infra"].Resources, loaded.Domains["infra"].Resources)
	assert.Equal(t, "error", loaded.Validation.FallbackStrategy)
	assert.Equal(t, "./mycli", loaded.Discovery.CLIPath)
}

func TestLoadFromWalksUp(t *testing.T) {
	m := NewManager(nil)
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	doc := &Document{Discovery: DiscoveryConfig{Enabled: true}}
	require.NoError(t, m.SaveTo(doc, filepath.Join(root, Filename)))

	loaded, path, err := m.LoadFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, Filename), path)
	assert.True(t, loaded.Discovery.Enabled)
}

func TestLoadFromMissingIsNotAnError(t *testing.T) {
	m := NewManager(nil)
	loaded, path, err := m.LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, loaded.Domains)
}

func TestLoadFileUsesCache(t *testing.T) {
	m := NewManager(nil)
	path := filepath.Join(t.TempDir(), Filename)
	require.NoError(t, m.SaveTo(&Document{Discovery: DiscoveryConfig{Enabled: true}}, path))

	first, err := m.LoadFile(path)
	require.NoError(t, err)

	// Remove the file; the cached parse must still serve.
	require.NoError(t, os.Remove(path))
	second, err := m.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	m.Invalidate()
	_, err = m.LoadFile(path)
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	for _, name := range []string{"minimal", "enterprise", "development"} {
		t.Run(name, func(t *testing.T) {
			doc, err := Builtin(name)
			require.NoError(t, err)
			assert.True(t, doc.Discovery.Enabled)
			assert.NotEmpty(t, doc.Discovery.Sources)
		})
	}

	t.Run("enterprise is strict with error fallback", func(t *testing.T) {
		doc, err := Builtin("enterprise")
		require.NoError(t, err)
		assert.True(t, doc.Validation.Strict)
		assert.Equal(t, "error", doc.Validation.FallbackStrategy)
		assert.True(t, doc.Plugins.Enabled)
	})

	t.Run("unknown name errors", func(t *testing.T) {
		_, err := Builtin("galactic")
		assert.Error(t, err)
	})
}

func TestParseEnvDomains(t *testing.T) {
	t.Run("field keys populate domain config", func(t *testing.T) {
		domains := ParseEnvDomains([]string{
			"CITTY_DOMAIN_INFRA_DESCRIPTION=Infrastructure management",
			"CITTY_DOMAIN_INFRA_DISPLAY_NAME=Infra",
			"CITTY_DOMAIN_INFRA_RESOURCES=server,network",
			"CITTY_DOMAIN_INFRA_ACTIONS=create,list",
			"UNRELATED=1",
		})
		require.Contains(t, domains, "infra")
		d := domains["infra"]
		assert.Equal(t, "Infrastructure management", d.Description)
		assert.Equal(t, "Infra", d.DisplayName)
		require.Len(t, d.Resources, 2)
		assert.Equal(t, "server", d.Resources[0].Name)
		require.Len(t, d.Actions, 2)
	})

	t.Run("bare structured value becomes whole domain", func(t *testing.T) {
		domains := ParseEnvDomains([]string{
			`CITTY_DOMAIN_DEV={"description":"Dev tools","resources":[{"name":"project","actions":["create"]}],"actions":["create"]}`,
		})
		require.Contains(t, domains, "dev")
		d := domains["dev"]
		assert.Equal(t, "Dev tools", d.Description)
		require.Len(t, d.Resources, 1)
		assert.Equal(t, []string{"create"}, d.Resources[0].Actions)
	})

	t.Run("bare plain value becomes simple named domain", func(t *testing.T) {
		domains := ParseEnvDomains([]string{"CITTY_DOMAIN_OPS=enabled"})
		require.Contains(t, domains, "ops")
		assert.Empty(t, domains["ops"].Resources)
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	doc := &Document{}
	ApplyEnvOverrides(doc, []string{"CITTY_DOMAIN_INFRA_CATEGORY=platform"})
	require.Contains(t, doc.Domains, "infra")
	assert.Equal(t, "platform", doc.Domains["infra"].Category)
}
