package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDomain() Domain {
	return Domain{
		Name:        "infra",
		DisplayName: "Infrastructure",
		Resources: []Resource{
			{Name: "server", Actions: []string{"create", "list"}, Relationships: []string{"network"}},
			{Name: "network", Actions: []string{"create"}, Relationships: []string{"server"}},
		},
		Actions: []Action{
			{Name: "create", Requires: []string{"name"}},
			{Name: "list"},
		},
		Sources: []string{"cli-help"},
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "infra server create", Command{Domain: "infra", Resource: "server", Action: "create"}.String())
	assert.Equal(t, "infra server", Command{Domain: "infra", Resource: "server"}.String())
	assert.Equal(t, "infra", Command{Domain: "infra"}.String())
}

func TestImpliedCommands(t *testing.T) {
	d := sampleDomain()
	cmds := d.ImpliedCommands()
	require.Len(t, cmds, 4)
	assert.Equal(t, "infra server create", cmds[0].String())
	assert.Equal(t, "infra network list", cmds[3].String())
}

func TestDomainClone(t *testing.T) {
	d := sampleDomain()
	c := d.Clone()
	c.Resources[0].Actions[0] = "mutated"
	c.Sources[0] = "mutated"
	assert.Equal(t, "create", d.Resources[0].Actions[0])
	assert.Equal(t, "cli-help", d.Sources[0])
}

func TestAnalysisResultAccumulation(t *testing.T) {
	r := NewAnalysisResult()
	r.AddDomain("infra")
	r.AddDomain("infra")
	r.AddResource("infra", "server")
	r.AddResource("infra", "server")
	r.AddResource("dev", "project")
	r.AddAction("create")
	r.AddAction("create")
	r.AddCommand(Command{Domain: "infra", Resource: "server", Action: "create"})
	r.Normalize()

	assert.Equal(t, []string{"dev", "infra"}, r.Domains)
	assert.Equal(t, []string{"server"}, r.Resources["infra"])
	assert.Equal(t, []string{"create"}, r.Actions)
	assert.Equal(t, 2, r.Metadata.DomainCount)
	assert.Equal(t, 2, r.Metadata.ResourceCount)
	assert.Equal(t, 1, r.Metadata.CommandCount)
}

func TestAnalysisResultMerge(t *testing.T) {
	a := NewAnalysisResult()
	a.AddResource("infra", "server")
	a.AddCommand(Command{Domain: "infra", Resource: "server", Action: "create", Description: "first"})
	a.Metadata.Sources = []string{"one"}

	b := NewAnalysisResult()
	b.AddResource("infra", "network")
	b.AddResource("dev", "project")
	b.AddCommand(Command{Domain: "infra", Resource: "server", Action: "create", Description: "second"})
	b.Metadata.Sources = []string{"two"}

	a.Merge(b)
	a.Normalize()

	assert.Equal(t, []string{"dev", "infra"}, a.Domains)
	assert.Equal(t, []string{"network", "server"}, a.Resources["infra"])
	// Last write wins for the same command string.
	assert.Equal(t, "second", a.Commands["infra server create"].Description)
	assert.Equal(t, []string{"one", "two"}, a.Metadata.Sources)
}

func TestCheckDomain(t *testing.T) {
	t.Run("valid domain with undeclared resource action warns", func(t *testing.T) {
		d := sampleDomain()
		d.Resources[0].Actions = append(d.Resources[0].Actions, "explode")
		warnings, err := CheckDomain(d)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "explode")
	})

	t.Run("missing domain name is an error", func(t *testing.T) {
		_, err := CheckDomain(Domain{})
		assert.Error(t, err)
	})

	t.Run("resource without a name is an error", func(t *testing.T) {
		d := sampleDomain()
		d.Resources = append(d.Resources, Resource{})
		_, err := CheckDomain(d)
		assert.Error(t, err)
	})

	t.Run("duplicate resource names are an error", func(t *testing.T) {
		d := sampleDomain()
		d.Resources = append(d.Resources, Resource{Name: "server"})
		_, err := CheckDomain(d)
		assert.Error(t, err)
	})

	t.Run("action without a name is an error", func(t *testing.T) {
		d := sampleDomain()
		d.Actions = append(d.Actions, Action{})
		_, err := CheckDomain(d)
		assert.Error(t, err)
	})
}
