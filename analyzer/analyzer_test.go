package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cittyhq/citty-domains-go/cliexec"
	"github.com/cittyhq/citty-domains-go/config"
	"github.com/cittyhq/citty-domains-go/taxonomy"
)

type fakeRunner struct {
	stdout string
	stderr string
	exit   int
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ ...string) (*cliexec.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &cliexec.Result{Stdout: f.stdout, Stderr: f.stderr, ExitCode: f.exit}, nil
}

const sampleHelp = `My CLI tool

Usage: mycli <command>

Commands:
  infra server create <name>
  infra server list
  dev project create <name>
`

func TestAnalyzeHelpText(t *testing.T) {
	a := New(Options{})
	result := a.Analyze(context.Background(), Source{Type: SourceHelpText, HelpText: sampleHelp})

	assert.Equal(t, []string{"dev", "infra"}, result.Domains)
	assert.Equal(t, []string{"server"}, result.Resources["infra"])
	assert.Equal(t, []string{"project"}, result.Resources["dev"])
	assert.Equal(t, []string{"create", "list"}, result.Actions)
	assert.Contains(t, result.Commands, "infra server create")
	assert.Contains(t, result.Commands, "infra server list")
	assert.Contains(t, result.Commands, "dev project create")
}

func TestParseHelpTextSectionGating(t *testing.T) {
	t.Run("lines before the commands section are ignored", func(t *testing.T) {
		result := taxonomy.NewAnalysisResult()
		ParseHelpText("intro banner text\nabout this tool\nCommands:\n  infra server create\n", result)
		assert.Equal(t, []string{"infra"}, result.Domains)
	})

	t.Run("text without a section marker is parsed whole", func(t *testing.T) {
		result := taxonomy.NewAnalysisResult()
		ParseHelpText("infra server create <name>\ninfra server list\ndev project create <name>\n", result)
		result.Normalize()
		assert.Equal(t, []string{"dev", "infra"}, result.Domains)
		assert.Equal(t, []string{"server"}, result.Resources["infra"])
		assert.Equal(t, []string{"project"}, result.Resources["dev"])
		assert.Equal(t, []string{"create", "list"}, result.Actions)
	})

	t.Run("separator and blank lines are skipped", func(t *testing.T) {
		result := taxonomy.NewAnalysisResult()
		ParseHelpText("Commands:\n\n----------\n=====\n  infra server create\n", result)
		assert.Equal(t, []string{"infra"}, result.Domains)
	})
}

func TestTwoTokenDisambiguation(t *testing.T) {
	t.Run("known action verb binds resource to the default domain", func(t *testing.T) {
		for _, verb := range []string{"create", "list", "delete", "deploy", "backup"} {
			result := taxonomy.NewAnalysisResult()
			ParseHelpText(fmt.Sprintf("Commands:\n  server %s\n", verb), result)
			assert.Equal(t, []string{"default"}, result.Domains, "verb %s", verb)
			assert.Equal(t, []string{"server"}, result.Resources["default"], "verb %s", verb)
			assert.Contains(t, result.Actions, verb)
		}
	})

	t.Run("unknown second token makes a domain resource pair", func(t *testing.T) {
		result := taxonomy.NewAnalysisResult()
		ParseHelpText("Commands:\n  infra server\n", result)
		assert.Equal(t, []string{"infra"}, result.Domains)
		assert.Equal(t, []string{"server"}, result.Resources["infra"])
		assert.Empty(t, result.Actions)
	})
}

func TestSingleTokenIsDomainOnly(t *testing.T) {
	result := taxonomy.NewAnalysisResult()
	ParseHelpText("Commands:\n  monitoring\n", result)
	assert.Equal(t, []string{"monitoring"}, result.Domains)
	assert.Empty(t, result.Resources["monitoring"])
}

func TestHelpLineDescriptions(t *testing.T) {
	result := taxonomy.NewAnalysisResult()
	ParseHelpText("Commands:\n  infra server create    Provision a new server\n  dev project create - Create a project\n", result)
	assert.Equal(t, "Provision a new server", result.Commands["infra server create"].Description)
	assert.Equal(t, "Create a project", result.Commands["dev project create"].Description)
}

func TestParseScripts(t *testing.T) {
	result := taxonomy.NewAnalysisResult()
	ParseScripts(map[string]string{
		"infra:server:create": "node scripts/create-server.js",
		"infra:server":        "node scripts/server.js",
		"clean":               "rimraf dist",
	}, result)
	result.Normalize()

	assert.Equal(t, []string{"clean", "infra"}, result.Domains)
	assert.Equal(t, []string{"server"}, result.Resources["infra"])
	assert.Equal(t, []string{"create"}, result.Actions)
	assert.Equal(t, "node scripts/create-server.js", result.Commands["infra server create"].Description)
	assert.Empty(t, result.Resources["clean"])
}

func TestAnalyzeFailingSourceDegrades(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("spawn failed")}
	a := New(Options{Runner: runner})

	result := a.Analyze(context.Background(),
		Source{Name: "broken", Type: SourceCLIHelp, CLIPath: "/bin/mycli"},
		Source{Type: SourceHelpText, HelpText: sampleHelp},
	)

	// The healthy source still contributed.
	assert.Contains(t, result.Domains, "infra")
	require.Len(t, result.Metadata.Errors, 1)
	assert.Equal(t, "broken", result.Metadata.Errors[0].Source)
}

func TestAnalyzeCLIExitAndEmptyOutput(t *testing.T) {
	t.Run("nonzero exit is no usable output", func(t *testing.T) {
		a := New(Options{Runner: &fakeRunner{stdout: sampleHelp, exit: 127}})
		result := a.Analyze(context.Background(), Source{Type: SourceCLIHelp, CLIPath: "x"})
		assert.Empty(t, result.Domains)
		assert.Len(t, result.Metadata.Errors, 1)
	})

	t.Run("stderr output is used when stdout is empty", func(t *testing.T) {
		a := New(Options{Runner: &fakeRunner{stderr: sampleHelp}})
		result := a.Analyze(context.Background(), Source{Type: SourceCLIHelp, CLIPath: "x"})
		assert.Contains(t, result.Domains, "infra")
	})
}

func TestAnalyzeCLICache(t *testing.T) {
	runner := &fakeRunner{stdout: sampleHelp}
	a := New(Options{Runner: runner})
	src := Source{Type: SourceCLIHelp, CLIPath: "/bin/mycli"}

	a.Analyze(context.Background(), src)
	a.Analyze(context.Background(), src)
	assert.Equal(t, 1, runner.calls)

	// A different arg vector is a different cache entry.
	a.Analyze(context.Background(), Source{Type: SourceCLIHelp, CLIPath: "/bin/mycli", Args: []string{"help"}})
	assert.Equal(t, 2, runner.calls)
}

func TestAnalyzeConfigSource(t *testing.T) {
	m := config.NewManager(nil)
	path := filepath.Join(t.TempDir(), config.Filename)
	require.NoError(t, m.SaveTo(&config.Document{
		Domains: map[string]taxonomy.Domain{
			"infra": {
				Name:      "infra",
				Resources: []taxonomy.Resource{{Name: "server", Actions: []string{"create"}}},
				Actions:   []taxonomy.Action{{Name: "create"}},
			},
		},
	}, path))

	a := New(Options{Configs: m})
	result := a.Analyze(context.Background(), Source{Type: SourceConfigFile, ConfigPath: path})

	assert.Equal(t, []string{"infra"}, result.Domains)
	assert.Equal(t, []string{"server"}, result.Resources["infra"])
	assert.Contains(t, result.Commands, "infra server create")
}

func TestAnalyzeEnvSource(t *testing.T) {
	a := New(Options{})
	result := a.Analyze(context.Background(), Source{
		Type: SourceEnv,
		Environ: []string{
			"CITTY_DOMAIN_INFRA_RESOURCES=server",
			"CITTY_DOMAIN_INFRA_ACTIONS=create",
		},
	})
	assert.Equal(t, []string{"infra"}, result.Domains)
	assert.Equal(t, []string{"server"}, result.Resources["infra"])
	assert.Contains(t, result.Actions, "create")
}
