package loader

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

func candidateSource(domain, resource, action string) Source {
	return Source{
		Enabled: true,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			r := taxonomy.NewAnalysisResult()
			r.AddResource(domain, resource)
			r.AddAction(action)
			r.AddCommand(taxonomy.Command{Domain: domain, Resource: resource, Action: action})
			return r, nil
		},
	}
}

func TestRegisterSource(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.RegisterSource("one", candidateSource("a", "b", "c")))

	t.Run("empty name rejected", func(t *testing.T) {
		assert.Error(t, l.RegisterSource("", candidateSource("a", "b", "c")))
	})

	t.Run("nil loader rejected", func(t *testing.T) {
		assert.Error(t, l.RegisterSource("bad", Source{Enabled: true}))
	})

	t.Run("re-registering keeps registration order", func(t *testing.T) {
		require.NoError(t, l.RegisterSource("two", candidateSource("x", "y", "z")))
		require.NoError(t, l.RegisterSource("one", candidateSource("a", "b", "c")))
		assert.Equal(t, []string{"one", "two"}, l.Sources())
	})
}

func TestLoadAllMergesInPriorityOrder(t *testing.T) {
	l := New(nil)

	low := candidateSource("infra", "server", "create")
	low.Priority = 1
	low.Load = func(context.Context) (*taxonomy.AnalysisResult, error) {
		r := taxonomy.NewAnalysisResult()
		r.AddCommand(taxonomy.Command{Domain: "infra", Resource: "server", Action: "create", Description: "from low"})
		return r, nil
	}

	high := Source{
		Enabled:  true,
		Priority: 10,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			r := taxonomy.NewAnalysisResult()
			r.AddResource("infra", "server")
			r.AddCommand(taxonomy.Command{Domain: "infra", Resource: "server", Action: "create", Description: "from high"})
			return r, nil
		},
	}

	require.NoError(t, l.RegisterSource("low", low))
	require.NoError(t, l.RegisterSource("high", high))

	result, err := l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)

	// High priority is applied first, so the low-priority source wrote last.
	assert.Equal(t, []string{"high", "low"}, result.Metadata.Sources)
	assert.Equal(t, "from low", result.Commands["infra server create"].Description)
}

func TestLoadAllIsolatesFailingSource(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.RegisterSource("good-a", candidateSource("infra", "server", "create")))
	require.NoError(t, l.RegisterSource("broken", Source{
		Enabled: true,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			return nil, fmt.Errorf("boom")
		},
	}))
	require.NoError(t, l.RegisterSource("good-b", candidateSource("dev", "project", "create")))

	result, err := l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"dev", "infra"}, result.Domains)
	require.Len(t, result.Metadata.Errors, 1)
	assert.Equal(t, "broken", result.Metadata.Errors[0].Source)
	assert.Contains(t, result.Metadata.Errors[0].Err, "boom")
}

func TestLoadAllIsolatesPanickingSource(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.RegisterSource("panicky", Source{
		Enabled: true,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			panic("unexpected")
		},
	}))
	require.NoError(t, l.RegisterSource("good", candidateSource("infra", "server", "create")))

	result, err := l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)
	assert.Contains(t, result.Domains, "infra")
	require.Len(t, result.Metadata.Errors, 1)
	assert.Equal(t, "panicky", result.Metadata.Errors[0].Source)
}

func TestLoadAllSourceValidator(t *testing.T) {
	l := New(nil)
	src := candidateSource("infra", "server", "create")
	src.Validate = func(r *taxonomy.AnalysisResult) bool { return false }
	require.NoError(t, l.RegisterSource("rejected", src))

	result, err := l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Domains)
	require.Len(t, result.Metadata.Errors, 1)
}

func TestLoadAllDisabledAndFiltered(t *testing.T) {
	l := New(nil)
	disabled := candidateSource("a", "b", "c")
	disabled.Enabled = false
	require.NoError(t, l.RegisterSource("disabled", disabled))
	require.NoError(t, l.RegisterSource("wanted", candidateSource("infra", "server", "create")))
	require.NoError(t, l.RegisterSource("unwanted", candidateSource("dev", "project", "create")))

	result, err := l.LoadAll(context.Background(), Options{Sources: []string{"wanted", "disabled"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"infra"}, result.Domains)
	assert.Equal(t, []string{"wanted"}, result.Metadata.Sources)
}

func TestLoadAllCache(t *testing.T) {
	l := New(nil)
	calls := 0
	require.NoError(t, l.RegisterSource("counted", Source{
		Enabled: true,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			calls++
			r := taxonomy.NewAnalysisResult()
			r.AddDomain("infra")
			return r, nil
		},
	}))

	_, err := l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)
	_, err = l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = l.LoadAll(context.Background(), Options{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	l.Invalidate()
	_, err = l.LoadAll(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSetEnabled(t *testing.T) {
	l := New(nil)
	src := candidateSource("infra", "server", "create")
	src.Enabled = false
	require.NoError(t, l.RegisterSource("toggle", src))
	assert.Error(t, l.SetEnabled("missing", true))

	require.NoError(t, l.SetEnabled("toggle", true))
	result, err := l.LoadAll(context.Background(), Options{ForceRefresh: true})
	require.NoError(t, err)
	assert.Contains(t, result.Domains, "infra")
}
