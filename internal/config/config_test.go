package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadWithViper(New())
	require.NoError(t, err)

	assert.Equal(t, "martianoff/ecs", cfg.Framework.Package)
	assert.Equal(t, "ecs", cfg.FrameworkName())
	assert.Equal(t, "Capability", cfg.Markers.Capability)
	assert.Equal(t, "partial", cfg.Matcher.RequiredModifier)
	assert.Equal(t, ".gen.go", cfg.Generate.Suffix)
	assert.True(t, cfg.Generate.Trampolines)
	assert.GreaterOrEqual(t, cfg.Generate.Workers, 1)
}

func TestProjectFileIsFoundUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "game", "combat")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`
[framework]
package = "example.com/engine/ecs"

[generate]
workers = 3
trampolines = false
`), 0o644))

	assert.Equal(t, filepath.Join(root, FileName), FindProjectConfig(nested))

	cfg, err := Load("", nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/engine/ecs", cfg.Framework.Package)
	assert.Equal(t, "ecs", cfg.FrameworkName())
	assert.Equal(t, 3, cfg.Generate.Workers)
	assert.False(t, cfg.Generate.Trampolines)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("[generate]\nworkers = 2\n"), 0o644))
	t.Setenv("ECSGEN_GENERATE_WORKERS", "7")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Generate.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no framework", func(c *Config) { c.Framework.Package = "" }, "framework.package"},
		{"no workers", func(c *Config) { c.Generate.Workers = 0 }, "generate.workers"},
		{"bad suffix", func(c *Config) { c.Generate.Suffix = ".gen" }, "generate.suffix"},
		{"empty marker", func(c *Config) { c.Markers.Behavior = "" }, "markers.behavior"},
		{"bad header", func(c *Config) { c.Generate.Header = "// generated" }, "generate.header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithViper(New())
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), "")
	assert.Error(t, err)
}

func TestDerivedOptions(t *testing.T) {
	v := New()
	v.Set("framework.package", "example.com/engine/runtime")
	v.Set("framework.name", "rt")
	v.Set("generate.trampolines", false)
	v.Set("generate.header", "// Code generated by ecsgen. DO NOT EDIT.\n// Source: game")
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	m := cfg.StageMarkers()
	assert.Equal(t, "example.com/engine/runtime", m.Framework.Path)
	assert.Equal(t, "rt", m.Framework.Name)
	assert.Equal(t, "Authoring", m.Authoring)
	assert.Equal(t, "partial", m.RequiredModifier)

	opts := cfg.EmitOptions()
	assert.Equal(t, m.Framework, opts.Framework)
	assert.False(t, opts.Trampolines)
	assert.Equal(t, []string{"// Code generated by ecsgen. DO NOT EDIT.", "// Source: game"}, opts.Header)
}
