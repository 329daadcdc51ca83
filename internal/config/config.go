// Package config loads ecsgen settings from ecsgen.toml, ECSGEN_* environment
// variables and defaults, in increasing order of precedence: defaults, file,
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/output"
	"martianoff/ecsgen/internal/source"
)

// FileName is the project configuration file searched for.
const FileName = "ecsgen.toml"

// Config is the full configuration.
type Config struct {
	Framework FrameworkConfig `mapstructure:"framework"`
	Markers   MarkersConfig   `mapstructure:"markers"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Log       LogConfig       `mapstructure:"log"`
}

// FrameworkConfig names the runtime package generated code calls into.
type FrameworkConfig struct {
	Package string `mapstructure:"package"`
	Name    string `mapstructure:"name"`
}

// MarkersConfig holds the simple names of the marker types.
type MarkersConfig struct {
	Capability          string `mapstructure:"capability"`
	CollectionComponent string `mapstructure:"collection_component"`
	ManagedComponent    string `mapstructure:"managed_component"`
	Behavior            string `mapstructure:"behavior"`
	Authoring           string `mapstructure:"authoring"`
}

// MatcherConfig controls declaration matching.
type MatcherConfig struct {
	RequiredModifier string `mapstructure:"required_modifier"`
	DirectivePrefix  string `mapstructure:"directive_prefix"`
}

// GenerateConfig controls emission.
type GenerateConfig struct {
	Workers     int    `mapstructure:"workers"`
	Trampolines bool   `mapstructure:"trampolines"`
	Registry    bool   `mapstructure:"registry"`
	Header      string `mapstructure:"header"`
	Suffix      string `mapstructure:"suffix"`
}

// GraphConfig locates the Neo4j instance used by `ecsgen graph`.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Batch    int    `mapstructure:"batch"`
}

// LogConfig controls the logger.
type LogConfig struct {
	JSON      bool `mapstructure:"json"`
	Verbosity int  `mapstructure:"verbosity"`
}

// SetDefaults configures default values for all options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("framework.package", "martianoff/ecs")
	v.SetDefault("framework.name", "ecs")

	v.SetDefault("markers.capability", "Capability")
	v.SetDefault("markers.collection_component", "CollectionComponent")
	v.SetDefault("markers.managed_component", "ManagedComponent")
	v.SetDefault("markers.behavior", "Behavior")
	v.SetDefault("markers.authoring", "Authoring")

	v.SetDefault("matcher.required_modifier", "partial")
	v.SetDefault("matcher.directive_prefix", "ecs:")

	v.SetDefault("generate.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("generate.trampolines", true)
	v.SetDefault("generate.registry", true)
	v.SetDefault("generate.header", emit.DefaultHeader)
	v.SetDefault("generate.suffix", emit.DefaultSuffix)

	v.SetDefault("graph.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.user", "neo4j")
	v.SetDefault("graph.database", "neo4j")
	v.SetDefault("graph.batch", 500)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// New creates a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ECSGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An explicit path must exist; otherwise
// ecsgen.toml is searched for upward from dir and is optional.
func Load(path, dir string) (*Config, error) {
	v := New()
	if path == "" {
		path = FindProjectConfig(dir)
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates a prepared viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make generation meaningless.
func (c *Config) Validate() error {
	if c.Framework.Package == "" {
		return fmt.Errorf("framework.package must not be empty")
	}
	if c.Generate.Workers < 1 {
		return fmt.Errorf("generate.workers must be at least 1, got %d", c.Generate.Workers)
	}
	if first, _, _ := strings.Cut(c.Generate.Header, "\n"); !output.IsGeneratedHeader(first) {
		return fmt.Errorf("generate.header must start with a \"// Code generated ... DO NOT EDIT.\" line, got %q", first)
	}
	if !strings.HasSuffix(c.Generate.Suffix, ".go") {
		return fmt.Errorf("generate.suffix must end in .go, got %q", c.Generate.Suffix)
	}
	for key, name := range map[string]string{
		"markers.capability":           c.Markers.Capability,
		"markers.collection_component": c.Markers.CollectionComponent,
		"markers.managed_component":    c.Markers.ManagedComponent,
		"markers.behavior":             c.Markers.Behavior,
		"markers.authoring":            c.Markers.Authoring,
	} {
		if name == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	return nil
}

// FrameworkName returns the runtime package name, defaulting to the last
// path element.
func (c *Config) FrameworkName() string {
	if c.Framework.Name != "" {
		return c.Framework.Name
	}
	return filepath.Base(c.Framework.Package)
}

// Runtime returns the runtime package.
func (c *Config) Runtime() source.Package {
	return source.Package{Path: c.Framework.Package, Name: c.FrameworkName()}
}

// StageMarkers returns the stage matching configuration.
func (c *Config) StageMarkers() generator.Markers {
	return generator.Markers{
		Framework:           c.Runtime(),
		Capability:          c.Markers.Capability,
		CollectionComponent: c.Markers.CollectionComponent,
		ManagedComponent:    c.Markers.ManagedComponent,
		Behavior:            c.Markers.Behavior,
		Authoring:           c.Markers.Authoring,
		RequiredModifier:    c.Matcher.RequiredModifier,
	}
}

// EmitOptions returns the emitter configuration.
func (c *Config) EmitOptions() emit.Options {
	opts := emit.DefaultOptions()
	opts.Framework = c.Runtime()
	opts.Trampolines = c.Generate.Trampolines
	opts.Suffix = c.Generate.Suffix
	if c.Generate.Header != "" {
		opts.Header = strings.Split(c.Generate.Header, "\n")
	}
	return opts
}

// FindProjectConfig walks up from dir looking for ecsgen.toml.
func FindProjectConfig(dir string) string {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
