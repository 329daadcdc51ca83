package commands

import (
	"context"
	"os"
	"path/filepath"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/logger"
	"martianoff/ecsgen/internal/module"
	"martianoff/ecsgen/internal/source"
	"martianoff/ecsgen/internal/source/gohost"
	"martianoff/ecsgen/internal/source/manifest"
)

// sourceFlags select where declarations come from.
type sourceFlags struct {
	manifest string
	workers  int
}

// session is the state shared by commands that run the generator.
type session struct {
	dir  string
	mod  *module.Module
	host source.Host
}

func resolveDir() (string, error) {
	if workDir != "" {
		return filepath.Abs(workDir)
	}
	return os.Getwd()
}

func openSession(ctx context.Context, flags sourceFlags, patterns []string) (*session, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	s := &session{dir: dir}
	if mod, err := module.Find(dir); err == nil {
		s.mod = mod
		logger.Logger.Debugw("module found", "path", mod.Path, "root", mod.Root)
	}

	if flags.manifest != "" {
		h, err := manifest.Load(flags.manifest)
		if err != nil {
			return nil, err
		}
		s.host = h
		return s, nil
	}
	h, err := gohost.Load(ctx, gohost.Config{
		Dir:             dir,
		Patterns:        patterns,
		DirectivePrefix: cfg.Matcher.DirectivePrefix,
	})
	if err != nil {
		return nil, err
	}
	s.host = h
	return s, nil
}

func (s *session) runner(flags sourceFlags, sink generator.Sink, reporter diag.Reporter) *generator.Runner {
	workers := cfg.Generate.Workers
	if flags.workers > 0 {
		workers = flags.workers
	}
	return &generator.Runner{
		Host:     s.host,
		Stages:   generator.DefaultRegistry(cfg.StageMarkers()),
		Sink:     sink,
		Reporter: reporter,
		Logger:   logger.Logger,
		Options:  cfg.EmitOptions(),
		Workers:  workers,
		InitFile: cfg.Generate.Registry,
	}
}

// rel shortens path for display.
func (s *session) rel(path string) string {
	if s.mod != nil {
		return s.mod.Rel(path)
	}
	if rel, err := filepath.Rel(s.dir, path); err == nil {
		return rel
	}
	return path
}
