// Package output writes generated units and keeps generated trees tidy.
package output

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/logger"
)

// DirSink writes each unit next to its source package.
type DirSink struct {
	// DryRun logs what would be written without touching the disk.
	DryRun bool
}

// AddSource implements generator.Sink.
func (s *DirSink) AddSource(u *generator.Unit) error {
	info, err := os.Stat(u.Dir)
	if err != nil {
		return errors.Wrapf(err, "package directory of %s", u.Name)
	}
	if !info.IsDir() {
		return errors.Newf("%s is not a directory", u.Dir)
	}
	path := u.Path()
	if s.DryRun {
		logger.Logger.Infow("would write", "path", path, "bytes", len(u.Source))
		return nil
	}
	if err := os.WriteFile(path, u.Source, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	logger.Logger.Debugw("wrote", "path", path, "bytes", len(u.Source))
	return nil
}

// MemorySink keeps units in memory.
type MemorySink struct {
	mu    sync.Mutex
	units []*generator.Unit
}

// AddSource implements generator.Sink.
func (s *MemorySink) AddSource(u *generator.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, u)
	return nil
}

// Units returns what was added, in order.
func (s *MemorySink) Units() []*generator.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*generator.Unit, len(s.units))
	copy(out, s.units)
	return out
}

// DriftKind classifies a mismatch between generated and on-disk output.
type DriftKind int

const (
	DriftMissing DriftKind = iota
	DriftStale
	DriftOrphan
)

func (k DriftKind) String() string {
	switch k {
	case DriftMissing:
		return "missing"
	case DriftStale:
		return "stale"
	}
	return "orphan"
}

// Drift is one file that differs from what generation produces.
type Drift struct {
	Path string
	Kind DriftKind
}

func (d Drift) String() string {
	return d.Kind.String() + ": " + d.Path
}

// Compare reports units whose file is missing or differs, plus generated
// files in the units' directories that no unit produces. Results are
// sorted by path.
func Compare(units []*generator.Unit, suffix string) ([]Drift, error) {
	var drift []Drift
	expected := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, u := range units {
		path := u.Path()
		expected[path] = true
		dirs[u.Dir] = true
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			drift = append(drift, Drift{Path: path, Kind: DriftMissing})
		case err != nil:
			return nil, errors.Wrapf(err, "reading %s", path)
		case !bytes.Equal(data, u.Source):
			drift = append(drift, Drift{Path: path, Kind: DriftStale})
		}
	}
	for dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", dir)
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() || expected[path] || !isGeneratedName(e.Name(), suffix) {
				continue
			}
			ok, err := IsGenerated(path)
			if err != nil {
				return nil, err
			}
			if ok {
				drift = append(drift, Drift{Path: path, Kind: DriftOrphan})
			}
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].Path < drift[j].Path })
	return drift, nil
}

func isGeneratedName(name, suffix string) bool {
	return strings.HasSuffix(name, suffix) || name == emit.RegistryFile
}

var generatedHeader = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// IsGeneratedHeader reports whether line is a Go generated-code marker.
func IsGeneratedHeader(line string) bool {
	return generatedHeader.MatchString(strings.TrimSpace(line))
}

// IsGenerated reports whether the first line of path marks generated code.
func IsGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return IsGeneratedHeader(sc.Text()), nil
}

// Clean removes every generated file under root and returns their paths.
// Hidden directories and vendor are skipped.
func Clean(root, suffix string, dryRun bool) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isGeneratedName(d.Name(), suffix) {
			return nil
		}
		ok, err := IsGenerated(path)
		if err != nil || !ok {
			return err
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				return errors.Wrapf(err, "removing %s", path)
			}
		}
		removed = append(removed, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
