// Package testutil locates shared test fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
	"github.com/stretchr/testify/require"

	"martianoff/ecsgen/internal/source/manifest"
)

// RepoRoot returns the module root. Under Bazel it is derived from runfiles;
// otherwise it walks up from the working directory to go.mod.
func RepoRoot() string {
	if p, err := bazel.Runfile("testdata/manifests/game.yaml"); err == nil {
		return filepath.Dir(filepath.Dir(filepath.Dir(p)))
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Testdata returns the absolute path of a file under the repository testdata
// directory.
func Testdata(t testing.TB, rel string) string {
	t.Helper()
	root := RepoRoot()
	require.NotEmpty(t, root, "module root not found")
	return filepath.Join(root, "testdata", rel)
}

// Manifest loads testdata/manifests/<name>.
func Manifest(t testing.TB, name string) *manifest.Host {
	t.Helper()
	h, err := manifest.Load(Testdata(t, filepath.Join("manifests", name)))
	require.NoError(t, err)
	return h
}

// ParseManifest builds a host from inline YAML.
func ParseManifest(t testing.TB, yamlText string) *manifest.Host {
	t.Helper()
	h, err := manifest.Parse([]byte(yamlText), "")
	require.NoError(t, err)
	return h
}
