package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, gomod string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte(gomod), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "game", "combat"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "game", "combat", "turret.go"), []byte("package combat\n"), 0o644))
	return root
}

func TestFindRoot(t *testing.T) {
	root := writeModule(t, "// comment\nmodule example.com/game\n\ngo 1.25\n")

	tests := []struct {
		name  string
		start string
	}{
		{"root", root},
		{"nested dir", filepath.Join(root, "game", "combat")},
		{"file", filepath.Join(root, "game", "combat", "turret.go")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRoot, gotPath := FindRoot(tt.start)
			assert.Equal(t, root, gotRoot)
			assert.Equal(t, "example.com/game", gotPath)
		})
	}
}

func TestFindRootQuotedPath(t *testing.T) {
	root := writeModule(t, "module \"example.com/quoted\"\n")
	_, path := FindRoot(root)
	assert.Equal(t, "example.com/quoted", path)
}

func TestFindNonExistent(t *testing.T) {
	_, err := Find("/nonexistent/path/that/does/not/exist")
	assert.ErrorIs(t, err, ErrNoModule)
}

func TestDirAndImportPath(t *testing.T) {
	root := writeModule(t, "module example.com/game\n")
	m, err := Find(root)
	require.NoError(t, err)

	dir, err := m.Dir("example.com/game/game/combat")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "game", "combat"), dir)

	_, err = m.Dir("example.com/other/combat")
	assert.ErrorContains(t, err, "outside module")
	_, err = m.Dir("example.com/game/missing")
	assert.ErrorContains(t, err, "package not found")

	path, err := m.ImportPath(filepath.Join(root, "game", "combat"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/game/game/combat", path)

	path, err = m.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/game", path)

	_, err = m.ImportPath(filepath.Dir(root))
	assert.Error(t, err)

	assert.Equal(t, filepath.Join("game", "combat", "turret.go"), m.Rel(filepath.Join(root, "game", "combat", "turret.go")))
	assert.Equal(t, "/elsewhere/x.go", m.Rel("/elsewhere/x.go"))
}
