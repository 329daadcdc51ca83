package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	write(t, root, "go.mod", "module example.com/game\n")
	write(t, root, "combat/turret.go", "package combat\n")
	write(t, root, "physics/body.go", "package physics\n")

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)
	return root
}

func TestOpenFromSubdirectory(t *testing.T) {
	root := initRepo(t)

	r, err := Open(filepath.Join(root, "combat"))
	require.NoError(t, err)
	assert.Equal(t, root, r.Root())
	assert.Len(t, r.Head(), 12)

	got, err := RepoRoot(filepath.Join(root, "physics"))
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestOpenOutsideRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestChangedDirs(t *testing.T) {
	root := initRepo(t)
	r, err := Open(root)
	require.NoError(t, err)

	dirs, err := r.ChangedDirs(".gen.go")
	require.NoError(t, err)
	assert.Empty(t, dirs)

	write(t, root, "combat/turret.go", "package combat\n\ntype Turret interface{}\n")
	write(t, root, "ai/brain.go", "package ai\n")
	write(t, root, "physics/body_Body_Behavior.gen.go", "package physics\n")
	write(t, root, "docs/readme.md", "notes\n")

	dirs, err = r.ChangedDirs(".gen.go")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "ai"), filepath.Join(root, "combat")}, dirs)
}
