// Package vcs answers the git questions generation asks: where the
// repository starts and which package directories have uncommitted changes.
package vcs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository encloses a path.
var ErrNotRepository = errors.New("not a git repository")

// Repo is an opened working tree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository enclosing path.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, errors.Wrapf(ErrNotRepository, "%s", abs)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening repository at %s", abs)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "bare repositories are not supported")
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root is the top of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// RepoRoot returns the top of the working tree enclosing path.
func RepoRoot(path string) (string, error) {
	r, err := Open(path)
	if err != nil {
		return "", err
	}
	return r.Root(), nil
}

// Head returns the abbreviated hash of HEAD, or "" before the first commit.
func (r *Repo) Head() string {
	ref, err := r.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()[:12]
}

// ChangedDirs lists the absolute directories holding .go files that are
// modified, added or untracked relative to HEAD. Generated files are
// ignored when suffix is set.
func (r *Repo) ChangedDirs(suffix string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(err, "reading worktree status")
	}
	seen := make(map[string]bool)
	var dirs []string
	for file, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		if !strings.HasSuffix(file, ".go") || (suffix != "" && strings.HasSuffix(file, suffix)) {
			continue
		}
		dir := filepath.Join(r.root, filepath.FromSlash(filepath.Dir(file)))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
