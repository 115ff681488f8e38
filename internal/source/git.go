package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

// errNotTracked means no commit in HEAD's history touches the file.
var errNotTracked = errors.New("file has no commits")

// Git walks the project like Filesystem but dates each page by the committer
// time of the last commit that touched it. Untracked files, and projects
// outside a git work tree, fall back to file modification time.
type Git struct {
	*walker
	repo *git.Repository
	head plumbing.Hash
	// workRoot is the absolute work tree root, used to make paths repo-relative.
	workRoot string
}

// NewGit creates the git data source.
func NewGit(opts Options) (*Git, error) {
	g := &Git{}
	g.walker = newWalker(opts, g.commitTime)

	repo, err := git.PlainOpenWithOptions(opts.ProjectDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		g.opts.Logger.Warn("Project is not inside a git work tree, using file modification times",
			logfields.Path(opts.ProjectDir), logfields.Error(err))
		return g, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		g.opts.Logger.Warn("Repository has no work tree, using file modification times",
			logfields.Path(opts.ProjectDir), logfields.Error(err))
		return g, nil
	}
	ref, err := repo.Head()
	if err != nil {
		g.opts.Logger.Warn("Repository has no HEAD commit, using file modification times",
			logfields.Path(opts.ProjectDir), logfields.Error(err))
		return g, nil
	}

	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, fmt.Errorf("resolve work tree root: %w", err)
	}
	g.repo = repo
	g.head = ref.Hash()
	g.workRoot = root
	return g, nil
}

func (g *Git) commitTime(rel, abs string) (time.Time, error) {
	if g.repo == nil {
		return fileModTime(rel, abs)
	}
	t, err := g.lastCommit(abs)
	if err != nil {
		g.opts.Logger.Debug("No commit date, using file modification time",
			logfields.Page(rel), logfields.Reason(err.Error()))
		return fileModTime(rel, abs)
	}
	return t, nil
}

func (g *Git) lastCommit(abs string) (time.Time, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return time.Time{}, err
	}
	repoRel, err := filepath.Rel(g.workRoot, resolved)
	if err != nil || strings.HasPrefix(repoRel, "..") {
		return time.Time{}, fmt.Errorf("%s is outside the work tree", abs)
	}
	repoRel = filepath.ToSlash(repoRel)

	iter, err := g.repo.Log(&git.LogOptions{From: g.head, FileName: &repoRel})
	if err != nil {
		return time.Time{}, fmt.Errorf("git log %s: %w", repoRel, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, errNotTracked
	}
	return commit.Committer.When, nil
}
