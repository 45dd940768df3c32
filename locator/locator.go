// Package locator walks a projects root and discovers git repositories which
// are candidates for replication. A '.git' directory marks its parent as a
// working copy; damaged metadata is deliberately not filtered out here so
// that a broken repository surfaces as a failed outcome of the run instead
// of silently disappearing from it. Bare repositories on the other hand are
// only reported when go-git can actually open them, a directory is never
// classified as bare on its name alone.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	git "github.com/go-git/go-git/v6"

	"github.com/git-replica/git-replica/internal/utils"
)

// ErrInvalidRoot is returned when the projects root does not exist or is not
// a readable directory.
var ErrInvalidRoot = errors.New("projects root is not a readable directory")

// Kind classifies a discovered repository.
type Kind string

const (
	KindWorkingCopy Kind = "working-copy"
	KindBare        Kind = "bare"
)

// Record represents one discovered git repository. Records are immutable and
// only live for the duration of a single replication run.
type Record struct {
	// Path is the absolute path of the repository root
	Path string
	// Name is the identifier derived from the directory base name,
	// without the '.git' suffix for bare repositories
	Name string
	// Kind is either working-copy or bare
	Kind Kind
}

// Locator discovers git repositories under a root directory.
type Locator struct {
	root     string   // absolute path of the scanned projects root
	dest     string   // absolute path of the replication destination, skipped during scan
	excludes []string // directory base names to skip
	log      *slog.Logger
}

// New creates a Locator for the given root. dest may be empty when targets
// are not located on the local filesystem. Given root and dest must be
// absolute.
func New(root, dest string, excludes []string, log *slog.Logger) (*Locator, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("projects root '%s' must be absolute", root)
	}
	if dest != "" && !filepath.IsAbs(dest) {
		return nil, fmt.Errorf("destination '%s' must be absolute", dest)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Locator{
		root:     filepath.Clean(root),
		dest:     dest,
		excludes: excludes,
		log:      log,
	}, nil
}

// Discover walks the root and returns a record for every git repository
// found, in lexical order. The subtree of the destination directory is never
// entered so a previous run's mirrors cannot be picked up as sources.
// Unreadable entries are logged and skipped, they do not abort the scan.
func (l *Locator) Discover(ctx context.Context) ([]Record, error) {
	fi, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, l.root)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is not a directory", ErrInvalidRoot, l.root)
	}
	if _, err := os.ReadDir(l.root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, l.root)
	}

	var records []Record

	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if l.dest != "" && utils.IsInsideDir(path, l.dest) {
			l.log.Debug("skipping destination subtree", "path", path)
			return fs.SkipDir
		}

		if path != l.root && slices.Contains(l.excludes, d.Name()) {
			l.log.Debug("skipping excluded directory", "path", path)
			return fs.SkipDir
		}

		// a '.git' directory marks its parent as a working-copy repository
		if d.Name() == git.GitDirName {
			parent := filepath.Dir(path)
			records = append(records, Record{
				Path: parent,
				Name: filepath.Base(parent),
				Kind: KindWorkingCopy,
			})
			return fs.SkipDir
		}

		if path != l.root && isBareRepo(path) {
			records = append(records, Record{
				Path: path,
				Name: strings.TrimSuffix(d.Name(), ".git"),
				Kind: KindBare,
			})
			return fs.SkipDir
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("repository scan complete", "root", l.root, "found", len(records))
	return records, nil
}

// isBareRepo reports whether the given directory is itself a bare git
// repository. The HEAD stat is a cheap pre-check so that go-git is not asked
// to open every directory of the tree.
func isBareRepo(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err != nil {
		return false
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return false
	}

	_, err = repo.Worktree()
	return errors.Is(err, git.ErrIsBareRepository)
}
