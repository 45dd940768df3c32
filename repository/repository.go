package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	git "github.com/go-git/go-git/v6"

	"github.com/git-replica/git-replica/giturl"
	"github.com/git-replica/git-replica/internal/lock"
	"github.com/git-replica/git-replica/internal/utils"
)

var gitExecutablePath string

func init() {
	gitExecutablePath = exec.Command("git").String()
}

// Repository represents one discovered source repository and implements the
// create-or-update replication operations on it.
// A Repository is safe for concurrent use by multiple goroutines.
type Repository struct {
	lock lock.RWMutex // repository will be locked during replication
	path string       // absolute path of the source repository
	name string       // identifier derived from the directory name
	envs []string     // envs which will be passed to git commands
	log  *slog.Logger
}

// New creates a Repository for the source at the given absolute path.
func New(path, name string, envs []string, log *slog.Logger) (*Repository, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("repository path '%s' must be absolute", path)
	}

	if name == "" {
		name = filepath.Base(path)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Repository{
		path: filepath.Clean(path),
		name: name,
		envs: envs,
		log:  log.With("repo", name),
	}, nil
}

// Path returns the absolute path of the source repository.
func (r *Repository) Path() string {
	return r.path
}

// Name returns the repository identifier.
func (r *Repository) Name() string {
	return r.name
}

// MirrorTo performs an idempotent create-or-update of a local bare mirror at
// dst. If dst does not exist the source is mirror cloned into it, otherwise
// the existing mirror's origin is re-pointed at the (possibly moved) source
// and all refs are fetched with pruning. The returned bool reports whether
// the mirror was created rather than updated.
//
// The operation is retry safe, a dst left behind by a crashed clone fails the
// sanity check on the next run and is removed and re-created.
func (r *Repository) MirrorTo(ctx context.Context, dst string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !filepath.IsAbs(dst) {
		return false, fmt.Errorf("mirror path '%s' must be absolute", dst)
	}

	_, err := os.Stat(dst)
	switch {
	case os.IsNotExist(err):
		r.log.Info("mirror does not exist, creating it", "path", dst)
		return true, r.cloneMirror(ctx, dst)
	case err != nil:
		return false, fmt.Errorf("unable to verify mirror dir err:%w", err)
	}

	if !r.sanityCheckMirror(ctx, dst) {
		// Maybe a previous run crashed, git won't use this dir.
		r.log.Error("mirror directory was empty or failed checks, re-creating...", "path", dst)
		if err := utils.ReCreate(dst); err != nil {
			// no clone was attempted
			return false, fmt.Errorf("unable to re-create mirror dir err:%w", err)
		}
		return true, r.cloneMirror(ctx, dst)
	}

	// the source tree may have been moved since the mirror was created
	// git remote set-url origin <src>
	if _, err := r.git(ctx, dst, "remote", "set-url", "origin", r.path); err != nil {
		return false, fmt.Errorf("unable to update mirror origin err:%w", err)
	}

	// git fetch origin --prune --prune-tags --no-progress
	if _, err := r.git(ctx, dst, "fetch", "origin", "--prune", "--prune-tags", "--no-progress"); err != nil {
		return false, fmt.Errorf("unable to fetch mirror err:%w", err)
	}

	return false, nil
}

func (r *Repository) cloneMirror(ctx context.Context, dst string) error {
	// git clone --mirror -q <src> <dst>
	if _, err := r.git(ctx, "", "clone", "--mirror", "-q", r.path, dst); err != nil {
		return fmt.Errorf("unable to clone mirror err:%w", err)
	}
	return nil
}

// sanityCheckMirror tries to make sure that the dst dir is a usable bare
// mirror of this repository.
func (r *Repository) sanityCheckMirror(ctx context.Context, dst string) bool {
	// If it is empty, we are done.
	if empty, err := utils.DirIsEmpty(dst); err != nil {
		r.log.Error("can't list mirror directory", "path", dst, "err", err)
		return false
	} else if empty {
		r.log.Info("mirror directory is empty", "path", dst)
		return false
	}

	// make sure mirror is a bare repository
	// git rev-parse --is-bare-repository
	if ok, err := r.git(ctx, dst, "rev-parse", "--is-bare-repository"); err != nil {
		r.log.Error("unable to verify bare repo", "path", dst, "err", err)
		return false
	} else if ok != "true" {
		r.log.Error("mirror is not a bare repository", "path", dst)
		return false
	}

	// Check that this is actually the root of the mirror.
	// git rev-parse --absolute-git-dir
	if root, err := r.git(ctx, dst, "rev-parse", "--absolute-git-dir"); err != nil {
		r.log.Error("can't get mirror git dir", "path", dst, "err", err)
		return false
	} else if root != dst {
		r.log.Error("mirror directory is under another repo", "path", dst, "parent", root)
		return false
	}

	// Consistency-check the mirror.  Don't use --verbose because it can be
	// REALLY verbose.
	// git fsck --no-progress --connectivity-only
	if _, err := r.git(ctx, dst, "fsck", "--no-progress", "--connectivity-only"); err != nil {
		r.log.Error("mirror fsck failed", "path", dst, "err", err)
		return false
	}

	return true
}

// PushMirror replicates all refs of the source repository to the remote
// hosting endpoint at rawURL via a mirroring push. The named remote is
// reconciled first, created if absent or re-pointed if its url has drifted
// from the expected target. The returned bool reports whether this was the
// first push to an empty remote.
//
// A push rejected because the hosting-side repository has not been created
// returns ErrRemoteNotProvisioned, provisioning is out of band and the caller
// is expected to treat this as a skip rather than a failure.
func (r *Repository) PushMirror(ctx context.Context, remote, rawURL string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.ensureRemote(ctx, remote, rawURL); err != nil {
		return false, err
	}

	// an empty ref list means the hosting-side repository exists but has
	// never been pushed to
	// git ls-remote --heads --tags <remote>
	refs, err := r.git(ctx, r.path, "ls-remote", "--heads", "--tags", remote)
	if err != nil {
		return false, classifyPushError(fmt.Errorf("unable to list remote refs err:%w", err))
	}

	// git push --mirror --quiet <remote>
	if _, err := r.git(ctx, r.path, "push", "--mirror", "--quiet", remote); err != nil {
		return false, classifyPushError(fmt.Errorf("unable to push refs err:%w", err))
	}

	return refs == "", nil
}

// ensureRemote makes sure the named remote exists on the source repository
// and points at the expected url. Reconciliation is based on parsed url
// equality so an equivalent url in a different scheme is left untouched.
func (r *Repository) ensureRemote(ctx context.Context, remote, rawURL string) error {
	// git remote get-url <remote>
	current, err := r.git(ctx, r.path, "remote", "get-url", remote)
	if err != nil {
		// get-url exits non-zero when the remote is not configured yet
		r.log.Info("adding replication remote", "remote", remote, "url", rawURL)
		if _, err := r.git(ctx, r.path, "remote", "add", remote, rawURL); err != nil {
			return fmt.Errorf("unable to add remote err:%w", err)
		}
		return nil
	}

	// fast path on raw equality, it also covers local filesystem urls which
	// the parser does not handle
	if current == rawURL {
		return nil
	}
	if same, err := giturl.SameRawURL(current, rawURL); err == nil && same {
		return nil
	}

	r.log.Info("replication remote url drifted, re-pointing", "remote", remote, "current", current, "url", rawURL)
	if _, err := r.git(ctx, r.path, "remote", "set-url", remote, rawURL); err != nil {
		return fmt.Errorf("unable to update remote url err:%w", err)
	}

	return nil
}

// IsDirty reports whether the source working tree has uncommitted changes.
// Bare repositories are never dirty. The check is advisory, a mirror only
// ever reflects committed history so callers must not block replication on
// it.
func (r *Repository) IsDirty() (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	repo, err := git.PlainOpen(r.path)
	if err != nil {
		return false, fmt.Errorf("unable to open repository err:%w", err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to get worktree err:%w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("unable to get worktree status err:%w", err)
	}

	return !status.IsClean(), nil
}

func (r *Repository) git(ctx context.Context, cwd string, args ...string) (string, error) {
	return utils.RunCommand(ctx, r.log, r.envs, cwd, gitExecutablePath, args...)
}
