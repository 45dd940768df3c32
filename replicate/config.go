package replicate

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Mode selects the replication algorithm for a run.
type Mode string

const (
	// ModeLocal replicates to local bare mirrors under Destination
	ModeLocal Mode = "local"
	// ModeRemote replicates to a remote ssh git hosting endpoint
	ModeRemote Mode = "remote"
)

const (
	// DefaultRemoteName is the name of the git remote maintained on source
	// repositories in remote mode
	DefaultRemoteName = "replica"

	// DefaultConcurrency is the number of repositories replicated in parallel
	DefaultConcurrency = 4

	// DefaultTimeout is the per-repository replication timeout
	DefaultTimeout = 10 * time.Minute

	minAllowedTimeout = time.Second
)

// ErrMissingCredential is returned in remote mode when the hosting endpoint
// host or username run parameter is absent.
var ErrMissingCredential = errors.New("host and username are required for remote replication")

// Config is the resolved set of parameters governing one replication run.
type Config struct {
	// Mode selects local-mirror or remote-mirror replication
	Mode Mode

	// Root is the absolute path of the scanned projects directory
	Root string

	// Destination is the absolute path under which local mirrors are
	// created. local mode only
	Destination string

	// Host and User identify the git hosting endpoint. remote mode only
	Host string
	User string

	// RemoteName is the git remote maintained on each source repository in
	// remote mode
	RemoteName string

	// Concurrency bounds the number of repositories replicated in parallel
	Concurrency int

	// Timeout is the total time allowed for replicating one repository
	Timeout time.Duration

	// Excludes lists directory base names skipped during the scan
	Excludes []string
}

// ValidateAndApplyDefaults verifies the run config and fills in defaults
// where values were not set.
func (c *Config) ValidateAndApplyDefaults() error {
	var errs []error

	switch c.Mode {
	case ModeLocal:
		if c.Destination == "" {
			errs = append(errs, fmt.Errorf("destination is required for local replication"))
		} else if !filepath.IsAbs(c.Destination) {
			errs = append(errs, fmt.Errorf("destination '%s' must be absolute", c.Destination))
		}
	case ModeRemote:
		if c.Host == "" || c.User == "" {
			errs = append(errs, ErrMissingCredential)
		}
	default:
		errs = append(errs, fmt.Errorf("wrong mode provided, must be one of %s, %s", ModeLocal, ModeRemote))
	}

	if c.Root == "" {
		errs = append(errs, fmt.Errorf("projects root is required"))
	} else if !filepath.IsAbs(c.Root) {
		errs = append(errs, fmt.Errorf("projects root '%s' must be absolute", c.Root))
	}

	if c.RemoteName == "" {
		c.RemoteName = DefaultRemoteName
	}

	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive"))
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < minAllowedTimeout {
		errs = append(errs, fmt.Errorf("provided timeout is too short (%s), must be >= %s", c.Timeout, minAllowedTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
