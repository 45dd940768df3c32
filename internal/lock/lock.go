// Package lock provides drop-in replacements for sync mutexes which can
// detect potential deadlocks between replication workers. Detection can be
// disabled via the DISABLE_DEADLOCK_DETECTION env var.
package lock

import (
	"os"
	"time"

	"github.com/sasha-s/go-deadlock"
)

func init() {
	// replication of a big repository over a slow link can legitimately hold
	// the repo lock for a long time
	deadlock.Opts.DeadlockTimeout = 5 * time.Minute

	if os.Getenv("DISABLE_DEADLOCK_DETECTION") != "" {
		deadlock.Opts.Disable = true
	}
}

type RWMutex = deadlock.RWMutex
