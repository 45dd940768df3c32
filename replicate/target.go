package replicate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/git-replica/git-replica/giturl"
	"github.com/git-replica/git-replica/locator"
)

// TargetKind classifies the destination of a replication.
type TargetKind string

const (
	TargetLocalPath TargetKind = "local-path"
	TargetRemoteURL TargetKind = "remote-url"
)

// ErrTargetCollision is returned when two distinct source repositories map to
// the same target. Differently nested repositories sharing a basename would
// silently overwrite one another, the run is aborted before any replication
// instead.
var ErrTargetCollision = errors.New("distinct repositories resolve to the same target")

// Target is the destination identity of one repository's replication.
type Target struct {
	Kind TargetKind
	// Locator is the mirror path in local mode or the git url in remote mode
	Locator string
}

// Resolve derives the replication target for a discovered repository. It is a
// pure function of the record and run config, no filesystem or network access
// happens here.
func Resolve(rec locator.Record, conf Config) (Target, error) {
	switch conf.Mode {
	case ModeRemote:
		if conf.Host == "" || conf.User == "" {
			return Target{}, fmt.Errorf("%w: host=%q user=%q", ErrMissingCredential, conf.Host, conf.User)
		}
		url, err := giturl.BuildSCP("git", conf.Host, conf.User, rec.Name)
		if err != nil {
			return Target{}, fmt.Errorf("unable to build target url for '%s' err:%w", rec.Name, err)
		}
		return Target{Kind: TargetRemoteURL, Locator: url}, nil

	case ModeLocal:
		if conf.Destination == "" {
			return Target{}, fmt.Errorf("destination is required for local replication")
		}
		return Target{Kind: TargetLocalPath, Locator: filepath.Join(conf.Destination, rec.Name+".git")}, nil

	default:
		return Target{}, fmt.Errorf("wrong mode provided, must be one of %s, %s", ModeLocal, ModeRemote)
	}
}

// resolveTargets resolves all records up front and fails fast on target
// collisions, keyed by source path.
func resolveTargets(records []locator.Record, conf Config) (map[string]Target, error) {
	targets := make(map[string]Target, len(records))
	sources := make(map[string]string, len(records))

	for _, rec := range records {
		tgt, err := Resolve(rec, conf)
		if err != nil {
			return nil, err
		}

		if other, ok := sources[tgt.Locator]; ok {
			return nil, fmt.Errorf("%w: '%s' and '%s' both map to '%s'",
				ErrTargetCollision, other, rec.Path, tgt.Locator)
		}
		sources[tgt.Locator] = rec.Path
		targets[rec.Path] = tgt
	}

	return targets, nil
}
