package repository

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrRemoteNotProvisioned indicates the push target's hosting-side repository
// does not exist. It is an expected condition rather than a true error, the
// operator must create the repository out-of-band before the next run.
var ErrRemoteNotProvisioned = errors.New("hosting-side repository does not exist")

// Hosting services report a missing destination repository in the text of the
// failed push, there is no structured error channel for it. The known
// signatures are kept here in one place so call sites never match on
// subprocess output themselves.
var notProvisionedRgxs = []*regexp.Regexp{
	// github and gitlab over ssh: "ERROR: Repository not found."
	// and over https: "fatal: repository 'https://...' not found"
	regexp.MustCompile(`(?i)repository\s+.*not found`),
	// stock git-receive-pack on a plain ssh host
	regexp.MustCompile(`does not appear to be a git repository`),
	// gitolite style hosts
	regexp.MustCompile(`(?i)no such repository`),
}

// classifyPushError translates a failed push or ls-remote error into
// ErrRemoteNotProvisioned when its captured output carries one of the known
// missing-repository signatures. All other errors are returned unchanged.
func classifyPushError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	for _, rgx := range notProvisionedRgxs {
		if rgx.MatchString(msg) {
			return fmt.Errorf("%w: %s", ErrRemoteNotProvisioned, msg)
		}
	}

	return err
}
