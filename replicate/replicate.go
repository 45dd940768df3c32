package replicate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/git-replica/git-replica/locator"
	"github.com/git-replica/git-replica/repository"
)

// OutcomeKind is the classification of one repository's replication attempt.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the immutable result of replicating one repository. Outcomes
// are produced by workers and folded into the run Summary by a single
// aggregation point.
type Outcome struct {
	Repo   locator.Record
	Target Target
	Kind   OutcomeKind
	// Reason is set for skips and failures, eg 'remote-not-provisioned'
	Reason string
	// Advisory carries non-fatal warnings, replication is not blocked by them
	Advisory string
	Err      error
	Took     time.Duration
}

// Summary is the tally of one replication run.
type Summary struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Ok reports whether the run completed without failures. Skips and advisories
// do not affect the overall result.
func (s Summary) Ok() bool {
	return s.Failed == 0
}

func (s *Summary) fold(out Outcome) {
	s.Total++
	switch out.Kind {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Runner replicates a set of discovered repositories according to its config.
type Runner struct {
	conf   Config
	envs   []string // envs passed to git subprocesses
	report func(Outcome)
	log    *slog.Logger
}

// NewRunner validates the given config and creates a Runner. The report
// callback, if set, is invoked for every outcome as it occurs, always from a
// single goroutine.
func NewRunner(conf Config, envs []string, report func(Outcome), log *slog.Logger) (*Runner, error) {
	if err := conf.ValidateAndApplyDefaults(); err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		conf:   conf,
		envs:   envs,
		report: report,
		log:    log,
	}, nil
}

// Run replicates all given repositories and returns the folded Summary.
// Per-repository errors never abort the run, one failing repository must not
// prevent the remaining repositories from being attempted. The only errors
// returned here are whole-run precondition failures (target collision,
// cancelled context).
func (rn *Runner) Run(ctx context.Context, records []locator.Record) (Summary, error) {
	// bare sources are excluded by policy, mirroring a mirror is redundant
	var work []locator.Record
	for _, rec := range records {
		if rec.Kind == locator.KindBare {
			rn.log.Info("excluding bare repository from replication", "path", rec.Path)
			continue
		}
		work = append(work, rec)
	}

	targets, err := resolveTargets(work, rn.conf)
	if err != nil {
		return Summary{}, err
	}

	jobs := make(chan locator.Record)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for range rn.conf.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- rn.replicateOne(ctx, rec, targets[rec.Path])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range work {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// single aggregation point, the tally is only ever touched by this
	// goroutine regardless of worker count
	var summary Summary
	for out := range results {
		summary.fold(out)
		recordReplication(out.Repo.Name, out.Kind, out.Took)
		if rn.report != nil {
			rn.report(out)
		}
	}

	return summary, ctx.Err()
}

// replicateOne performs the create-or-update operation for one repository
// and classifies the result. Every error is converted into an Outcome here,
// nothing propagates.
func (rn *Runner) replicateOne(ctx context.Context, rec locator.Record, tgt Target) Outcome {
	start := time.Now()
	out := Outcome{Repo: rec, Target: tgt}

	ctx, cancel := context.WithTimeout(ctx, rn.conf.Timeout)
	defer cancel()

	repo, err := repository.New(rec.Path, rec.Name, rn.envs, rn.log)
	if err != nil {
		out.Kind, out.Reason, out.Err = OutcomeFailed, "invalid-source", err
		out.Took = time.Since(start)
		return out
	}

	if dirty, err := repo.IsDirty(); err != nil {
		rn.log.Debug("unable to check worktree state", "repo", rec.Name, "err", err)
	} else if dirty {
		out.Advisory = "uncommitted changes will not be replicated"
		rn.log.Warn("repository has uncommitted changes", "repo", rec.Name, "path", rec.Path)
	}

	switch tgt.Kind {
	case TargetRemoteURL:
		first, err := repo.PushMirror(ctx, rn.conf.RemoteName, tgt.Locator)
		switch {
		case errors.Is(err, repository.ErrRemoteNotProvisioned):
			out.Kind, out.Reason, out.Err = OutcomeSkipped, "remote-not-provisioned", err
		case err != nil:
			out.Kind, out.Reason, out.Err = OutcomeFailed, "push-error", err
		case first:
			out.Kind = OutcomeCreated
		default:
			out.Kind = OutcomeUpdated
		}

	default: // TargetLocalPath
		created, err := repo.MirrorTo(ctx, tgt.Locator)
		switch {
		case err != nil && created:
			out.Kind, out.Reason, out.Err = OutcomeFailed, "clone-error", err
		case err != nil:
			out.Kind, out.Reason, out.Err = OutcomeFailed, "fetch-error", err
		case created:
			out.Kind = OutcomeCreated
		default:
			out.Kind = OutcomeUpdated
		}
	}

	out.Took = time.Since(start)
	return out
}
