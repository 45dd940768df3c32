package main

import (
	"fmt"
	"os"
	"time"

	"github.com/git-replica/git-replica/replicate"
)

// reportOutcome prints one progress line per repository as it completes.
// Diagnostics go to the logger, these lines are the user-facing output.
func reportOutcome(out replicate.Outcome) {
	switch out.Kind {
	case replicate.OutcomeSkipped:
		fmt.Fprintf(os.Stdout, "%-8s %s -> %s (%s)\n", out.Kind, out.Repo.Name, out.Target.Locator, out.Reason)
	case replicate.OutcomeFailed:
		fmt.Fprintf(os.Stdout, "%-8s %s -> %s (%s): %v\n", out.Kind, out.Repo.Name, out.Target.Locator, out.Reason, out.Err)
	default:
		fmt.Fprintf(os.Stdout, "%-8s %s -> %s in %s\n", out.Kind, out.Repo.Name, out.Target.Locator, out.Took.Round(time.Millisecond))
	}

	if out.Advisory != "" {
		fmt.Fprintf(os.Stdout, "         %s: %s\n", out.Repo.Name, out.Advisory)
	}
}

func reportSummary(summary replicate.Summary) {
	fmt.Fprintf(os.Stdout,
		"\nreplicated %d repositories: %d created, %d updated, %d skipped, %d failed\n",
		summary.Total, summary.Created, summary.Updated, summary.Skipped, summary.Failed,
	)
}
