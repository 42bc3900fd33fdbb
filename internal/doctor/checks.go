// Package doctor runs pre-flight checks for a meshmap run: is there a
// config, can we authenticate, and do the routers have the tools the
// collector calls.
package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/meshmap/internal/util"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string
	Category   string
	Status     CheckStatus
	Message    string
	Suggestion string
}

// Check is a single diagnostic.
type Check interface {
	// Name returns the check's identifier.
	Name() string

	// Category groups results in the report (CONFIG, SSH, NODES).
	Category() string

	// Run executes the check. Checks that touch the network honour ctx.
	Run(ctx context.Context) CheckResult
}

// RunAll executes checks one after another, in order. Node checks open
// SSH sessions and the collector's one-at-a-time model applies here too.
func RunAll(ctx context.Context, checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	for i, check := range checks {
		r := check.Run(ctx)
		if r.Name == "" {
			r.Name = check.Name()
		}
		if r.Category == "" {
			r.Category = check.Category()
		}
		results[i] = r
	}
	return results
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// Summary returns a summary string of the check results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	warn := counts[StatusWarn]
	fail := counts[StatusFail]

	if fail == 0 && warn == 0 {
		return "Everything looks good"
	}

	total := warn + fail
	return fmt.Sprintf("%d issue%s found", total, pluralize(total))
}

func pluralize(n int) string {
	return util.Pluralize(n, "", "s")
}
