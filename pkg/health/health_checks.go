package health

import (
	"fmt"
	"time"
)

// FeedCheck reports on the snapshot feed. A feed is unhealthy when it has
// never delivered or has been silent for more than three poll intervals,
// and degraded while recent polls are failing.
func FeedCheck(getState func() (lastSuccess time.Time, failures int, interval time.Duration)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "feed",
			Details: make(map[string]any),
		}

		lastSuccess, failures, interval := getState()
		check.Details["consecutive_failures"] = failures
		check.Details["interval_seconds"] = interval.Seconds()

		if lastSuccess.IsZero() {
			check.Status = StatusUnhealthy
			check.Message = "No snapshot fetched yet"
			return check
		}

		age := time.Since(lastSuccess)
		check.Details["last_success_age_seconds"] = age.Seconds()

		switch {
		case interval > 0 && age > 3*interval:
			check.Status = StatusUnhealthy
			check.Message = "Feed stale"
		case failures > 0:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d consecutive fetch failures", failures)
		default:
			check.Status = StatusHealthy
			check.Message = "Feed current"
		}
		return check
	}
}

// ReconcileCheck reports degraded while the latest pass left mutations
// for the next pass to retry.
func ReconcileCheck(getState func() (passes, lastFailed int)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "reconcile",
			Details: make(map[string]any),
		}

		passes, lastFailed := getState()
		check.Details["passes"] = passes
		check.Details["pending_retries"] = lastFailed

		if lastFailed > 0 {
			check.Status = StatusDegraded
			check.Message = "Graph updates pending retry"
		} else {
			check.Status = StatusHealthy
			check.Message = "Graph in step with last snapshot"
		}
		return check
	}
}

// LayoutCheck reports how far the applied layout trails the latest run.
// Runs in flight are normal; the check only fails once runs have started
// but none has ever been applied.
func LayoutCheck(getState func() (started, applied uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "layout",
			Details: make(map[string]any),
		}

		started, applied := getState()
		check.Details["started"] = started
		check.Details["applied"] = applied

		switch {
		case started > 0 && applied == 0:
			check.Status = StatusDegraded
			check.Message = "No layout applied yet"
		case applied < started:
			check.Status = StatusHealthy
			check.Message = "Layout run in flight"
		default:
			check.Status = StatusHealthy
			check.Message = "Layout current"
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}
