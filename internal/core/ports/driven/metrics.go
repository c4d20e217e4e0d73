package driven

import "time"

// RebuildOutcome is how one index refresh ended.
type RebuildOutcome string

// Rebuild outcomes.
const (
	RebuildCompleted RebuildOutcome = "rebuilt"
	RebuildThrottled RebuildOutcome = "throttled"
	RebuildFailed    RebuildOutcome = "failed"
)

// SearchMetrics records search index activity.
// Implementations must be safe for concurrent use.
type SearchMetrics interface {
	// ObserveQuery records one answered query and whether the cache served it.
	ObserveQuery(cached bool, results int)

	// ObserveRebuild records one refresh. records is the size of the index
	// in use afterwards.
	ObserveRebuild(outcome RebuildOutcome, records int, elapsed time.Duration)
}
