package driven

import "time"

// Clock is the time source used for throttling and timestamps.
type Clock interface {
	Now() time.Time
}
