package validate

import (
	"context"

	"mdm-migrate/internal/common"
)

// ProbeStatus is the outcome of one reachability probe.
type ProbeStatus int

const (
	StatusReachable ProbeStatus = iota
	StatusUnreachable
	StatusTimedOut
)

// String returns a human-readable status name.
func (s ProbeStatus) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	case StatusTimedOut:
		return "timed-out"
	default:
		return common.UnknownStr
	}
}

// MarshalJSON serializes the status as its string name.
func (s ProbeStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Probe reports whether a reference-data collection is reachable on the new
// source. Implementations must honor context cancellation and deadlines and
// return StatusTimedOut when the deadline expires.
type Probe interface {
	Probe(ctx context.Context, collectionID string) ProbeStatus
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context, collectionID string) ProbeStatus

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context, collectionID string) ProbeStatus {
	return f(ctx, collectionID)
}

// NopProbe reports every collection as reachable. For offline runs where
// reachability is checked out of band.
var NopProbe Probe = ProbeFunc(func(context.Context, string) ProbeStatus {
	return StatusReachable
})
