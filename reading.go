package sensorboard

import "time"

// Outcome classifies what a tick did to the display surface.
type Outcome string

const (
	// OutcomeApplied means the read completed with status 200 and the body
	// replaced the surface content.
	OutcomeApplied Outcome = "applied"

	// OutcomeDroppedStatus means the read completed with a status other
	// than 200. The surface was left unchanged.
	OutcomeDroppedStatus Outcome = "dropped_status"

	// OutcomeFailed means the read never completed (network error, timeout,
	// truncated body, cancellation). The surface was left unchanged.
	OutcomeFailed Outcome = "failed"
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}

// Reading is the outcome of one tick, delivered to callbacks registered with
// [WithReadingCallback].
type Reading struct {
	// Seq is the tick sequence number, starting at 1.
	Seq uint64

	// URL is the URL that was read.
	URL string

	// StatusCode is the HTTP status code, or zero if no response arrived.
	StatusCode int

	// Body is the raw response body. Bodies over 1MB are not delivered.
	Body []byte

	// Latency is the request duration.
	Latency time.Duration

	// IssuedAt is when the tick fired.
	IssuedAt time.Time

	// Error is non-nil when the read did not complete.
	Error error

	// Outcome reports what happened to the display surface.
	Outcome Outcome
}
