// Package inter defines the records the name controller reads, writes and emits.
// Nothing in here talks to storage or to the ledger; the types are plain values
// shared by the registrar core, the ABI surface, the persistence layer and the CLI.
//
// Key concepts:
//   - Timestamp: nanosecond-resolution point in time (and duration) on the chain clock
//   - Epoch: one phase of the phased rollout (activation time + mintable length range)
//   - WhitelistEntry: per-address quota record granting early and discounted access
//   - Msg: the principal executing an operation plus the value it attached
//   - NameRegistered / NameRenewed: result records emitted by successful transactions
package inter

import (
	"fmt"
	"time"
)

// Timestamp is a point on the chain clock, in nanoseconds since the Unix epoch.
// The same type is used for durations (priority window, registration period),
// so "activation + window" arithmetic never has to convert units.
type Timestamp uint64

const (
	// Day is one calendar day on the chain clock.
	Day = Timestamp(24 * time.Hour)

	// Year is the fixed 365-day registration period. It is not leap-aware:
	// renewing for one year always adds exactly 365 days.
	Year = 365 * Day
)

// FromUnix converts Unix seconds into a Timestamp.
func FromUnix(sec int64) Timestamp {
	if sec <= 0 {
		return 0
	}
	return Timestamp(sec) * Timestamp(time.Second)
}

// FromTime converts a wall-clock time into a Timestamp.
func FromTime(t time.Time) Timestamp {
	if t.IsZero() || t.UnixNano() <= 0 {
		return 0
	}
	return Timestamp(t.UnixNano())
}

// FromDuration converts a Go duration into a Timestamp span.
func FromDuration(d time.Duration) Timestamp {
	if d <= 0 {
		return 0
	}
	return Timestamp(d)
}

// Unix returns the timestamp in whole Unix seconds.
func (t Timestamp) Unix() int64 {
	return int64(t) / int64(time.Second)
}

// Time returns the timestamp as a UTC wall-clock time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

// Duration returns the timestamp interpreted as a span.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t)
}

// Add returns t+d, saturating at the maximum representable timestamp.
func (t Timestamp) Add(d Timestamp) Timestamp {
	sum := t + d
	if sum < t {
		return ^Timestamp(0)
	}
	return sum
}

// String renders the timestamp for logs.
func (t Timestamp) String() string {
	return fmt.Sprintf("%s (%d)", t.Time().Format(time.RFC3339), t.Unix())
}
