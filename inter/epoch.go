package inter

import "math"

// Epoch is one phase of the phased rollout. From ActivationTime on (until a later
// epoch activates) names whose length lies in [MinLength, MaxLength] may be minted,
// subject to the whitelist priority rules.
//
// Epochs are created by the owner, never mutated and never removed.
type Epoch struct {
	// ActivationTime is when the phase starts. Zero is reserved for the
	// "no phase active" sentinel.
	ActivationTime Timestamp

	// MinLength is the shortest name length the phase allows to anyone who has
	// waited out the priority window.
	MinLength uint64

	// MaxLength is the longest name length the phase covers at all.
	MaxLength uint64
}

// NoEpoch is returned when no phase has activated yet. Registration is closed:
// nothing is longer than MaxLength=0 and nothing reaches MinLength=MaxUint64.
var NoEpoch = Epoch{
	ActivationTime: 0,
	MinLength:      math.MaxUint64,
	MaxLength:      0,
}

// Active reports whether the epoch is a real phase rather than the sentinel.
func (e Epoch) Active() bool {
	return e.ActivationTime != 0
}

// Covers reports whether names of the given length fall under this phase at all.
func (e Epoch) Covers(length uint64) bool {
	return length <= e.MaxLength
}
