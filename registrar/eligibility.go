package registrar

import (
	"github.com/rony4d/go-opera-names/inter"
)

// IsValidName reports whether a name may be registered at all.
func IsValidName(name string) bool {
	return NameLength(name) >= 1
}

// CanMint decides whether a caller holding entry may mint a name of the given
// length under phase at time now.
//
// Nothing is mintable while no phase is active, or for names longer than the
// phase covers. Quota holders may mint from activation on, down to the smaller
// of the phase minimum and their own minimum (a zero own minimum means none).
// Everyone else waits out the priority window and must meet the phase minimum.
func CanMint(phase inter.Epoch, entry inter.WhitelistEntry, length uint64, now, window inter.Timestamp) bool {
	if !phase.Active() || !phase.Covers(length) {
		return false
	}
	if entry.Privileged() {
		if now < phase.ActivationTime {
			return false
		}
		return length >= phase.MinLength || (entry.MinLength != 0 && length >= entry.MinLength)
	}
	return now >= phase.ActivationTime.Add(window) && length >= phase.MinLength
}
