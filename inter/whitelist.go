package inter

// WhitelistEntry is the quota record kept per address.
type WhitelistEntry struct {
	// MinLength overrides the phase minimum for this address while it still
	// holds an allowance. Zero means "no override beyond the phase minimum".
	MinLength uint64

	// FreeCount is the number of one-year price waivers left.
	FreeCount uint64

	// AllowedCount is the number of registrations left inside the priority window.
	AllowedCount uint64
}

// Merge applies an additive grant: MinLength is last-write-wins, the counters
// accumulate. Counter overflow saturates instead of wrapping.
func (w WhitelistEntry) Merge(grant WhitelistEntry) WhitelistEntry {
	return WhitelistEntry{
		MinLength:    grant.MinLength,
		FreeCount:    saturatingAdd(w.FreeCount, grant.FreeCount),
		AllowedCount: saturatingAdd(w.AllowedCount, grant.AllowedCount),
	}
}

// Consume decrements both counters by one, each independently floored at zero.
func (w WhitelistEntry) Consume() WhitelistEntry {
	if w.AllowedCount > 0 {
		w.AllowedCount--
	}
	if w.FreeCount > 0 {
		w.FreeCount--
	}
	return w
}

// HasFree reports whether a price waiver is available.
func (w WhitelistEntry) HasFree() bool {
	return w.FreeCount > 0
}

// Privileged reports whether the address may use the priority window.
func (w WhitelistEntry) Privileged() bool {
	return w.AllowedCount > 0
}

// IsZero reports whether the entry carries nothing.
func (w WhitelistEntry) IsZero() bool {
	return w == WhitelistEntry{}
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
