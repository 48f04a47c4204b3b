package registrar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rony4d/go-opera-names/inter"
)

func TestCanMint(t *testing.T) {
	const T = inter.Timestamp(1_000_000)
	window := inter.Timestamp(time.Hour)
	phase := inter.Epoch{ActivationTime: T, MinLength: 3, MaxLength: 10}

	listed := inter.WhitelistEntry{AllowedCount: 1}
	listedShort := inter.WhitelistEntry{AllowedCount: 1, MinLength: 2}
	freeOnly := inter.WhitelistEntry{FreeCount: 5, MinLength: 1}
	nobody := inter.WhitelistEntry{}

	tests := []struct {
		name   string
		phase  inter.Epoch
		entry  inter.WhitelistEntry
		length uint64
		now    inter.Timestamp
		want   bool
	}{
		{"listed_below_both_minimums", phase, listed, 2, T, false},
		{"listed_at_phase_minimum", phase, listed, 3, T, true},
		{"listed_own_minimum_relaxes_phase", phase, listedShort, 2, T, true},
		{"listed_below_own_minimum", phase, listedShort, 1, T, false},
		{"listed_before_activation", phase, listed, 5, T - 1, false},
		{"listed_beyond_max_length", phase, listed, 11, T, false},
		{"public_inside_window", phase, nobody, 5, T, false},
		{"public_just_before_window_ends", phase, nobody, 5, T + window - 1, false},
		{"public_after_window", phase, nobody, 5, T + window, true},
		{"public_below_phase_minimum", phase, nobody, 2, T + window, false},
		{"public_beyond_max_length", phase, nobody, 11, T + window, false},
		{"free_count_alone_is_not_priority", phase, freeOnly, 5, T, false},
		{"free_count_alone_no_length_override", phase, freeOnly, 2, T + window, false},
		{"no_phase_listed", inter.NoEpoch, listed, 5, T + window, false},
		{"no_phase_public", inter.NoEpoch, nobody, 5, T + window, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMint(tt.phase, tt.entry, tt.length, tt.now, window))
		})
	}
}

func TestCanMintIsMonotonicInTime(t *testing.T) {
	const T = inter.Timestamp(5_000)
	window := inter.Timestamp(100)
	phase := inter.Epoch{ActivationTime: T, MinLength: 2, MaxLength: 8}

	for _, entry := range []inter.WhitelistEntry{{}, {AllowedCount: 1}, {AllowedCount: 2, MinLength: 1}} {
		for length := uint64(1); length <= 9; length++ {
			seen := false
			for now := T - 10; now <= T+2*window; now += 5 {
				ok := CanMint(phase, entry, length, now, window)
				if seen {
					assert.True(t, ok, "entry=%+v length=%d now=%d", entry, length, now)
				}
				seen = seen || ok
			}
		}
	}
}
