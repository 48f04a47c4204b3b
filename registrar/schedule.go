package registrar

import (
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-opera-names/inter"
)

// Schedule is the append-only list of phases, kept sorted by activation time.
// Phases with equal activation times keep their insertion order, so the one
// added last wins once they activate.
type Schedule struct {
	epochs []inter.Epoch
}

// NewSchedule builds a schedule from phases in any order.
func NewSchedule(epochs ...inter.Epoch) Schedule {
	var s Schedule
	for _, e := range epochs {
		s, _ = s.With(e)
	}
	return s
}

// With returns a copy of the schedule with e inserted, and the position it took.
func (s Schedule) With(e inter.Epoch) (Schedule, idx.Epoch) {
	pos := sort.Search(len(s.epochs), func(i int) bool {
		return s.epochs[i].ActivationTime > e.ActivationTime
	})
	epochs := make([]inter.Epoch, 0, len(s.epochs)+1)
	epochs = append(epochs, s.epochs[:pos]...)
	epochs = append(epochs, e)
	epochs = append(epochs, s.epochs[pos:]...)
	return Schedule{epochs: epochs}, idx.Epoch(pos)
}

// Current returns the phase with the greatest activation time not after now,
// or inter.NoEpoch if none has activated.
func (s Schedule) Current(now inter.Timestamp) inter.Epoch {
	pos := sort.Search(len(s.epochs), func(i int) bool {
		return s.epochs[i].ActivationTime > now
	})
	if pos == 0 {
		return inter.NoEpoch
	}
	return s.epochs[pos-1]
}

// Get returns the phase at position i.
func (s Schedule) Get(i idx.Epoch) (inter.Epoch, bool) {
	if int(i) >= len(s.epochs) {
		return inter.Epoch{}, false
	}
	return s.epochs[i], true
}

// Len is the number of phases.
func (s Schedule) Len() int {
	return len(s.epochs)
}

// List returns a copy of all phases in activation order.
func (s Schedule) List() []inter.Epoch {
	return append([]inter.Epoch(nil), s.epochs...)
}
