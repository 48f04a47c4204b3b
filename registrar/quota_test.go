package registrar

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/rony4d/go-opera-names/inter"
)

func TestQuotasGrant(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	q := Quotas{a: {MinLength: 4, FreeCount: 1, AllowedCount: 2}}

	updated := q.Grant(inter.WhitelistEntry{MinLength: 2, FreeCount: 3, AllowedCount: 1}, []common.Address{a, b, b})

	assert.Equal(t, inter.WhitelistEntry{MinLength: 2, FreeCount: 4, AllowedCount: 3}, updated[a])
	assert.Equal(t, inter.WhitelistEntry{MinLength: 2, FreeCount: 6, AllowedCount: 2}, updated[b], "repeated address accumulates twice")
	assert.Equal(t, inter.WhitelistEntry{MinLength: 4, FreeCount: 1, AllowedCount: 2}, q.Peek(a), "receiver unchanged")
}

func TestQuotasGrantSaturates(t *testing.T) {
	a := common.HexToAddress("0xa")
	q := Quotas{a: {FreeCount: math.MaxUint64 - 1}}
	updated := q.Grant(inter.WhitelistEntry{FreeCount: 5}, []common.Address{a})
	assert.Equal(t, uint64(math.MaxUint64), updated[a].FreeCount)
}

func TestQuotasConsumeOne(t *testing.T) {
	a := common.HexToAddress("0xa")

	tests := []struct {
		name    string
		entry   inter.WhitelistEntry
		want    inter.WhitelistEntry
		changed bool
	}{
		{"both", inter.WhitelistEntry{FreeCount: 2, AllowedCount: 1}, inter.WhitelistEntry{FreeCount: 1}, true},
		{"free_only", inter.WhitelistEntry{FreeCount: 1, MinLength: 3}, inter.WhitelistEntry{MinLength: 3}, true},
		{"allowed_only", inter.WhitelistEntry{AllowedCount: 3}, inter.WhitelistEntry{AllowedCount: 2}, true},
		{"floored_at_zero", inter.WhitelistEntry{MinLength: 3}, inter.WhitelistEntry{MinLength: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Quotas{a: tt.entry}.ConsumeOne(a)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}
