package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Msg identifies who executes an operation and how much native value they attached.
// It replaces the ambient "current caller" of a contract call with an explicit principal.
type Msg struct {
	From  common.Address
	Value *big.Int
}

// Call builds a Msg with no attached value.
func Call(from common.Address) Msg {
	return Msg{From: from, Value: new(big.Int)}
}

// Pay builds a Msg carrying value.
func Pay(from common.Address, value *big.Int) Msg {
	return Msg{From: from, Value: value}
}

// Amount returns the attached value, treating nil as zero.
func (m Msg) Amount() *big.Int {
	if m.Value == nil {
		return new(big.Int)
	}
	return m.Value
}
