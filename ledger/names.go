package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LabelHash returns keccak256(label).
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// TokenID returns the registrar token id of a label: uint256(keccak256(label)).
func TokenID(label string) *big.Int {
	return LabelHash(label).Big()
}

// SubNode returns the namehash of label under parent: keccak256(parent ++ keccak256(label)).
func SubNode(parent common.Hash, label common.Hash) common.Hash {
	return crypto.Keccak256Hash(parent.Bytes(), label.Bytes())
}

// NameHash computes the namehash of a dotted name such as "opera" or "alice.opera".
// The empty name hashes to the zero node.
func NameHash(name string) common.Hash {
	node := common.Hash{}
	if name == "" {
		return node
	}
	end := len(name)
	for i := len(name) - 1; i >= -1; i-- {
		if i == -1 || name[i] == '.' {
			node = SubNode(node, LabelHash(name[i+1:end]))
			end = i
		}
	}
	return node
}
