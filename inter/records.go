package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NameRegistered is emitted after a registration commits.
type NameRegistered struct {
	Name    string
	Label   common.Hash // keccak256(name), also the registrar token id
	Owner   common.Address
	Cost    *big.Int
	Expires Timestamp
}

// NameRenewed is emitted after a renewal commits.
type NameRenewed struct {
	Name    string
	Label   common.Hash
	Cost    *big.Int
	Expires Timestamp
}

// Receipt kinds.
const (
	ReceiptRegistration uint8 = 1
	ReceiptRenewal      uint8 = 2
)

// Receipt is the persisted trace of a committed registration or renewal.
type Receipt struct {
	Seq     uint64
	Kind    uint8
	Name    string
	Label   common.Hash
	Payer   common.Address
	Owner   common.Address // zero for renewals
	Cost    *big.Int
	Refund  *big.Int
	Expires Timestamp
	Time    Timestamp
}
