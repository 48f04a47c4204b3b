// Package ledger describes the external contracts the name controller drives.
//
// The controller never owns name records. It asks a base registrar to mint and
// renew them, asks the registry to point a node at a resolver, asks a resolver to
// store an address record, and moves native value through a bank. All of these
// are consumed through the narrow interfaces below; ledger/memledger provides an
// in-memory implementation for devnets and tests.
//
// Mutating calls take the calling account explicitly, the same way a contract
// call carries msg.sender. Implementations enforce their own access rules
// (only a registered controller may mint, only a node owner may set its resolver).
package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/inter"
)

var (
	// ErrNotAvailable is returned by Register for a name that is still owned or in grace.
	ErrNotAvailable = errors.New("ledger: name not available")
	// ErrNotRegistered is returned by Renew for a name past its grace period.
	ErrNotRegistered = errors.New("ledger: name not registered")
	// ErrNotAuthorised is returned when the caller may not perform the call.
	ErrNotAuthorised = errors.New("ledger: caller not authorised")
	// ErrInsufficientBalance is returned by Bank and Token transfers.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrUnknownContract is returned by Backend lookups for an address with no contract.
	ErrUnknownContract = errors.New("ledger: no contract at address")
)

// Registrar is the token-style base registrar that owns name records.
// Token ids are the uint256 value of keccak256(label).
type Registrar interface {
	// Available reports whether the id may be registered now (never registered,
	// or expired and out of grace).
	Available(id *big.Int) bool

	// NameExpires returns the expiry of the id, zero if never registered.
	NameExpires(id *big.Int) inter.Timestamp

	// Register mints the id to owner for duration and returns the new expiry.
	Register(caller common.Address, name string, id *big.Int, owner common.Address, duration inter.Timestamp) (inter.Timestamp, error)

	// Renew extends the id by duration from its current expiry.
	Renew(caller common.Address, id *big.Int, duration inter.Timestamp) (inter.Timestamp, error)

	// Reclaim sets the registry owner of the id's node. Caller must own the token.
	Reclaim(caller common.Address, id *big.Int, owner common.Address) error

	// TransferFrom moves the token. Caller must own the token.
	TransferFrom(caller common.Address, from, to common.Address, id *big.Int) error

	// OwnerOf returns the token owner, zero if none.
	OwnerOf(id *big.Int) common.Address

	// BaseNode is the namehash of the namespace the registrar controls.
	BaseNode() common.Hash

	// Registry is the name registry the registrar writes ownership into.
	Registry() Registry
}

// Registry holds per-node ownership and resolver pointers.
type Registry interface {
	Owner(node common.Hash) common.Address
	Resolver(node common.Hash) common.Address
	SetResolver(caller common.Address, node common.Hash, resolver common.Address) error
}

// Resolver stores per-node metadata.
type Resolver interface {
	Addr(node common.Hash) common.Address
	SetAddr(caller common.Address, node common.Hash, addr common.Address) error
}

// Bank moves native value between accounts.
type Bank interface {
	BalanceOf(account common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
}

// Token is a fungible token contract; only balance and transfer are consumed.
type Token interface {
	BalanceOf(account common.Address) *big.Int
	Transfer(caller common.Address, to common.Address, amount *big.Int) error
}

// Journal gives the whole backend snapshot/revert semantics so that a failed
// multi-call operation leaves no partial effect behind.
// Snapshot ids are stack positions: reverting to or discarding a snapshot also
// drops every snapshot taken after it.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Backend is everything the controller needs from its execution environment.
type Backend interface {
	Journal
	Bank

	// Now is the current chain time.
	Now() inter.Timestamp

	// Registrar returns the base registrar deployed at addr.
	Registrar(addr common.Address) (Registrar, error)

	// Resolver returns the resolver deployed at addr.
	Resolver(addr common.Address) (Resolver, error)

	// Token returns the token contract deployed at addr.
	Token(addr common.Address) (Token, error)
}
