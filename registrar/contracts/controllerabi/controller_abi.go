// Package controllerabi exposes the name controller as an ABI-encoded contract
// call surface: calldata in, return data or a revert out.
//
// Time values cross the ABI in Unix seconds. Registration periods are whole
// years. Every failure is reported as vm.ErrExecutionReverted wrapping the
// controller error, so callers can still match the controller's sentinels.
package controllerabi

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/registrar"
)

// ContractABI is the JSON ABI of the controller.
const ContractABI = `[{"inputs":[{"internalType":"string","name":"name","type":"string"}],"name":"available","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"address","name":"user","type":"address"}],"name":"canRegister","outputs":[{"internalType":"bool","name":"available","type":"bool"},{"internalType":"bool","name":"canMint","type":"bool"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"uint256","name":"years","type":"uint256"}],"name":"rentPrice","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"address","name":"user","type":"address"},{"internalType":"uint256","name":"years","type":"uint256"}],"name":"rentPriceForUser","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"uint256","name":"length","type":"uint256"}],"name":"yearlyPrice","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"}],"name":"nameExpires","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"currentEpoch","outputs":[{"internalType":"uint256","name":"activationTime","type":"uint256"},{"internalType":"uint256","name":"minLength","type":"uint256"},{"internalType":"uint256","name":"maxLength","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"whitelist","outputs":[{"internalType":"uint256","name":"minLength","type":"uint256"},{"internalType":"uint256","name":"freeCount","type":"uint256"},{"internalType":"uint256","name":"allowedCount","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256","name":"years","type":"uint256"}],"name":"register","outputs":[],"stateMutability":"payable","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256","name":"years","type":"uint256"},{"internalType":"address","name":"resolver","type":"address"},{"internalType":"address","name":"addr","type":"address"}],"name":"registerWithConfig","outputs":[],"stateMutability":"payable","type":"function"},{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"uint256","name":"years","type":"uint256"}],"name":"renew","outputs":[],"stateMutability":"payable","type":"function"},{"inputs":[{"internalType":"uint256","name":"activationTime","type":"uint256"},{"internalType":"uint256","name":"minLength","type":"uint256"},{"internalType":"uint256","name":"maxLength","type":"uint256"}],"name":"addEpoch","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"uint256","name":"minLength","type":"uint256"},{"internalType":"uint256","name":"freeCount","type":"uint256"},{"internalType":"uint256","name":"allowedCount","type":"uint256"},{"internalType":"address[]","name":"addresses","type":"address[]"}],"name":"grant","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"team","type":"address"}],"name":"setTeamAddress","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"uint256","name":"window","type":"uint256"}],"name":"setWLPriority","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"uint256","name":"length","type":"uint256"},{"internalType":"uint256","name":"price","type":"uint256"}],"name":"setPrice","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"uint256","name":"price","type":"uint256"}],"name":"setYearlyBasePrice","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"base","type":"address"}],"name":"setBase","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"token","type":"address"}],"name":"withdrawToken","outputs":[],"stateMutability":"nonpayable","type":"function"},{"anonymous":false,"inputs":[{"indexed":false,"internalType":"string","name":"name","type":"string"},{"indexed":true,"internalType":"bytes32","name":"label","type":"bytes32"},{"indexed":true,"internalType":"address","name":"owner","type":"address"},{"indexed":false,"internalType":"uint256","name":"cost","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"expires","type":"uint256"}],"name":"NameRegistered","type":"event"},{"anonymous":false,"inputs":[{"indexed":false,"internalType":"string","name":"name","type":"string"},{"indexed":true,"internalType":"bytes32","name":"label","type":"bytes32"},{"indexed":false,"internalType":"uint256","name":"cost","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"expires","type":"uint256"}],"name":"NameRenewed","type":"event"}]`

var (
	contractABI abi.ABI

	registeredEvent abi.Event
	renewedEvent    abi.Event
)

func init() {
	var err error
	contractABI, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
	var ok bool
	if registeredEvent, ok = contractABI.Events["NameRegistered"]; !ok {
		panic("unknown controller event NameRegistered")
	}
	if renewedEvent, ok = contractABI.Events["NameRenewed"]; !ok {
		panic("unknown controller event NameRenewed")
	}
}

// Pack encodes a call to method with args.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return contractABI.Pack(method, args...)
}

// Unpack decodes the return data of method.
func Unpack(method string, data []byte) ([]interface{}, error) {
	return contractABI.Unpack(method, data)
}

// Contract dispatches calldata to a controller.
type Contract struct {
	c *registrar.Controller
}

// New wraps c.
func New(c *registrar.Controller) *Contract {
	return &Contract{c: c}
}

// Run executes one call: the first 4 bytes of input select the method, the
// rest are its ABI-encoded arguments.
func (k *Contract) Run(msg inter.Msg, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, revert(fmt.Errorf("calldata shorter than a selector"))
	}
	method, err := contractABI.MethodById(input[:4])
	if err != nil {
		return nil, revert(err)
	}
	if !method.IsPayable() && msg.Amount().Sign() != 0 {
		return nil, revert(fmt.Errorf("%w: %s is not payable", registrar.ErrInvalidInput, method.Name))
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, revert(err)
	}
	out, err := k.call(msg, method.Name, args)
	if err != nil {
		return nil, revert(err)
	}
	return method.Outputs.Pack(out...)
}

func (k *Contract) call(msg inter.Msg, name string, args []interface{}) ([]interface{}, error) {
	a := argReader{args: args}
	switch name {
	case "available":
		ok, err := k.c.Available(a.string())
		return []interface{}{ok}, err

	case "canRegister":
		available, canMint, err := k.c.CanRegister(a.string(), a.address())
		return []interface{}{available, canMint}, err

	case "rentPrice":
		label, years := a.string(), a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		return []interface{}{k.c.RentPrice(label, years)}, nil

	case "rentPriceForUser":
		label, user, years := a.string(), a.address(), a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		return []interface{}{k.c.RentPriceForUser(label, user, years)}, nil

	case "yearlyPrice":
		length := a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		return []interface{}{k.c.YearlyPrice(length)}, nil

	case "nameExpires":
		expires, err := k.c.NameExpires(a.string())
		return []interface{}{seconds(expires)}, err

	case "owner":
		return []interface{}{k.c.Owner()}, nil

	case "currentEpoch":
		e := k.c.CurrentEpoch()
		return []interface{}{seconds(e.ActivationTime), new(big.Int).SetUint64(e.MinLength), new(big.Int).SetUint64(e.MaxLength)}, nil

	case "whitelist":
		w := k.c.Whitelist(a.address())
		return []interface{}{
			new(big.Int).SetUint64(w.MinLength),
			new(big.Int).SetUint64(w.FreeCount),
			new(big.Int).SetUint64(w.AllowedCount),
		}, nil

	case "register":
		label, owner, years := a.string(), a.address(), a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		_, err := k.c.Register(msg, label, owner, years)
		return nil, err

	case "registerWithConfig":
		label, owner, years, resolver, addr := a.string(), a.address(), a.uint64(), a.address(), a.address()
		if a.err != nil {
			return nil, a.err
		}
		_, err := k.c.RegisterWithConfig(msg, label, owner, years, resolver, addr)
		return nil, err

	case "renew":
		label, years := a.string(), a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		_, err := k.c.Renew(msg, label, years)
		return nil, err

	case "addEpoch":
		activation, minLength, maxLength := a.timestamp(), a.uint64(), a.uint64()
		if a.err != nil {
			return nil, a.err
		}
		_, err := k.c.AddEpoch(msg, activation, minLength, maxLength)
		return nil, err

	case "grant":
		minLength, freeCount, allowedCount, addrs := a.uint64(), a.uint64(), a.uint64(), a.addresses()
		if a.err != nil {
			return nil, a.err
		}
		return nil, k.c.Grant(msg, minLength, freeCount, allowedCount, addrs)

	case "setTeamAddress":
		return nil, k.c.SetTeamAddress(msg, a.address())

	case "setWLPriority":
		window := a.timestamp()
		if a.err != nil {
			return nil, a.err
		}
		return nil, k.c.SetWLPriority(msg, window)

	case "setPrice":
		length, price := a.uint64(), a.bigInt()
		if a.err != nil {
			return nil, a.err
		}
		return nil, k.c.SetPrice(msg, length, price)

	case "setYearlyBasePrice":
		return nil, k.c.SetYearlyBasePrice(msg, a.bigInt())

	case "setBase":
		return nil, k.c.SetBase(msg, a.address())

	case "transferOwnership":
		return nil, k.c.TransferOwnership(msg, a.address())

	case "withdraw":
		_, err := k.c.Withdraw(msg)
		return nil, err

	case "withdrawToken":
		_, err := k.c.WithdrawToken(msg, a.address())
		return nil, err
	}
	return nil, fmt.Errorf("method %s is not implemented", name)
}

// RegisteredLog encodes a registration as an EVM log: topics and data.
func RegisteredLog(rec inter.NameRegistered) ([]common.Hash, []byte, error) {
	data, err := registeredEvent.Inputs.NonIndexed().Pack(rec.Name, rec.Cost, seconds(rec.Expires))
	if err != nil {
		return nil, nil, err
	}
	topics := []common.Hash{registeredEvent.ID, rec.Label, common.BytesToHash(rec.Owner.Bytes())}
	return topics, data, nil
}

// RenewedLog encodes a renewal as an EVM log: topics and data.
func RenewedLog(rec inter.NameRenewed) ([]common.Hash, []byte, error) {
	data, err := renewedEvent.Inputs.NonIndexed().Pack(rec.Name, rec.Cost, seconds(rec.Expires))
	if err != nil {
		return nil, nil, err
	}
	return []common.Hash{renewedEvent.ID, rec.Label}, data, nil
}

func revert(err error) error {
	return fmt.Errorf("%w: %w", vm.ErrExecutionReverted, err)
}

func seconds(t inter.Timestamp) *big.Int {
	return new(big.Int).SetUint64(uint64(t) / uint64(inter.FromUnix(1)))
}

// argReader consumes unpacked arguments in order. The first conversion
// failure sticks in err.
type argReader struct {
	args []interface{}
	pos  int
	err  error
}

func (r *argReader) next() interface{} {
	if r.pos >= len(r.args) {
		r.fail(fmt.Errorf("missing argument %d", r.pos))
		return nil
	}
	v := r.args[r.pos]
	r.pos++
	return v
}

func (r *argReader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
	}
}

func (r *argReader) string() string {
	s, _ := r.next().(string)
	return s
}

func (r *argReader) address() common.Address {
	a, _ := r.next().(common.Address)
	return a
}

func (r *argReader) addresses() []common.Address {
	a, _ := r.next().([]common.Address)
	return a
}

func (r *argReader) bigInt() *big.Int {
	v, _ := r.next().(*big.Int)
	if v == nil {
		return new(big.Int)
	}
	return v
}

func (r *argReader) uint64() uint64 {
	v := r.bigInt()
	if !v.IsUint64() {
		r.fail(fmt.Errorf("%s does not fit uint64", v))
		return 0
	}
	return v.Uint64()
}

// timestamp reads Unix seconds.
func (r *argReader) timestamp() inter.Timestamp {
	secs := r.uint64()
	if secs > math.MaxUint64/uint64(inter.FromUnix(1)) {
		r.fail(fmt.Errorf("%d seconds overflow the clock", secs))
		return 0
	}
	return inter.Timestamp(secs) * inter.FromUnix(1)
}
