package controllerabi

import (
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
	"github.com/rony4d/go-opera-names/ledger/memledger"
	"github.com/rony4d/go-opera-names/registrar"
	"github.com/rony4d/go-opera-names/store/memory"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	team     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	self     = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	baseAddr = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

func newContract(t *testing.T) (*Contract, *memledger.Chain) {
	t.Helper()
	chain := memledger.New(memledger.Genesis{
		Balances: map[common.Address]*big.Int{alice: big.NewInt(10_000)},
	})
	chain.DeployRegistrar(baseAddr, ledger.NameHash("ftm")).AddController(self)

	log := logrus.New()
	log.SetOutput(io.Discard)
	c, err := registrar.New(chain, memory.New(), registrar.Config{
		Self:            self,
		Owner:           owner,
		Team:            team,
		Base:            baseAddr,
		YearlyBasePrice: big.NewInt(100),
		WLPriority:      inter.Timestamp(time.Hour),
	}, registrar.WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return New(c), chain
}

func call(t *testing.T, k *Contract, msg inter.Msg, method string, args ...interface{}) ([]interface{}, error) {
	t.Helper()
	input, err := Pack(method, args...)
	require.NoError(t, err)
	out, err := k.Run(msg, input)
	if err != nil {
		return nil, err
	}
	res, err := Unpack(method, out)
	require.NoError(t, err)
	return res, nil
}

func TestMethodIDs(t *testing.T) {
	for sig, name := range map[string]string{
		"register(string,address,uint256)":                           "register",
		"registerWithConfig(string,address,uint256,address,address)": "registerWithConfig",
		"renew(string,uint256)":                                      "renew",
		"grant(uint256,uint256,uint256,address[])":                   "grant",
		"rentPrice(string,uint256)":                                  "rentPrice",
	} {
		method, err := contractABI.MethodById(crypto.Keccak256([]byte(sig))[:4])
		require.NoError(t, err, sig)
		assert.Equal(t, name, method.Name)
	}
}

func TestRegisterThroughABI(t *testing.T) {
	k, chain := newContract(t)
	o := inter.Call(owner)
	now := chain.Now()

	_, err := call(t, k, o, "addEpoch", big.NewInt(now.Unix()), big.NewInt(1), big.NewInt(64))
	require.NoError(t, err)
	chain.Advance(time.Hour)

	res, err := call(t, k, inter.Call(alice), "currentEpoch")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(now.Unix()).String(), res[0].(*big.Int).String())
	assert.Equal(t, "64", res[2].(*big.Int).String())

	res, err = call(t, k, inter.Call(alice), "rentPrice", "hello", big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, "200", res[0].(*big.Int).String())

	res, err = call(t, k, inter.Call(alice), "canRegister", "hello", alice)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true, true}, res)

	_, err = call(t, k, inter.Pay(alice, big.NewInt(150)), "register", "hello", alice, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(10_000-100), chain.BalanceOf(alice).Int64())

	res, err = call(t, k, inter.Call(alice), "available", "hello")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{false}, res)

	res, err = call(t, k, inter.Call(alice), "nameExpires", "hello")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(chain.Now().Add(inter.Year).Unix()).String(), res[0].(*big.Int).String())

	_, err = call(t, k, inter.Pay(alice, big.NewInt(100)), "renew", "hello", big.NewInt(1))
	require.NoError(t, err)
}

func TestGrantThroughABI(t *testing.T) {
	k, _ := newContract(t)
	bob := common.HexToAddress("0xb0b")

	_, err := call(t, k, inter.Call(owner), "grant", big.NewInt(2), big.NewInt(1), big.NewInt(3), []common.Address{alice, bob})
	require.NoError(t, err)

	res, err := call(t, k, inter.Call(owner), "whitelist", bob)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "2", res[0].(*big.Int).String())
	assert.Equal(t, "1", res[1].(*big.Int).String())
	assert.Equal(t, "3", res[2].(*big.Int).String())
}

func TestReverts(t *testing.T) {
	k, _ := newContract(t)

	t.Run("short_calldata", func(t *testing.T) {
		_, err := k.Run(inter.Call(alice), []byte{1, 2})
		assert.ErrorIs(t, err, vm.ErrExecutionReverted)
	})

	t.Run("unknown_selector", func(t *testing.T) {
		_, err := k.Run(inter.Call(alice), []byte{0xde, 0xad, 0xbe, 0xef})
		assert.ErrorIs(t, err, vm.ErrExecutionReverted)
	})

	t.Run("truncated_arguments", func(t *testing.T) {
		input, err := Pack("renew", "hello", big.NewInt(1))
		require.NoError(t, err)
		_, err = k.Run(inter.Call(alice), input[:20])
		assert.ErrorIs(t, err, vm.ErrExecutionReverted)
	})

	t.Run("value_to_view", func(t *testing.T) {
		_, err := call(t, k, inter.Pay(alice, big.NewInt(1)), "owner")
		assert.ErrorIs(t, err, vm.ErrExecutionReverted)
		assert.ErrorIs(t, err, registrar.ErrInvalidInput)
	})

	t.Run("not_owner", func(t *testing.T) {
		_, err := call(t, k, inter.Call(alice), "setWLPriority", big.NewInt(60))
		assert.ErrorIs(t, err, vm.ErrExecutionReverted)
		assert.ErrorIs(t, err, registrar.ErrUnauthorized)
	})

	t.Run("years_overflow", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 70)
		_, err := call(t, k, inter.Pay(alice, big.NewInt(100)), "register", "hello", alice, huge)
		assert.ErrorIs(t, err, registrar.ErrInvalidInput)
	})

	t.Run("no_phase", func(t *testing.T) {
		_, err := call(t, k, inter.Pay(alice, big.NewInt(100)), "register", "hello", alice, big.NewInt(1))
		assert.ErrorIs(t, err, registrar.ErrNotEligible)
	})
}

func TestSetWLPriorityUsesSeconds(t *testing.T) {
	k, _ := newContract(t)
	_, err := call(t, k, inter.Call(owner), "setWLPriority", big.NewInt(90))
	require.NoError(t, err)
	assert.Equal(t, inter.Timestamp(90*time.Second), k.c.Config().WLPriority)
}

func TestRegisteredLog(t *testing.T) {
	rec := inter.NameRegistered{
		Name:    "hello",
		Label:   ledger.LabelHash("hello"),
		Owner:   alice,
		Cost:    big.NewInt(100),
		Expires: inter.FromUnix(1700000000),
	}
	topics, data, err := RegisteredLog(rec)
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, crypto.Keccak256Hash([]byte("NameRegistered(string,bytes32,address,uint256,uint256)")), topics[0])
	assert.Equal(t, rec.Label, topics[1])
	assert.Equal(t, common.BytesToHash(alice.Bytes()), topics[2])

	values, err := registeredEvent.Inputs.NonIndexed().Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, "hello", values[0])
	assert.Equal(t, "1700000000", values[2].(*big.Int).String())

	topics, _, err = RenewedLog(inter.NameRenewed{Name: "hello", Label: rec.Label, Cost: big.NewInt(1), Expires: rec.Expires})
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}
