package registrar

import (
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
	"github.com/rony4d/go-opera-names/ledger/memledger"
	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/store/memory"
)

var (
	owner        = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	team         = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	self         = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	baseAddr     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	resolverAddr = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	window = inter.Timestamp(time.Hour)
)

const startBalance = 1_000_000

type testEnv struct {
	chain    *memledger.Chain
	reg      *memledger.BaseRegistrar
	resolver *memledger.PublicResolver
	db       store.KVStore
	promReg  *prometheus.Registry
	metrics  *Metrics
	c        *Controller
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() Config {
	return Config{
		Self:            self,
		Owner:           owner,
		Team:            team,
		Base:            baseAddr,
		YearlyBasePrice: big.NewInt(100),
		WLPriority:      window,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	chain := memledger.New(memledger.Genesis{
		Balances: map[common.Address]*big.Int{
			alice: big.NewInt(startBalance),
			bob:   big.NewInt(startBalance),
		},
	})
	env := &testEnv{
		chain:    chain,
		reg:      chain.DeployRegistrar(baseAddr, ledger.NameHash("ftm")),
		resolver: chain.DeployResolver(resolverAddr),
		db:       memory.New(),
		promReg:  prometheus.NewRegistry(),
	}
	env.reg.AddController(self)
	env.metrics = NewMetrics(env.promReg)
	env.c = env.open(t, chain)
	return env
}

func (e *testEnv) open(t *testing.T, backend ledger.Backend) *Controller {
	t.Helper()
	c, err := New(backend, e.db, testConfig(), WithLogger(quietLogger()), WithMetrics(e.metrics))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// openPhase activates a phase now and moves past the priority window.
func (e *testEnv) openPhase(t *testing.T, minLength, maxLength uint64) {
	t.Helper()
	_, err := e.c.AddEpoch(inter.Call(owner), e.chain.Now(), minLength, maxLength)
	require.NoError(t, err)
	e.chain.Advance(window.Duration())
}

func (e *testEnv) balance(addr common.Address) int64 {
	return e.chain.BalanceOf(addr).Int64()
}

func assertWei(t *testing.T, want int64, got *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, big.NewInt(want).String(), got.String(), msgAndArgs...)
}

func pay(from common.Address, v int64) inter.Msg {
	return inter.Pay(from, big.NewInt(v))
}

func TestNewRequiresSelfAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Self = common.Address{}
	_, err := New(memledger.New(memledger.Genesis{}), memory.New(), cfg, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 3, 64)

	available, err := e.c.Available("hello")
	require.NoError(t, err)
	require.True(t, available)

	rec, err := e.c.Register(pay(alice, 100), "hello", alice, 1)
	require.NoError(t, err)

	assert.Equal(t, "hello", rec.Name)
	assert.Equal(t, ledger.LabelHash("hello"), rec.Label)
	assert.Equal(t, alice, rec.Owner)
	assertWei(t, 100, rec.Cost)
	assert.Equal(t, e.chain.Now().Add(inter.Year), rec.Expires)

	available, err = e.c.Available("hello")
	require.NoError(t, err)
	assert.False(t, available)

	assert.Equal(t, alice, e.reg.OwnerOf(ledger.TokenID("hello")))
	assert.Equal(t, int64(startBalance-100), e.balance(alice))
	assert.Equal(t, int64(100), e.balance(team))
	assert.Equal(t, int64(0), e.balance(self))

	expires, err := e.c.NameExpires("hello")
	require.NoError(t, err)
	assert.Equal(t, rec.Expires, expires)

	assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.Registrations))
	assert.Equal(t, float64(100), testutil.ToFloat64(e.metrics.Revenue))
}

func TestRegisterTwiceIsNotEligible(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)

	_, err := e.c.Register(pay(alice, 100), "taken", alice, 1)
	require.NoError(t, err)
	_, err = e.c.Register(pay(bob, 100), "taken", bob, 1)
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.Equal(t, int64(startBalance), e.balance(bob))
}

func TestRegisterOverpaymentRefund(t *testing.T) {
	for _, k := range []int64{0, 1, 999} {
		t.Run(big.NewInt(k).String(), func(t *testing.T) {
			e := newTestEnv(t)
			e.openPhase(t, 1, 64)

			rec, err := e.c.Register(pay(alice, 200+k), "abcde", alice, 2)
			require.NoError(t, err)
			assertWei(t, 200, rec.Cost)
			assert.Equal(t, int64(startBalance-200), e.balance(alice), "excess refunded")
			assert.Equal(t, int64(200), e.balance(team))

			receipts, err := e.c.Receipts(0, 0)
			require.NoError(t, err)
			require.Len(t, receipts, 1)
			assertWei(t, k, receipts[0].Refund)
		})
	}
}

func TestRegisterRejections(t *testing.T) {
	tests := []struct {
		name  string
		msg   inter.Msg
		label string
		owner common.Address
		years uint64
		res   common.Address
		addr  common.Address
		want  error
	}{
		{"empty_name", pay(alice, 100), "", alice, 1, common.Address{}, common.Address{}, ErrInvalidInput},
		{"zero_owner", pay(alice, 100), "hello", common.Address{}, 1, common.Address{}, common.Address{}, ErrInvalidInput},
		{"zero_years", pay(alice, 100), "hello", alice, 0, common.Address{}, common.Address{}, ErrInvalidInput},
		{"too_many_years", pay(alice, 100_000), "hello", alice, MaxYears + 1, common.Address{}, common.Address{}, ErrInvalidInput},
		{"underpaid", pay(alice, 99), "hello", alice, 1, common.Address{}, common.Address{}, ErrInsufficientPayment},
		{"addr_without_resolver", pay(alice, 100), "hello", alice, 1, common.Address{}, alice, ErrInconsistentConfig},
		{"unknown_resolver", pay(alice, 100), "hello", alice, 1, common.HexToAddress("0xdead"), alice, ErrLedger},
		{"below_phase_minimum", pay(alice, 100), "ab", alice, 1, common.Address{}, common.Address{}, ErrNotEligible},
		{"beyond_phase_maximum", pay(alice, 100), "abcdefghijk", alice, 1, common.Address{}, common.Address{}, ErrNotEligible},
		{"cannot_afford", pay(alice, startBalance+100), "hello", alice, 1, common.Address{}, common.Address{}, ErrTransferFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.openPhase(t, 3, 10)

			_, err := e.c.RegisterWithConfig(tt.msg, tt.label, tt.owner, tt.years, tt.res, tt.addr)
			require.ErrorIs(t, err, tt.want)

			assert.Equal(t, int64(startBalance), e.balance(alice))
			assert.Equal(t, int64(0), e.balance(team))
			if IsValidName(tt.label) {
				available, err := e.c.Available(tt.label)
				require.NoError(t, err)
				assert.True(t, available)
			}
			receipts, err := e.c.Receipts(0, 0)
			require.NoError(t, err)
			assert.Empty(t, receipts)
			assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.Rejections.WithLabelValues("register", Reason(tt.want))))
		})
	}
}

func TestRegisterWithoutPhases(t *testing.T) {
	e := newTestEnv(t)
	e.chain.Advance(1000 * time.Hour)
	require.NoError(t, e.c.Grant(inter.Call(owner), 1, 1, 5, []common.Address{alice}))

	for _, user := range []common.Address{alice, bob} {
		available, canMint, err := e.c.CanRegister("hello", user)
		require.NoError(t, err)
		assert.True(t, available)
		assert.False(t, canMint)
	}
	assert.Equal(t, inter.NoEpoch, e.c.CurrentEpoch())

	_, err := e.c.Register(pay(alice, 100), "hello", alice, 1)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestPriorityWindow(t *testing.T) {
	e := newTestEnv(t)
	T := e.chain.Now().Add(inter.Day)
	_, err := e.c.AddEpoch(inter.Call(owner), T, 3, 10)
	require.NoError(t, err)
	require.NoError(t, e.c.Grant(inter.Call(owner), 0, 0, 1, []common.Address{alice}))

	e.chain.SetTime(T)

	_, canMint, err := e.c.CanRegister("ab", alice)
	require.NoError(t, err)
	assert.False(t, canMint, "below both minimums")
	_, canMint, err = e.c.CanRegister("abc", alice)
	require.NoError(t, err)
	assert.True(t, canMint)

	_, canMint, err = e.c.CanRegister("abcde", bob)
	require.NoError(t, err)
	assert.False(t, canMint, "bob waits for the window")
	_, err = e.c.Register(pay(bob, 100), "abcde", bob, 1)
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = e.c.Register(pay(alice, 100), "abc", alice, 1)
	require.NoError(t, err)
	assert.Equal(t, inter.WhitelistEntry{}, e.c.Whitelist(alice), "allowance used up")

	_, canMint, err = e.c.CanRegister("abcd", alice)
	require.NoError(t, err)
	assert.False(t, canMint, "alice is public now")

	e.chain.SetTime(T.Add(window))
	_, canMint, err = e.c.CanRegister("abcde", bob)
	require.NoError(t, err)
	assert.True(t, canMint)
	_, err = e.c.Register(pay(bob, 100), "abcde", bob, 1)
	assert.NoError(t, err)
}

func TestFreeRegistration(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)
	require.NoError(t, e.c.Grant(inter.Call(owner), 0, 2, 0, []common.Address{alice}))

	assertWei(t, 200, e.c.RentPriceForUser("hello", alice, 3))
	assertWei(t, 300, e.c.RentPrice("hello", 3))

	rec, err := e.c.Register(pay(alice, 0), "hello", alice, 1)
	require.NoError(t, err)
	assertWei(t, 0, rec.Cost)
	assert.Equal(t, inter.WhitelistEntry{FreeCount: 1}, e.c.Whitelist(alice))
	assert.Equal(t, int64(startBalance), e.balance(alice))
}

func TestRegisterWithResolver(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)
	target := common.HexToAddress("0x00000000000000000000000000000000000000f1")

	_, err := e.c.RegisterWithConfig(pay(alice, 100), "wired", bob, 1, resolverAddr, target)
	require.NoError(t, err)

	node := ledger.SubNode(ledger.NameHash("ftm"), ledger.LabelHash("wired"))
	assert.Equal(t, node, ledger.NameHash("wired.ftm"))
	assert.Equal(t, target, e.resolver.Addr(node))
	assert.Equal(t, resolverAddr, e.reg.Registry().Resolver(node))
	assert.Equal(t, bob, e.reg.Registry().Owner(node))
	assert.Equal(t, bob, e.reg.OwnerOf(ledger.TokenID("wired")))

	_, err = e.c.RegisterWithConfig(pay(alice, 100), "noaddr", bob, 1, resolverAddr, common.Address{})
	require.NoError(t, err)
	node = ledger.NameHash("noaddr.ftm")
	assert.Equal(t, common.Address{}, e.resolver.Addr(node))
	assert.Equal(t, bob, e.reg.Registry().Owner(node))
}

func TestRenew(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)

	reg, err := e.c.Register(pay(alice, 100), "hello", alice, 1)
	require.NoError(t, err)
	e.chain.Advance(30 * 24 * time.Hour)

	// free quotas do not apply to renewals
	require.NoError(t, e.c.Grant(inter.Call(owner), 0, 5, 0, []common.Address{bob}))
	before := e.balance(bob)
	rec, err := e.c.Renew(pay(bob, 100), "hello", 1)
	require.NoError(t, err)

	assert.Equal(t, reg.Expires.Add(inter.Year), rec.Expires)
	assertWei(t, 100, rec.Cost)
	assert.Equal(t, before-100, e.balance(bob), "no refund on exact payment")
	assert.Equal(t, int64(200), e.balance(team))
	assert.Equal(t, inter.WhitelistEntry{FreeCount: 5}, e.c.Whitelist(bob))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.Renewals))

	receipts, err := e.c.Receipts(1, 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, inter.ReceiptRenewal, receipts[0].Kind)
	assert.Equal(t, uint64(1), receipts[0].Seq)
	assert.Equal(t, bob, receipts[0].Payer)
}

func TestRenewRejections(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)

	_, err := e.c.Renew(pay(alice, 100), "ghost", 1)
	assert.ErrorIs(t, err, ErrLedger)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)

	_, err = e.c.Renew(pay(alice, 99), "ghost", 1)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	_, err = e.c.Renew(pay(alice, 100), "ghost", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, int64(startBalance), e.balance(alice))
}

// flakyBackend fails chosen value transfers.
type flakyBackend struct {
	*memledger.Chain
	mock.Mock
}

func (b *flakyBackend) Transfer(from, to common.Address, amount *big.Int) error {
	if err := b.Called(from, to, amount).Error(0); err != nil {
		return err
	}
	return b.Chain.Transfer(from, to, amount)
}

func TestTransferFailureRevertsEverything(t *testing.T) {
	errRejected := errors.New("recipient rejected value")

	tests := []struct {
		name  string
		setup func(b *flakyBackend)
	}{
		{
			name: "refund",
			setup: func(b *flakyBackend) {
				b.On("Transfer", self, alice, mock.Anything).Return(errRejected)
			},
		},
		{
			name: "payout",
			setup: func(b *flakyBackend) {
				b.On("Transfer", self, team, mock.Anything).Return(errRejected)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.openPhase(t, 1, 64)
			require.NoError(t, e.c.Grant(inter.Call(owner), 0, 0, 3, []common.Address{alice}))

			b := &flakyBackend{Chain: e.chain}
			tt.setup(b)
			b.On("Transfer", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			c := e.open(t, b)

			_, err := c.RegisterWithConfig(pay(alice, 150), "hello", alice, 1, resolverAddr, alice)
			require.ErrorIs(t, err, ErrTransferFailed)
			require.ErrorIs(t, err, errRejected)

			available, err := c.Available("hello")
			require.NoError(t, err)
			assert.True(t, available)
			assert.Equal(t, common.Address{}, e.resolver.Addr(ledger.NameHash("hello.ftm")))
			assert.Equal(t, int64(startBalance), e.balance(alice))
			assert.Equal(t, int64(0), e.balance(self))
			assert.Equal(t, int64(0), e.balance(team))
			assert.Equal(t, inter.WhitelistEntry{AllowedCount: 3}, c.Whitelist(alice))

			receipts, err := c.Receipts(0, 0)
			require.NoError(t, err)
			assert.Empty(t, receipts)
		})
	}
}

func TestRegistrarFailureReverts(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)
	e.reg.RemoveController(self)

	_, err := e.c.Register(pay(alice, 100), "hello", alice, 1)
	require.ErrorIs(t, err, ErrLedger)
	assert.ErrorIs(t, err, ledger.ErrNotAuthorised)
	assert.Equal(t, int64(startBalance), e.balance(alice))
	assert.Equal(t, int64(0), e.balance(self))
}

func TestFeeds(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 1, 64)

	registered := make(chan inter.NameRegistered, 1)
	renewed := make(chan inter.NameRenewed, 1)
	sub1 := e.c.SubscribeRegistered(registered)
	defer sub1.Unsubscribe()
	sub2 := e.c.SubscribeRenewed(renewed)
	defer sub2.Unsubscribe()

	rec, err := e.c.Register(pay(alice, 100), "hello", alice, 1)
	require.NoError(t, err)
	select {
	case got := <-registered:
		assert.Equal(t, *rec, got)
	case <-time.After(time.Second):
		t.Fatal("no registration event")
	}

	ren, err := e.c.Renew(pay(alice, 100), "hello", 1)
	require.NoError(t, err)
	select {
	case got := <-renewed:
		assert.Equal(t, *ren, got)
	case <-time.After(time.Second):
		t.Fatal("no renewal event")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	e := newTestEnv(t)
	e.openPhase(t, 2, 64)
	require.NoError(t, e.c.Grant(inter.Call(owner), 1, 2, 3, []common.Address{alice, bob}))
	require.NoError(t, e.c.SetPrice(inter.Call(owner), 3, big.NewInt(640)))
	require.NoError(t, e.c.SetTeamAddress(inter.Call(owner), bob))
	_, err := e.c.Register(pay(alice, 640), "abc", alice, 1)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Owner = common.HexToAddress("0x1234")
	reopened, err := New(e.chain, e.db, cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, owner, reopened.Owner(), "stored config wins")
	assert.Equal(t, bob, reopened.Config().Team)
	assert.Equal(t, e.c.Epochs(), reopened.Epochs())
	assert.Equal(t, inter.WhitelistEntry{MinLength: 1, FreeCount: 1, AllowedCount: 2}, reopened.Whitelist(alice))
	assert.Equal(t, inter.WhitelistEntry{MinLength: 1, FreeCount: 2, AllowedCount: 3}, reopened.Whitelist(bob))
	assertWei(t, 640, reopened.YearlyPrice(3))
	require.Len(t, reopened.Prices(), 1)
	assertWei(t, 640, reopened.Prices()[3])

	receipts, err := reopened.Receipts(0, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "abc", receipts[0].Name)

	_, err = reopened.Renew(pay(alice, 640), "abc", 1)
	require.NoError(t, err)
	receipts, err = reopened.Receipts(0, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, uint64(1), receipts[1].Seq)
}
