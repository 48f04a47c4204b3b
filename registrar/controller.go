// Package registrar implements the name registrar controller: a phased rollout
// of name registrations with per-address quotas, length-tiered pricing and
// atomic register/renew transactions against an external ledger.
package registrar

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
	"github.com/rony4d/go-opera-names/store"
)

// Controller executes registrations and renewals. Operations are serialized:
// each one validates, mutates the ledger inside a journal snapshot and persists
// its local writes in one batch before the next one starts.
type Controller struct {
	mu      sync.RWMutex
	backend ledger.Backend
	db      store.KVStore
	st      *state

	log     logrus.FieldLogger
	metrics *Metrics

	registeredFeed event.Feed
	renewedFeed    event.Feed
	scope          event.SubscriptionScope
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

// WithMetrics sets the metrics. Defaults to unregistered metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New opens a controller over db. A db that already holds controller state is
// resumed and cfg is ignored; an empty db is initialised from cfg.
func New(backend ledger.Backend, db store.KVStore, cfg Config, opts ...Option) (*Controller, error) {
	c := &Controller{
		backend: backend,
		db:      db,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(prometheus.NewRegistry())
	}

	st, found, err := loadState(db)
	if err != nil {
		return nil, fmt.Errorf("%w: load state: %v", ErrStorage, err)
	}
	if !found {
		if cfg.Self == (common.Address{}) {
			return nil, fmt.Errorf("%w: controller address is required", ErrInvalidInput)
		}
		st = newState(cfg)
		init := cfg.Copy()
		if err := st.commit(db, &change{config: &init}); err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"self":  cfg.Self.Hex(),
			"owner": cfg.Owner.Hex(),
			"base":  cfg.Base.Hex(),
		}).Info("Initialised controller state")
	} else {
		c.log.WithFields(logrus.Fields{
			"self":   st.config.Self.Hex(),
			"epochs": st.schedule.Len(),
			"quotas": len(st.quotas),
		}).Info("Resumed controller state")
	}
	c.st = st
	c.metrics.Epochs.Set(float64(st.schedule.Len()))
	return c, nil
}

// Close unsubscribes every feed subscriber. The store is owned by the caller.
func (c *Controller) Close() {
	c.scope.Close()
}

// SubscribeRegistered delivers every committed registration to ch.
func (c *Controller) SubscribeRegistered(ch chan<- inter.NameRegistered) event.Subscription {
	return c.scope.Track(c.registeredFeed.Subscribe(ch))
}

// SubscribeRenewed delivers every committed renewal to ch.
func (c *Controller) SubscribeRenewed(ch chan<- inter.NameRenewed) event.Subscription {
	return c.scope.Track(c.renewedFeed.Subscribe(ch))
}

func (c *Controller) registrar() (ledger.Registrar, error) {
	reg, err := c.backend.Registrar(c.st.config.Base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	return reg, nil
}

// Views

// Config returns a copy of the deployment config.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.config.Copy()
}

// Owner returns the administrative owner.
func (c *Controller) Owner() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.config.Owner
}

// Epochs returns every phase in activation order.
func (c *Controller) Epochs() []inter.Epoch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.schedule.List()
}

// CurrentEpoch returns the phase active now, or inter.NoEpoch.
func (c *Controller) CurrentEpoch() inter.Epoch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.schedule.Current(c.backend.Now())
}

// Whitelist returns the quota entry of addr.
func (c *Controller) Whitelist(addr common.Address) inter.WhitelistEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.quotas.Peek(addr)
}

// Prices returns the explicit per-length price tiers.
func (c *Controller) Prices() Prices {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.prices.Copy()
}

// YearlyPrice is the yearly price of names with the given length.
func (c *Controller) YearlyPrice(length uint64) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return YearlyPrice(c.st.prices, c.st.config.YearlyBasePrice, length)
}

// RentPrice is the cost of holding name for years, without quota waivers.
func (c *Controller) RentPrice(name string, years uint64) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RentPrice(c.st.prices, c.st.config.YearlyBasePrice, name, years)
}

// RentPriceForUser is RentPrice minus one year when user holds a free registration.
func (c *Controller) RentPriceForUser(name string, user common.Address, years uint64) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rentPriceForUser(name, user, years)
}

func (c *Controller) rentPriceForUser(name string, user common.Address, years uint64) *big.Int {
	return RentPriceWithWaiver(c.st.prices, c.st.config.YearlyBasePrice, name, years, c.st.quotas.Peek(user).HasFree())
}

// Available reports whether name is valid and free on the registrar.
func (c *Controller) Available(name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, err := c.registrar()
	if err != nil {
		return false, err
	}
	return c.available(reg, name), nil
}

func (c *Controller) available(reg ledger.Registrar, name string) bool {
	return IsValidName(name) && reg.Available(ledger.TokenID(name))
}

// CanRegister reports whether name is available, and whether user may mint it now.
func (c *Controller) CanRegister(name string, user common.Address) (available, canMint bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, err := c.registrar()
	if err != nil {
		return false, false, err
	}
	available, canMint = c.canRegister(reg, name, user, c.backend.Now())
	return available, canMint, nil
}

func (c *Controller) canRegister(reg ledger.Registrar, name string, user common.Address, now inter.Timestamp) (available, canMint bool) {
	if !c.available(reg, name) {
		return false, false
	}
	phase := c.st.schedule.Current(now)
	return true, CanMint(phase, c.st.quotas.Peek(user), NameLength(name), now, c.st.config.WLPriority)
}

// NameExpires returns the registrar expiry of name.
func (c *Controller) NameExpires(name string) (inter.Timestamp, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, err := c.registrar()
	if err != nil {
		return 0, err
	}
	return reg.NameExpires(ledger.TokenID(name)), nil
}

// Receipts returns up to limit committed receipts starting at sequence from.
// A limit of zero returns all of them.
func (c *Controller) Receipts(from uint64, limit int) ([]inter.Receipt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs, err := readReceipts(c.db, from, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return rs, nil
}

// Payable operations

// Register mints name to owner for years without resolver records.
func (c *Controller) Register(msg inter.Msg, name string, owner common.Address, years uint64) (*inter.NameRegistered, error) {
	return c.RegisterWithConfig(msg, name, owner, years, common.Address{}, common.Address{})
}

// RegisterWithConfig mints name to owner for years. With a non-zero resolver
// the name is wired to it first, and addr (if non-zero) becomes its address
// record. msg.Value must cover the cost; the excess is refunded.
func (c *Controller) RegisterWithConfig(msg inter.Msg, name string, owner common.Address, years uint64, resolver, addr common.Address) (*inter.NameRegistered, error) {
	defer c.metrics.observe("register", time.Now())

	c.mu.Lock()
	rec, err := c.register(msg, name, owner, years, resolver, addr)
	c.mu.Unlock()
	if err != nil {
		c.rejected("register", name, msg.From, err)
		return nil, err
	}

	c.metrics.Registrations.Inc()
	c.metrics.earn(rec.Cost)
	c.log.WithFields(logrus.Fields{
		"name":    rec.Name,
		"owner":   rec.Owner.Hex(),
		"cost":    rec.Cost,
		"expires": rec.Expires,
	}).Info("Name registered")
	c.registeredFeed.Send(*rec)
	return rec, nil
}

func (c *Controller) register(msg inter.Msg, name string, owner common.Address, years uint64, resolver, addr common.Address) (*inter.NameRegistered, error) {
	if !IsValidName(name) {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero owner", ErrInvalidInput)
	}
	reg, err := c.registrar()
	if err != nil {
		return nil, err
	}
	now := c.backend.Now()
	available, canMint := c.canRegister(reg, name, msg.From, now)
	if !available {
		return nil, fmt.Errorf("%w: %q is not available", ErrNotEligible, name)
	}
	if !canMint {
		return nil, fmt.Errorf("%w: %q cannot be minted by %s now", ErrNotEligible, name, msg.From.Hex())
	}
	if err := checkYears(years); err != nil {
		return nil, err
	}
	cost := c.rentPriceForUser(name, msg.From, years)
	paid := msg.Amount()
	if paid.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: sent %s, cost %s", ErrInsufficientPayment, paid, cost)
	}
	var res ledger.Resolver
	if resolver == (common.Address{}) {
		if addr != (common.Address{}) {
			return nil, fmt.Errorf("%w: address record without resolver", ErrInconsistentConfig)
		}
	} else if res, err = c.backend.Resolver(resolver); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}

	label := ledger.LabelHash(name)
	id := label.Big()
	duration := inter.Year * inter.Timestamp(years)
	self := c.st.config.Self
	refund := new(big.Int).Sub(paid, cost)

	ch := &change{}
	if next, changed := c.st.quotas.ConsumeOne(msg.From); changed {
		ch.setQuota(msg.From, next)
	}

	var expires inter.Timestamp
	err = c.atomically(ch, msg, cost, refund, func() error {
		if res == nil {
			expires, err = reg.Register(self, name, id, owner, duration)
			return wrapLedger("register", err)
		}
		// the controller owns the name until the resolver records are set
		if expires, err = reg.Register(self, name, id, self, duration); err != nil {
			return wrapLedger("register", err)
		}
		node := ledger.SubNode(reg.BaseNode(), label)
		if err := reg.Registry().SetResolver(self, node, resolver); err != nil {
			return wrapLedger("set resolver", err)
		}
		if addr != (common.Address{}) {
			if err := res.SetAddr(self, node, addr); err != nil {
				return wrapLedger("set addr", err)
			}
		}
		if err := reg.Reclaim(self, id, owner); err != nil {
			return wrapLedger("reclaim", err)
		}
		return wrapLedger("transfer", reg.TransferFrom(self, self, owner, id))
	}, func() inter.Receipt {
		return inter.Receipt{
			Kind:    inter.ReceiptRegistration,
			Name:    name,
			Label:   label,
			Payer:   msg.From,
			Owner:   owner,
			Cost:    cost,
			Refund:  refund,
			Expires: expires,
			Time:    now,
		}
	})
	if err != nil {
		return nil, err
	}
	return &inter.NameRegistered{
		Name:    name,
		Label:   label,
		Owner:   owner,
		Cost:    cost,
		Expires: expires,
	}, nil
}

// Renew extends name by years. Quotas and phases do not apply.
func (c *Controller) Renew(msg inter.Msg, name string, years uint64) (*inter.NameRenewed, error) {
	defer c.metrics.observe("renew", time.Now())

	c.mu.Lock()
	rec, err := c.renew(msg, name, years)
	c.mu.Unlock()
	if err != nil {
		c.rejected("renew", name, msg.From, err)
		return nil, err
	}

	c.metrics.Renewals.Inc()
	c.metrics.earn(rec.Cost)
	c.log.WithFields(logrus.Fields{
		"name":    rec.Name,
		"cost":    rec.Cost,
		"expires": rec.Expires,
	}).Info("Name renewed")
	c.renewedFeed.Send(*rec)
	return rec, nil
}

func (c *Controller) renew(msg inter.Msg, name string, years uint64) (*inter.NameRenewed, error) {
	if !IsValidName(name) {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if err := checkYears(years); err != nil {
		return nil, err
	}
	reg, err := c.registrar()
	if err != nil {
		return nil, err
	}
	cost := RentPrice(c.st.prices, c.st.config.YearlyBasePrice, name, years)
	paid := msg.Amount()
	if paid.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: sent %s, cost %s", ErrInsufficientPayment, paid, cost)
	}

	label := ledger.LabelHash(name)
	refund := new(big.Int).Sub(paid, cost)
	now := c.backend.Now()

	var expires inter.Timestamp
	err = c.atomically(&change{}, msg, cost, refund, func() error {
		expires, err = reg.Renew(c.st.config.Self, label.Big(), inter.Year*inter.Timestamp(years))
		return wrapLedger("renew", err)
	}, func() inter.Receipt {
		return inter.Receipt{
			Kind:    inter.ReceiptRenewal,
			Name:    name,
			Label:   label,
			Payer:   msg.From,
			Cost:    cost,
			Refund:  refund,
			Expires: expires,
			Time:    now,
		}
	})
	if err != nil {
		return nil, err
	}
	return &inter.NameRenewed{
		Name:    name,
		Label:   label,
		Cost:    cost,
		Expires: expires,
	}, nil
}

// atomically runs one payable transaction: it takes the attached value, runs
// calls, refunds the excess, pays the cost to the team and persists ch plus a
// receipt. Any failure reverts the ledger to where it started, and ch is
// never applied.
func (c *Controller) atomically(ch *change, msg inter.Msg, cost, refund *big.Int, calls func() error, receipt func() inter.Receipt) error {
	self := c.st.config.Self
	snap := c.backend.Snapshot()

	err := func() error {
		if err := c.backend.Transfer(msg.From, self, msg.Amount()); err != nil {
			return fmt.Errorf("%w: collect payment: %w", ErrTransferFailed, err)
		}
		if err := calls(); err != nil {
			return err
		}
		if refund.Sign() > 0 {
			if err := c.backend.Transfer(self, msg.From, refund); err != nil {
				return fmt.Errorf("%w: refund: %w", ErrTransferFailed, err)
			}
		}
		if err := c.backend.Transfer(self, c.st.config.Team, cost); err != nil {
			return fmt.Errorf("%w: payout: %w", ErrTransferFailed, err)
		}
		ch.receipts = append(ch.receipts, receipt())
		return c.st.commit(c.db, ch)
	}()
	if err != nil {
		c.backend.RevertToSnapshot(snap)
		return err
	}
	c.backend.DiscardSnapshot(snap)
	return nil
}

func (c *Controller) rejected(op, name string, from common.Address, err error) {
	c.metrics.reject(op, err)
	c.log.WithFields(logrus.Fields{
		"op":     op,
		"name":   name,
		"from":   from.Hex(),
		"reason": Reason(err),
	}).WithError(err).Debug("Operation rejected")
}

func checkYears(years uint64) error {
	if years < 1 || years > MaxYears {
		return fmt.Errorf("%w: years must be within [1, %d], got %d", ErrInvalidInput, MaxYears, years)
	}
	return nil
}

func wrapLedger(call string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLedger, call, err)
}

