package registrar

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-names/inter"
)

// admin runs an owner-only, non-payable operation. fn stages its writes into
// ch; they are committed together with any ledger effects of fn, or not at all.
func (c *Controller) admin(op string, msg inter.Msg, fn func(ch *change) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := func() error {
		if msg.From != c.st.config.Owner {
			return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, msg.From.Hex())
		}
		if msg.Amount().Sign() != 0 {
			return fmt.Errorf("%w: %s does not accept value", ErrInvalidInput, op)
		}
		snap := c.backend.Snapshot()
		ch := &change{}
		err := fn(ch)
		if err == nil {
			err = c.st.commit(c.db, ch)
		}
		if err != nil {
			c.backend.RevertToSnapshot(snap)
			return err
		}
		c.backend.DiscardSnapshot(snap)
		return nil
	}()
	if err != nil {
		c.metrics.reject(op, err)
		c.log.WithFields(logrus.Fields{
			"op":     op,
			"from":   msg.From.Hex(),
			"reason": Reason(err),
		}).WithError(err).Debug("Admin operation rejected")
		return err
	}
	return nil
}

// configChange stages a modified copy of the config.
func (c *Controller) configChange(ch *change, edit func(cfg *Config)) {
	cfg := c.st.config.Copy()
	edit(&cfg)
	ch.config = &cfg
}

// AddEpoch appends a phase to the schedule and returns its position. A later
// activation time than every existing phase lands at the end.
func (c *Controller) AddEpoch(msg inter.Msg, activation inter.Timestamp, minLength, maxLength uint64) (idx.Epoch, error) {
	var pos idx.Epoch
	err := c.admin("add_epoch", msg, func(ch *change) error {
		if activation == 0 {
			return fmt.Errorf("%w: activation time zero is reserved", ErrInvalidInput)
		}
		var next Schedule
		next, pos = c.st.schedule.With(inter.Epoch{
			ActivationTime: activation,
			MinLength:      minLength,
			MaxLength:      maxLength,
		})
		ch.schedule = &next
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.metrics.Epochs.Set(float64(c.epochCount()))
	c.log.WithFields(logrus.Fields{
		"position":   pos,
		"activation": activation,
		"min":        minLength,
		"max":        maxLength,
	}).Info("Phase added")
	return pos, nil
}

func (c *Controller) epochCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.schedule.Len()
}

// Grant merges the same quota grant into every address.
func (c *Controller) Grant(msg inter.Msg, minLength, freeCount, allowedCount uint64, addrs []common.Address) error {
	err := c.admin("grant", msg, func(ch *change) error {
		if len(addrs) == 0 {
			return fmt.Errorf("%w: no addresses", ErrInvalidInput)
		}
		for _, addr := range addrs {
			if addr == (common.Address{}) {
				return fmt.Errorf("%w: zero address in grant", ErrInvalidInput)
			}
		}
		grant := inter.WhitelistEntry{MinLength: minLength, FreeCount: freeCount, AllowedCount: allowedCount}
		for addr, e := range c.st.quotas.Grant(grant, addrs) {
			ch.setQuota(addr, e)
		}
		return nil
	})
	if err == nil {
		c.log.WithFields(logrus.Fields{
			"addresses": len(addrs),
			"min":       minLength,
			"free":      freeCount,
			"allowed":   allowedCount,
		}).Info("Quota granted")
	}
	return err
}

// SetTeamAddress changes where registration and renewal costs are paid.
func (c *Controller) SetTeamAddress(msg inter.Msg, team common.Address) error {
	return c.admin("set_team", msg, func(ch *change) error {
		if team == (common.Address{}) {
			return fmt.Errorf("%w: zero team address", ErrInvalidInput)
		}
		c.configChange(ch, func(cfg *Config) { cfg.Team = team })
		return nil
	})
}

// SetWLPriority changes the priority window of every phase.
func (c *Controller) SetWLPriority(msg inter.Msg, window inter.Timestamp) error {
	return c.admin("set_priority", msg, func(ch *change) error {
		c.configChange(ch, func(cfg *Config) { cfg.WLPriority = window })
		return nil
	})
}

// SetPrice sets the yearly price of names with the given length. A zero or
// nil price removes the tier.
func (c *Controller) SetPrice(msg inter.Msg, length uint64, price *big.Int) error {
	return c.admin("set_price", msg, func(ch *change) error {
		if length == 0 {
			return fmt.Errorf("%w: zero-length price tier", ErrInvalidInput)
		}
		if price != nil && price.Sign() < 0 {
			return fmt.Errorf("%w: negative price", ErrInvalidInput)
		}
		if price != nil {
			price = new(big.Int).Set(price)
		}
		ch.setPrice(length, price)
		return nil
	})
}

// SetYearlyBasePrice changes the fallback yearly price.
func (c *Controller) SetYearlyBasePrice(msg inter.Msg, price *big.Int) error {
	return c.admin("set_base_price", msg, func(ch *change) error {
		if price == nil || price.Sign() < 0 {
			return fmt.Errorf("%w: base price must be non-negative", ErrInvalidInput)
		}
		c.configChange(ch, func(cfg *Config) { cfg.YearlyBasePrice = new(big.Int).Set(price) })
		return nil
	})
}

// SetBase points the controller at another base registrar.
func (c *Controller) SetBase(msg inter.Msg, base common.Address) error {
	return c.admin("set_base", msg, func(ch *change) error {
		if base == (common.Address{}) {
			return fmt.Errorf("%w: zero registrar address", ErrInvalidInput)
		}
		if _, err := c.backend.Registrar(base); err != nil {
			return fmt.Errorf("%w: %w", ErrLedger, err)
		}
		c.configChange(ch, func(cfg *Config) { cfg.Base = base })
		return nil
	})
}

// TransferOwnership hands the administrative role to newOwner.
func (c *Controller) TransferOwnership(msg inter.Msg, newOwner common.Address) error {
	err := c.admin("transfer_ownership", msg, func(ch *change) error {
		if newOwner == (common.Address{}) {
			return fmt.Errorf("%w: zero owner", ErrInvalidInput)
		}
		c.configChange(ch, func(cfg *Config) { cfg.Owner = newOwner })
		return nil
	})
	if err == nil {
		c.log.WithFields(logrus.Fields{
			"from": msg.From.Hex(),
			"to":   newOwner.Hex(),
		}).Warn("Controller ownership transferred")
	}
	return err
}

// Withdraw sends the controller's whole native balance to the owner.
func (c *Controller) Withdraw(msg inter.Msg) (*big.Int, error) {
	var amount *big.Int
	err := c.admin("withdraw", msg, func(*change) error {
		self := c.st.config.Self
		amount = c.backend.BalanceOf(self)
		if err := c.backend.Transfer(self, c.st.config.Owner, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.WithField("amount", amount).Info("Withdrew native balance")
	return amount, nil
}

// WithdrawToken sends the controller's whole balance of a token to the owner.
func (c *Controller) WithdrawToken(msg inter.Msg, token common.Address) (*big.Int, error) {
	var amount *big.Int
	err := c.admin("withdraw_token", msg, func(*change) error {
		t, err := c.backend.Token(token)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLedger, err)
		}
		self := c.st.config.Self
		amount = t.BalanceOf(self)
		if err := t.Transfer(self, c.st.config.Owner, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"token":  token.Hex(),
		"amount": amount,
	}).Info("Withdrew token balance")
	return amount, nil
}
