package registrar

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/inter"
)

// Config holds the owner-mutable singletons of a controller deployment.
type Config struct {
	// Self is the controller's own account: it receives attached value, holds
	// names temporarily while wiring resolvers, and is the registrar caller.
	// It never changes after deployment.
	Self common.Address

	// Owner may call the administrative operations.
	Owner common.Address

	// Team receives the cost of every registration and renewal.
	Team common.Address

	// Base is the address of the base registrar names are minted through.
	Base common.Address

	// YearlyBasePrice is the fallback yearly price for lengths without a tier.
	YearlyBasePrice *big.Int

	// WLPriority is the priority window after each phase activation.
	WLPriority inter.Timestamp
}

// NewConfig builds a deployment config from a network preset.
func NewConfig(rules Rules, self, owner, team, base common.Address) Config {
	return Config{
		Self:            self,
		Owner:           owner,
		Team:            team,
		Base:            base,
		YearlyBasePrice: new(big.Int).Set(rules.Pricing.YearlyBasePrice),
		WLPriority:      rules.Phases.PriorityWindow,
	}
}

// Copy returns a deep copy.
func (c Config) Copy() Config {
	cp := c
	if c.YearlyBasePrice != nil {
		cp.YearlyBasePrice = new(big.Int).Set(c.YearlyBasePrice)
	} else {
		cp.YearlyBasePrice = new(big.Int)
	}
	return cp
}
