package registrar

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/rony4d/go-opera-names/inter"
)

// Network identification constants
const (
	// MainNetworkID is the chain ID of Opera mainnet (0xfa = 250)
	MainNetworkID uint64 = 0xfa

	// TestNetworkID is the chain ID of Opera testnet (0xfa2 = 4002)
	TestNetworkID uint64 = 0xfa2

	// FakeNetworkID is the chain ID of local fake networks (0xfa3 = 4003)
	FakeNetworkID uint64 = 0xfa3

	// DefaultPriorityWindow is how long after a phase activates only quota
	// holders may register.
	DefaultPriorityWindow = inter.Timestamp(1 * time.Hour)

	// MaxYears bounds a single registration or renewal so that years*365 days
	// stays representable on the chain clock.
	MaxYears = 100
)

// Rules is the network preset a controller deployment starts from.
type Rules struct {
	Name      string // network name identifier ("main", "test", "fake")
	NetworkID uint64

	// Pricing options
	Pricing PricingRules

	// Phase options
	Phases PhaseRules
}

// PricingRules are the initial prices of a deployment.
type PricingRules struct {
	// YearlyBasePrice applies to every length without its own tier (in wei).
	YearlyBasePrice *big.Int

	// Tiers maps name length to a yearly price (in wei).
	Tiers map[uint64]*big.Int
}

// PhaseRules configure the phased rollout.
type PhaseRules struct {
	// PriorityWindow is reserved for whitelisted callers after each activation.
	PriorityWindow inter.Timestamp
}

// ether returns n * 10^18 wei.
func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// MainNetRules returns the mainnet preset: short names are priced steeply.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Pricing: PricingRules{
			YearlyBasePrice: ether(5),
			Tiers: map[uint64]*big.Int{
				1: ether(5000),
				2: ether(1000),
				3: ether(320),
				4: ether(80),
			},
		},
		Phases: PhaseRules{PriorityWindow: DefaultPriorityWindow},
	}
}

// TestNetRules returns the testnet preset, same shape as mainnet.
func TestNetRules() Rules {
	rules := MainNetRules()
	rules.Name = "test"
	rules.NetworkID = TestNetworkID
	return rules
}

// FakeNetRules returns the fake network preset: flat cheap pricing and a short
// priority window so devnet scenarios run quickly.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Pricing: PricingRules{
			YearlyBasePrice: big.NewInt(100),
			Tiers:           map[uint64]*big.Int{},
		},
		Phases: PhaseRules{PriorityWindow: inter.Timestamp(10 * time.Minute)},
	}
}

// RulesByName resolves a preset name.
func RulesByName(name string) (Rules, bool) {
	switch name {
	case "main", "mainnet":
		return MainNetRules(), true
	case "test", "testnet":
		return TestNetRules(), true
	case "fake", "fakenet", "dev":
		return FakeNetRules(), true
	}
	return Rules{}, false
}

// Copy creates a deep copy of Rules.
func (r Rules) Copy() Rules {
	cp := r
	cp.Pricing.YearlyBasePrice = new(big.Int).Set(r.Pricing.YearlyBasePrice)
	cp.Pricing.Tiers = make(map[uint64]*big.Int, len(r.Pricing.Tiers))
	for l, p := range r.Pricing.Tiers {
		cp.Pricing.Tiers[l] = new(big.Int).Set(p)
	}
	return cp
}

// String returns a JSON representation of Rules for logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
