// Package genesis defines the YAML document a controller deployment starts
// from: who owns it, where costs go, which registrar it mints through, and the
// initial prices, phases and quota grants.
//
// Example:
//
//	network: main
//	owner: "0x..."
//	team: "0x..."
//	registrar: "0x..."
//	priorityWindow: 2h
//	prices:
//	  3: "320000000000000000000"
//	epochs:
//	  - activation: "2021-06-01T12:00:00Z"
//	    minLength: 5
//	    maxLength: 64
//	  - activation: "+720h"
//	    minLength: 3
//	    maxLength: 64
//	whitelist:
//	  - minLength: 3
//	    free: 1
//	    allowed: 2
//	    addresses: ["0x...", "0x..."]
//
// Activation times are RFC3339, Unix seconds, or "+duration" relative to the
// chain clock at the time the document is applied.
package genesis

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/registrar"
)

// Genesis is the deployment document.
type Genesis struct {
	// Network selects the rules preset: main, test or fake.
	Network string `yaml:"network"`

	Owner     string `yaml:"owner"`
	Team      string `yaml:"team"`
	Registrar string `yaml:"registrar"`

	// Optional overrides of the preset.
	PriorityWindow  string            `yaml:"priorityWindow,omitempty"`
	YearlyBasePrice string            `yaml:"yearlyBasePrice,omitempty"`
	Prices          map[uint64]string `yaml:"prices,omitempty"`

	Epochs    []Epoch `yaml:"epochs,omitempty"`
	Whitelist []Grant `yaml:"whitelist,omitempty"`
}

// Epoch is one phase of the document.
type Epoch struct {
	Activation string `yaml:"activation"`
	MinLength  uint64 `yaml:"minLength"`
	MaxLength  uint64 `yaml:"maxLength"`
}

// Grant is one quota grant of the document.
type Grant struct {
	MinLength uint64   `yaml:"minLength"`
	Free      uint64   `yaml:"free"`
	Allowed   uint64   `yaml:"allowed"`
	Addresses []string `yaml:"addresses"`
}

// Load reads a genesis document from a file.
func Load(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes and validates a genesis document.
func Parse(raw []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := yaml.UnmarshalStrict(raw, g); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Marshal encodes the document.
func (g *Genesis) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// Validate checks everything that can be checked without a chain clock.
func (g *Genesis) Validate() error {
	if _, err := g.Rules(); err != nil {
		return err
	}
	for field, v := range map[string]string{"owner": g.Owner, "team": g.Team, "registrar": g.Registrar} {
		if _, err := ParseAddress(v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	for length, p := range g.Prices {
		if length == 0 {
			return fmt.Errorf("prices: zero-length tier")
		}
		if _, err := ParseWei(p); err != nil {
			return fmt.Errorf("prices[%d]: %w", length, err)
		}
	}
	for i, e := range g.Epochs {
		if _, err := ParseActivation(e.Activation, inter.FromUnix(1)); err != nil {
			return fmt.Errorf("epochs[%d]: %w", i, err)
		}
	}
	for i, w := range g.Whitelist {
		if len(w.Addresses) == 0 {
			return fmt.Errorf("whitelist[%d]: no addresses", i)
		}
		for _, a := range w.Addresses {
			if _, err := ParseAddress(a); err != nil {
				return fmt.Errorf("whitelist[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Rules returns the preset with the document's overrides applied.
func (g *Genesis) Rules() (registrar.Rules, error) {
	network := g.Network
	if network == "" {
		network = "main"
	}
	rules, ok := registrar.RulesByName(network)
	if !ok {
		return registrar.Rules{}, fmt.Errorf("unknown network %q", g.Network)
	}
	if g.PriorityWindow != "" {
		d, err := time.ParseDuration(g.PriorityWindow)
		if err != nil {
			return registrar.Rules{}, fmt.Errorf("priorityWindow: %w", err)
		}
		rules.Phases.PriorityWindow = inter.FromDuration(d)
	}
	if g.YearlyBasePrice != "" {
		p, err := ParseWei(g.YearlyBasePrice)
		if err != nil {
			return registrar.Rules{}, fmt.Errorf("yearlyBasePrice: %w", err)
		}
		rules.Pricing.YearlyBasePrice = p
	}
	for length, s := range g.Prices {
		p, err := ParseWei(s)
		if err != nil {
			return registrar.Rules{}, fmt.Errorf("prices[%d]: %w", length, err)
		}
		rules.Pricing.Tiers[length] = p
	}
	return rules, nil
}

// Config builds the deployment config of a controller living at self.
func (g *Genesis) Config(self common.Address) (registrar.Config, error) {
	rules, err := g.Rules()
	if err != nil {
		return registrar.Config{}, err
	}
	owner, _ := ParseAddress(g.Owner)
	team, _ := ParseAddress(g.Team)
	base, _ := ParseAddress(g.Registrar)
	return registrar.NewConfig(rules, self, owner, team, base), nil
}

// Apply seeds a freshly initialised controller with the document's price
// tiers, phases and grants. Every step goes through the owner-gated admin
// operations, so the document obeys the same validation as live calls.
func (g *Genesis) Apply(c *registrar.Controller, now inter.Timestamp) error {
	rules, err := g.Rules()
	if err != nil {
		return err
	}
	owner := inter.Call(c.Owner())

	lengths := make([]uint64, 0, len(rules.Pricing.Tiers))
	for l := range rules.Pricing.Tiers {
		lengths = append(lengths, l)
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i] < lengths[j] })
	for _, l := range lengths {
		if err := c.SetPrice(owner, l, rules.Pricing.Tiers[l]); err != nil {
			return fmt.Errorf("price tier %d: %w", l, err)
		}
	}

	for i, e := range g.Epochs {
		at, err := ParseActivation(e.Activation, now)
		if err != nil {
			return fmt.Errorf("epochs[%d]: %w", i, err)
		}
		if _, err := c.AddEpoch(owner, at, e.MinLength, e.MaxLength); err != nil {
			return fmt.Errorf("epochs[%d]: %w", i, err)
		}
	}

	for i, w := range g.Whitelist {
		addrs := make([]common.Address, len(w.Addresses))
		for j, a := range w.Addresses {
			if addrs[j], err = ParseAddress(a); err != nil {
				return fmt.Errorf("whitelist[%d]: %w", i, err)
			}
		}
		if err := c.Grant(owner, w.MinLength, w.Free, w.Allowed, addrs); err != nil {
			return fmt.Errorf("whitelist[%d]: %w", i, err)
		}
	}
	return nil
}

// ParseAddress parses a non-zero hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address")
	}
	return addr, nil
}

// ParseWei parses a non-negative decimal wei amount.
func ParseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return v, nil
}

// ParseActivation accepts RFC3339, Unix seconds, or "+duration" from now.
// The result must be after the Unix epoch.
func ParseActivation(s string, now inter.Timestamp) (inter.Timestamp, error) {
	s = strings.TrimSpace(s)
	var at inter.Timestamp
	switch {
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return 0, err
		}
		at = now.Add(inter.FromDuration(d))
	default:
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			at = inter.FromUnix(secs)
			break
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, fmt.Errorf("activation %q: want RFC3339, Unix seconds or +duration", s)
		}
		at = inter.FromTime(t)
	}
	if at == 0 {
		return 0, fmt.Errorf("activation %q is not after the Unix epoch", s)
	}
	return at, nil
}
