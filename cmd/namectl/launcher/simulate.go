package launcher

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v2"

	"github.com/rony4d/go-opera-names/integration"
	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/registrar"
	"github.com/rony4d/go-opera-names/registrar/genesis"
	"github.com/rony4d/go-opera-names/store/memory"
	"github.com/rony4d/go-opera-names/utils/logger"
)

var simulateCommand = cli.Command{
	Name:  "simulate",
	Usage: "Run a YAML scenario against an in-memory devnet",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "script", Usage: "Scenario file"},
	},
	Action: simulateAction,
	Description: `
The scenario carries its own genesis, starting balances and a list of steps.
Each step either advances the clock or executes one controller operation and
states the expected outcome: "ok" (the default) or a rejection reason such as
not_eligible or insufficient_payment. The command fails when any step does
not match its expectation.

  genesis: { network: fake, owner: "0x..", team: "0x..", registrar: "0x.." }
  balances: { "0x..": "1000" }
  steps:
    - { op: add-epoch, from: "0x..", activation: "+0s", minLength: 3, maxLength: 64 }
    - { advance: 1h }
    - { op: register, from: "0x..", name: alice, years: 1, value: "100" }
    - { op: register, from: "0x..", name: alice, years: 1, value: "100", expect: not_eligible }`,
}

// Scenario is a simulate script.
type Scenario struct {
	Genesis  genesis.Genesis   `yaml:"genesis"`
	Start    string            `yaml:"start,omitempty"` // RFC3339 or Unix seconds
	Balances map[string]string `yaml:"balances,omitempty"`
	Steps    []Step            `yaml:"steps"`
}

// Step is one scenario line. Only the fields its op reads are used.
type Step struct {
	Advance string `yaml:"advance,omitempty"`

	Op     string `yaml:"op,omitempty"`
	From   string `yaml:"from,omitempty"`
	Value  string `yaml:"value,omitempty"`
	Expect string `yaml:"expect,omitempty"`

	Name     string `yaml:"name,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	Years    uint64 `yaml:"years,omitempty"`
	Resolver string `yaml:"resolver,omitempty"`
	Addr     string `yaml:"addr,omitempty"`

	Activation string   `yaml:"activation,omitempty"`
	MinLength  uint64   `yaml:"minLength,omitempty"`
	MaxLength  uint64   `yaml:"maxLength,omitempty"`
	Free       uint64   `yaml:"free,omitempty"`
	Allowed    uint64   `yaml:"allowed,omitempty"`
	Addresses  []string `yaml:"addresses,omitempty"`
	Length     uint64   `yaml:"length,omitempty"`
	Price      string   `yaml:"price,omitempty"`
	Window     string   `yaml:"window,omitempty"`
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := new(Scenario)
	if err := yaml.UnmarshalStrict(raw, sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("scenario genesis: %w", err)
	}
	return sc, nil
}

func simulateAction(ctx *cli.Context) error {
	path := ctx.String("script")
	if path == "" {
		return fmt.Errorf("--script is required")
	}
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging, ctx.App.ErrWriter)
	if err != nil {
		return err
	}
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	return RunScenario(sc, ctx.App.Writer, log)
}

// RunScenario plays sc on a fresh devnet and reports every step to out,
// followed by the final balances and the metrics. It returns an error when a
// step's outcome differs from its expectation.
func RunScenario(sc *Scenario, out io.Writer, log logrus.FieldLogger) error {
	var start inter.Timestamp
	if sc.Start != "" {
		at, err := genesis.ParseActivation(sc.Start, 0)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		start = at
	}
	balances := make(map[common.Address]*big.Int, len(sc.Balances))
	for raw, amount := range sc.Balances {
		addr, err := genesis.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("balances: %w", err)
		}
		if balances[addr], err = genesis.ParseWei(amount); err != nil {
			return fmt.Errorf("balances[%s]: %w", raw, err)
		}
	}

	reg := prometheus.NewRegistry()
	d, err := integration.NewDevnet(memory.New(), integration.DevnetConfig{
		Genesis:  &sc.Genesis,
		Time:     start,
		Balances: balances,
		Log:      log,
		Registry: reg,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	r := &runner{devnet: d, out: out}
	mismatches := 0
	for i, step := range sc.Steps {
		if !r.run(i, step) {
			mismatches++
		}
	}

	r.printBalances(balances)
	if err := printMetrics(out, reg); err != nil {
		return err
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d step(s) did not match expectations", mismatches, len(sc.Steps))
	}
	return nil
}

type runner struct {
	devnet *integration.Devnet
	out    io.Writer
}

// run executes one step and reports whether it matched its expectation.
func (r *runner) run(i int, step Step) bool {
	if step.Advance != "" {
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			fmt.Fprintf(r.out, "#%d advance %s: %v MISMATCH\n", i, step.Advance, err)
			return false
		}
		r.devnet.Chain.Advance(d)
		fmt.Fprintf(r.out, "#%d advance %s -> %s\n", i, step.Advance, r.devnet.Chain.Now())
		return true
	}

	detail, err := r.exec(step)
	want := step.Expect
	if want == "" {
		want = "ok"
	}
	got := "ok"
	if err != nil {
		got = registrar.Reason(err)
	}

	line := fmt.Sprintf("#%d %s %s", i, step.Op, step.Name)
	if err != nil {
		line += ": " + err.Error()
	} else if detail != "" {
		line += ": " + detail
	}
	if got != want {
		fmt.Fprintf(r.out, "%s MISMATCH (want %s, got %s)\n", line, want, got)
		return false
	}
	fmt.Fprintf(r.out, "%s [%s]\n", line, got)
	return true
}

func (r *runner) exec(step Step) (string, error) {
	c := r.devnet.Controller
	msg, err := r.msg(step)
	if err != nil {
		return "", err
	}

	switch step.Op {
	case "register":
		owner := msg.From
		if step.Owner != "" {
			if owner, err = parse(step.Owner); err != nil {
				return "", err
			}
		}
		var resolver, addr common.Address
		if step.Resolver != "" {
			if resolver, err = parse(step.Resolver); err != nil {
				return "", err
			}
		}
		if step.Addr != "" {
			if addr, err = parse(step.Addr); err != nil {
				return "", err
			}
		}
		rec, err := c.RegisterWithConfig(msg, step.Name, owner, years(step), resolver, addr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("cost=%s expires=%s", rec.Cost, rec.Expires), nil

	case "renew":
		rec, err := c.Renew(msg, step.Name, years(step))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("cost=%s expires=%s", rec.Cost, rec.Expires), nil

	case "quote":
		return fmt.Sprintf("price=%s", c.RentPriceForUser(step.Name, msg.From, years(step))), nil

	case "add-epoch":
		at, err := genesis.ParseActivation(step.Activation, r.devnet.Chain.Now())
		if err != nil {
			return "", fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
		}
		pos, err := c.AddEpoch(msg, at, step.MinLength, step.MaxLength)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("position=%d", pos), nil

	case "grant":
		addrs := make([]common.Address, 0, len(step.Addresses))
		for _, raw := range step.Addresses {
			addr, err := parse(raw)
			if err != nil {
				return "", err
			}
			addrs = append(addrs, addr)
		}
		return "", c.Grant(msg, step.MinLength, step.Free, step.Allowed, addrs)

	case "set-price":
		price := new(big.Int)
		if step.Price != "" {
			if price, err = genesis.ParseWei(step.Price); err != nil {
				return "", fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
			}
		}
		return "", c.SetPrice(msg, step.Length, price)

	case "set-priority":
		d, err := time.ParseDuration(step.Window)
		if err != nil {
			return "", fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
		}
		return "", c.SetWLPriority(msg, inter.FromDuration(d))

	case "withdraw":
		amount, err := c.Withdraw(msg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("amount=%s", amount), nil
	}
	return "", fmt.Errorf("%w: unknown op %q", registrar.ErrInvalidInput, step.Op)
}

func (r *runner) msg(step Step) (inter.Msg, error) {
	from, err := parse(step.From)
	if err != nil {
		return inter.Msg{}, err
	}
	value := new(big.Int)
	if step.Value != "" {
		if value, err = genesis.ParseWei(step.Value); err != nil {
			return inter.Msg{}, fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
		}
	}
	return inter.Pay(from, value), nil
}

func (r *runner) printBalances(seeded map[common.Address]*big.Int) {
	cfg := r.devnet.Controller.Config()
	accounts := map[common.Address]bool{cfg.Team: true, cfg.Self: true, cfg.Owner: true}
	for addr := range seeded {
		accounts[addr] = true
	}
	lines := make([]string, 0, len(accounts))
	for addr := range accounts {
		lines = append(lines, fmt.Sprintf("  %s %s", addr.Hex(), r.devnet.Chain.BalanceOf(addr)))
	}
	sort.Strings(lines)
	fmt.Fprintln(r.out, "balances:")
	fmt.Fprintln(r.out, strings.Join(lines, "\n"))
}

func parse(raw string) (common.Address, error) {
	addr, err := genesis.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", registrar.ErrInvalidInput, err)
	}
	return addr, nil
}

func years(step Step) uint64 {
	if step.Years == 0 {
		return 1
	}
	return step.Years
}
