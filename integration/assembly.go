package integration

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
	"github.com/rony4d/go-opera-names/ledger/memledger"
	"github.com/rony4d/go-opera-names/registrar"
	"github.com/rony4d/go-opera-names/registrar/contracts/controllerabi"
	"github.com/rony4d/go-opera-names/registrar/genesis"
	"github.com/rony4d/go-opera-names/store"
)

var (
	// DefaultControllerAddress is where the devnet controller lives.
	DefaultControllerAddress = common.HexToAddress("0xd100a00000000000000000000000000000000000")
	// DefaultResolverAddress is where the devnet public resolver lives.
	DefaultResolverAddress = common.HexToAddress("0xd100a10000000000000000000000000000000000")
)

// DefaultTLD is the namespace the devnet registrar controls.
const DefaultTLD = "ftm"

// DevnetConfig describes an in-memory deployment.
type DevnetConfig struct {
	Genesis *genesis.Genesis

	Self     common.Address
	Resolver common.Address
	TLD      string

	// Chain seed.
	Time     inter.Timestamp
	Balances map[common.Address]*big.Int

	Log      logrus.FieldLogger
	Registry *prometheus.Registry
}

// Devnet is a controller wired to an in-memory ledger.
type Devnet struct {
	Chain      *memledger.Chain
	Registrar  *memledger.BaseRegistrar
	Resolver   *memledger.PublicResolver
	Controller *registrar.Controller
	ABI        *controllerabi.Contract
	Metrics    *prometheus.Registry

	// Fresh is true when the store was empty and the genesis got applied.
	Fresh bool
}

// NewDevnet opens a controller over db on a fresh memledger chain. An empty
// db is initialised from the genesis document, which is then required; a db
// holding controller state is resumed and the registrar is deployed at its
// persisted address.
//
// The ledger itself is not persisted, so names minted in earlier runs are
// gone while quotas, prices and receipts survive.
func NewDevnet(db store.KVStore, cfg DevnetConfig) (*Devnet, error) {
	if cfg.Self == (common.Address{}) {
		cfg.Self = DefaultControllerAddress
	}
	if cfg.Resolver == (common.Address{}) {
		cfg.Resolver = DefaultResolverAddress
	}
	if cfg.TLD == "" {
		cfg.TLD = DefaultTLD
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	initialised, err := registrar.Initialised(db)
	if err != nil {
		return nil, fmt.Errorf("devnet: %w", err)
	}
	var ctlCfg registrar.Config
	if !initialised {
		if cfg.Genesis == nil {
			return nil, fmt.Errorf("devnet: store is empty and no genesis was given")
		}
		if ctlCfg, err = cfg.Genesis.Config(cfg.Self); err != nil {
			return nil, fmt.Errorf("devnet: %w", err)
		}
	}

	chain := memledger.New(memledger.Genesis{Time: cfg.Time, Balances: cfg.Balances})
	ctl, err := registrar.New(chain, db, ctlCfg,
		registrar.WithLogger(cfg.Log.WithField("component", "registrar")),
		registrar.WithMetrics(registrar.NewMetrics(cfg.Registry)),
	)
	if err != nil {
		return nil, err
	}

	persisted := ctl.Config()
	base := chain.DeployRegistrar(persisted.Base, ledger.NameHash(cfg.TLD))
	base.AddController(persisted.Self)
	resolver := chain.DeployResolver(cfg.Resolver)

	if !initialised {
		if err := cfg.Genesis.Apply(ctl, chain.Now()); err != nil {
			ctl.Close()
			return nil, fmt.Errorf("devnet: apply genesis: %w", err)
		}
	}
	cfg.Log.WithFields(logrus.Fields{
		"tld":       cfg.TLD,
		"registrar": persisted.Base.Hex(),
		"resolver":  cfg.Resolver.Hex(),
		"fresh":     !initialised,
	}).Info("Devnet assembled")

	return &Devnet{
		Chain:      chain,
		Registrar:  base,
		Resolver:   resolver,
		Controller: ctl,
		ABI:        controllerabi.New(ctl),
		Metrics:    cfg.Registry,
		Fresh:      !initialised,
	}, nil
}

// Close stops the controller feeds. The store is owned by the caller.
func (d *Devnet) Close() {
	d.Controller.Close()
}
