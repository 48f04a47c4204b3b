package launcher

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-names/integration"
	"github.com/rony4d/go-opera-names/registrar/genesis"
	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/utils/logger"
)

// session is one command's view of the deployment: config, logger, the open
// store and the assembled devnet.
type session struct {
	cfg    Config
	log    *logrus.Logger
	out    io.Writer
	db     store.KVStore
	devnet *integration.Devnet
}

func openSession(ctx *cli.Context) (*session, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging, ctx.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	var g *genesis.Genesis
	if cfg.Controller.Genesis != "" {
		if g, err = genesis.Load(cfg.Controller.Genesis); err != nil {
			return nil, err
		}
	}
	self, err := genesis.ParseAddress(cfg.Controller.Address)
	if err != nil {
		return nil, fmt.Errorf("controller address: %w", err)
	}

	db, err := integration.OpenStore(cfg.Store, cfg.Node.DataDir)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"engine":  cfg.Store.Engine,
		"datadir": cfg.Node.DataDir,
	}).Debug("Opened store")

	devnet, err := integration.NewDevnet(db, integration.DevnetConfig{
		Genesis:  g,
		Self:     self,
		TLD:      cfg.Controller.TLD,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &session{
		cfg:    cfg,
		log:    log,
		out:    ctx.App.Writer,
		db:     db,
		devnet: devnet,
	}, nil
}

func (s *session) Close() error {
	if s.cfg.Metrics.Enable {
		if err := printMetrics(s.out, s.devnet.Metrics); err != nil {
			s.log.WithError(err).Warn("Failed to gather metrics")
		}
	}
	s.devnet.Close()
	return s.db.Close()
}

func (s *session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// withSession runs fn against an open session.
func withSession(fn func(ctx *cli.Context, s *session) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		err = fn(ctx, s)
		if cerr := s.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

func addressArg(ctx *cli.Context, i int, what string) (common.Address, error) {
	if ctx.NArg() <= i {
		return common.Address{}, fmt.Errorf("missing %s argument", what)
	}
	addr, err := genesis.ParseAddress(ctx.Args().Get(i))
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", what, err)
	}
	return addr, nil
}

func optionalAddress(ctx *cli.Context, flag string) (common.Address, error) {
	raw := ctx.String(flag)
	if raw == "" {
		return common.Address{}, nil
	}
	addr, err := genesis.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return addr, nil
}
