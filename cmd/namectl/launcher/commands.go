package launcher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-names/flags"
	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/registrar"
)

var (
	initCommand = cli.Command{
		Name:      "init",
		Usage:     "Initialise an empty store from a genesis document",
		ArgsUsage: " ",
		Action:    withSession(initAction),
		Description: `
Creates the controller state in the data directory from --genesis. A store
that is already initialised is left untouched.`,
	}

	quoteCommand = cli.Command{
		Name:      "quote",
		Usage:     "Price a registration",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{flags.YearsFlag, flags.UserFlag},
		Action:    withSession(quoteAction),
	}

	checkCommand = cli.Command{
		Name:      "check",
		Usage:     "Report whether a user may register a name right now",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{flags.UserFlag},
		Action:    withSession(checkAction),
	}

	epochsCommand = cli.Command{
		Name:   "epochs",
		Usage:  "List the rollout phases",
		Action: withSession(epochsAction),
	}

	whitelistCommand = cli.Command{
		Name:      "whitelist",
		Usage:     "Show the quota of an address",
		ArgsUsage: "<address>",
		Action:    withSession(whitelistAction),
	}

	receiptsCommand = cli.Command{
		Name:  "receipts",
		Usage: "Dump the receipt log",
		Flags: []cli.Flag{
			cli.Uint64Flag{Name: "start", Usage: "First receipt sequence number"},
			cli.IntFlag{Name: "limit", Usage: "Maximum number of receipts (0 = all)"},
		},
		Action: withSession(receiptsAction),
	}
)

func initAction(ctx *cli.Context, s *session) error {
	cfg := s.devnet.Controller.Config()
	if !s.devnet.Fresh {
		s.printf("Store already initialised, controller %s owned by %s\n", cfg.Self.Hex(), cfg.Owner.Hex())
		return nil
	}
	s.printf("Initialised controller %s\n", cfg.Self.Hex())
	s.printf("  owner:     %s\n", cfg.Owner.Hex())
	s.printf("  team:      %s\n", cfg.Team.Hex())
	s.printf("  registrar: %s\n", cfg.Base.Hex())
	s.printf("  epochs:    %d\n", len(s.devnet.Controller.Epochs()))
	return nil
}

func quoteAction(ctx *cli.Context, s *session) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("missing name argument")
	}
	name := ctx.Args().First()
	if !registrar.IsValidName(name) {
		return fmt.Errorf("%w: empty name", registrar.ErrInvalidInput)
	}
	years := ctx.Uint64(flags.YearsFlag.Name)
	user, err := optionalAddress(ctx, flags.UserFlag.Name)
	if err != nil {
		return err
	}

	c := s.devnet.Controller
	length := registrar.NameLength(name)
	s.printf("name:         %s\n", name)
	s.printf("length:       %d\n", length)
	s.printf("yearly price: %s wei\n", c.YearlyPrice(length))
	s.printf("rent price:   %s wei for %d year(s)\n", c.RentPrice(name, years), years)
	if user != (common.Address{}) {
		s.printf("price for %s: %s wei\n", user.Hex(), c.RentPriceForUser(name, user, years))
	}
	return nil
}

func checkAction(ctx *cli.Context, s *session) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("missing name argument")
	}
	name := ctx.Args().First()
	user, err := optionalAddress(ctx, flags.UserFlag.Name)
	if err != nil {
		return err
	}

	c := s.devnet.Controller
	available, canMint, err := c.CanRegister(name, user)
	if err != nil {
		return err
	}
	s.printf("name:      %s\n", name)
	s.printf("available: %t\n", available)
	s.printf("can mint:  %t\n", canMint)
	s.printf("phase:     %s\n", formatEpoch(c.CurrentEpoch()))
	if user != (common.Address{}) {
		s.printf("quota:     %s\n", formatEntry(c.Whitelist(user)))
	}
	return nil
}

func epochsAction(ctx *cli.Context, s *session) error {
	c := s.devnet.Controller
	current := c.CurrentEpoch()
	epochs := c.Epochs()
	if len(epochs) == 0 {
		s.printf("no phases scheduled\n")
		return nil
	}
	for i, e := range epochs {
		marker := " "
		if e == current {
			marker = "*"
		}
		s.printf("%s %d  %s\n", marker, i, formatEpoch(e))
	}
	return nil
}

func whitelistAction(ctx *cli.Context, s *session) error {
	addr, err := addressArg(ctx, 0, "address")
	if err != nil {
		return err
	}
	s.printf("%s %s\n", addr.Hex(), formatEntry(s.devnet.Controller.Whitelist(addr)))
	return nil
}

func receiptsAction(ctx *cli.Context, s *session) error {
	receipts, err := s.devnet.Controller.Receipts(ctx.Uint64("start"), ctx.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range receipts {
		kind := "register"
		if r.Kind == inter.ReceiptRenewal {
			kind = "renew"
		}
		s.printf("%d %-8s %-20s payer=%s cost=%s refund=%s expires=%s\n",
			r.Seq, kind, r.Name, r.Payer.Hex(), r.Cost, r.Refund, r.Expires)
	}
	s.printf("%d receipt(s)\n", len(receipts))
	return nil
}

func formatEpoch(e inter.Epoch) string {
	if !e.Active() {
		return "none active"
	}
	return fmt.Sprintf("from %s lengths %d..%d", e.ActivationTime, e.MinLength, e.MaxLength)
}

func formatEntry(w inter.WhitelistEntry) string {
	return fmt.Sprintf("minLength=%d free=%d allowed=%d", w.MinLength, w.FreeCount, w.AllowedCount)
}
