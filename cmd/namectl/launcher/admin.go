package launcher

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-names/flags"
	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/registrar/contracts/controllerabi"
	"github.com/rony4d/go-opera-names/registrar/genesis"
)

// Admin commands are encoded as controller calldata and executed through the
// ABI dispatcher, the same path an on-chain call takes.
var adminCommand = cli.Command{
	Name:  "admin",
	Usage: "Owner-only controller administration",
	Flags: []cli.Flag{flags.FromFlag},
	Subcommands: []cli.Command{
		adminSubcommand("add-epoch", "<activation> <minLength> <maxLength>",
			"Schedule a phase; activation is RFC3339, Unix seconds or +duration", packAddEpoch),
		{
			Name:      "grant",
			Usage:     "Merge a quota grant into addresses",
			ArgsUsage: "<address>[,<address>...] ...",
			Flags: []cli.Flag{
				flags.FromFlag,
				cli.Uint64Flag{Name: "min", Usage: "Minimum name length override"},
				cli.Uint64Flag{Name: "free", Usage: "Free one-year registrations"},
				cli.Uint64Flag{Name: "allowed", Usage: "Priority registrations"},
			},
			Action: withSession(adminAction(packGrant)),
		},
		adminSubcommand("set-price", "<length> <wei>", "Set the yearly price tier of a length (0 clears it)", packSetPrice),
		adminSubcommand("set-base-price", "<wei>", "Set the yearly price of untiered lengths", packSetBasePrice),
		adminSubcommand("set-team", "<address>", "Set the payout address", packAddressCall("setTeamAddress")),
		adminSubcommand("set-priority", "<duration>", "Set the whitelist priority window", packSetPriority),
		adminSubcommand("set-base", "<address>", "Point the controller at another base registrar", packAddressCall("setBase")),
		adminSubcommand("transfer-ownership", "<address>", "Hand the controller to a new owner", packAddressCall("transferOwnership")),
		adminSubcommand("withdraw", " ", "Send the controller balance to the owner", packNoArgs("withdraw")),
		adminSubcommand("withdraw-token", "<token>", "Send the controller token balance to the owner", packAddressCall("withdrawToken")),
	},
}

type packFunc func(ctx *cli.Context, now inter.Timestamp) (string, []byte, error)

func adminSubcommand(name, args, usage string, pack packFunc) cli.Command {
	return cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: args,
		Flags:     []cli.Flag{flags.FromFlag},
		Action:    withSession(adminAction(pack)),
	}
}

func adminAction(pack packFunc) func(ctx *cli.Context, s *session) error {
	return func(ctx *cli.Context, s *session) error {
		from, err := callerAddress(ctx, s)
		if err != nil {
			return err
		}
		method, input, err := pack(ctx, s.devnet.Chain.Now())
		if err != nil {
			return err
		}
		s.log.WithField("calldata", hexutil.Encode(input)).Debug("Executing admin call")
		if _, err := s.devnet.ABI.Run(inter.Call(from), input); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		s.printf("%s: ok\n", method)
		return nil
	}
}

// callerAddress reads --from at either level, defaulting to the current owner.
func callerAddress(ctx *cli.Context, s *session) (common.Address, error) {
	raw := ctx.String(flags.FromFlag.Name)
	if raw == "" {
		raw = ctx.GlobalString(flags.FromFlag.Name)
	}
	if raw == "" {
		return s.devnet.Controller.Owner(), nil
	}
	addr, err := genesis.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("--from: %w", err)
	}
	return addr, nil
}

func packAddEpoch(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
	if ctx.NArg() != 3 {
		return "", nil, fmt.Errorf("want <activation> <minLength> <maxLength>")
	}
	at, err := genesis.ParseActivation(ctx.Args().Get(0), now)
	if err != nil {
		return "", nil, err
	}
	minLength, err := uintArg(ctx, 1, "minLength")
	if err != nil {
		return "", nil, err
	}
	maxLength, err := uintArg(ctx, 2, "maxLength")
	if err != nil {
		return "", nil, err
	}
	return pack("addEpoch", new(big.Int).SetInt64(at.Unix()), minLength, maxLength)
}

func packGrant(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
	var addrs []common.Address
	for _, arg := range ctx.Args() {
		for _, raw := range splitCSV(arg) {
			addr, err := genesis.ParseAddress(raw)
			if err != nil {
				return "", nil, err
			}
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		return "", nil, fmt.Errorf("no addresses to grant")
	}
	return pack("grant",
		new(big.Int).SetUint64(ctx.Uint64("min")),
		new(big.Int).SetUint64(ctx.Uint64("free")),
		new(big.Int).SetUint64(ctx.Uint64("allowed")),
		addrs,
	)
}

func packSetPrice(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
	if ctx.NArg() != 2 {
		return "", nil, fmt.Errorf("want <length> <wei>")
	}
	length, err := uintArg(ctx, 0, "length")
	if err != nil {
		return "", nil, err
	}
	price, err := genesis.ParseWei(ctx.Args().Get(1))
	if err != nil {
		return "", nil, err
	}
	return pack("setPrice", length, price)
}

func packSetBasePrice(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
	if ctx.NArg() != 1 {
		return "", nil, fmt.Errorf("want <wei>")
	}
	price, err := genesis.ParseWei(ctx.Args().First())
	if err != nil {
		return "", nil, err
	}
	return pack("setYearlyBasePrice", price)
}

func packSetPriority(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
	if ctx.NArg() != 1 {
		return "", nil, fmt.Errorf("want <duration>")
	}
	d, err := time.ParseDuration(ctx.Args().First())
	if err != nil {
		return "", nil, err
	}
	return pack("setWLPriority", big.NewInt(int64(d/time.Second)))
}

func packAddressCall(method string) packFunc {
	return func(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
		addr, err := addressArg(ctx, 0, "address")
		if err != nil {
			return "", nil, err
		}
		return pack(method, addr)
	}
}

func packNoArgs(method string) packFunc {
	return func(ctx *cli.Context, now inter.Timestamp) (string, []byte, error) {
		return pack(method)
	}
}

func pack(method string, args ...interface{}) (string, []byte, error) {
	input, err := controllerabi.Pack(method, args...)
	return method, input, err
}

func uintArg(ctx *cli.Context, i int, what string) (*big.Int, error) {
	v, err := strconv.ParseUint(ctx.Args().Get(i), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return new(big.Int).SetUint64(v), nil
}
