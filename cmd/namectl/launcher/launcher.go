// Package launcher wires the namectl commands: configuration merge, store
// and devnet assembly, and one action per command.
package launcher

import (
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-names/flags"
)

func newApp(out, errOut io.Writer) *cli.App {
	app := flags.NewApp("name registration controller")
	app.Writer = out
	app.ErrWriter = errOut

	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.StoreFlags()...)
	app.Flags = append(app.Flags, flags.ControllerFlags()...)

	app.Commands = []cli.Command{
		initCommand,
		quoteCommand,
		checkCommand,
		epochsCommand,
		whitelistCommand,
		receiptsCommand,
		adminCommand,
		simulateCommand,
	}
	return app
}

// Launch runs namectl with the given os.Args-style arguments.
func Launch(args []string) error {
	return newApp(os.Stdout, os.Stderr).Run(args)
}
