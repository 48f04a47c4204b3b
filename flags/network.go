package flags

import (
	"gopkg.in/urfave/cli.v1"
)

var (
	GenesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "Genesis YAML document used to initialise an empty store",
	}
	ControllerAddressFlag = cli.StringFlag{
		Name:  "controller",
		Usage: "Address the controller is deployed at",
	}
	TLDFlag = cli.StringFlag{
		Name:  "tld",
		Usage: "Namespace the base registrar controls",
	}
)

// ControllerFlags locate the controller deployment.
func ControllerFlags() []cli.Flag {
	return []cli.Flag{
		GenesisFlag,
		ControllerAddressFlag,
		TLDFlag,
	}
}

var (
	FromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "Calling account",
	}
	UserFlag = cli.StringFlag{
		Name:  "user",
		Usage: "Account the quote or check is made for",
	}
	YearsFlag = cli.Uint64Flag{
		Name:  "years",
		Usage: "Registration period in years",
		Value: 1,
	}
)
