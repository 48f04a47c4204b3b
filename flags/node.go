package flags

import (
	"gopkg.in/urfave/cli.v1"
)

var (
	PresetFlag = cli.StringFlag{
		Name:  "preset",
		Usage: "Storage preset (lite|default|full|archive)",
		Value: "default",
	}
	StoreEngineFlag = cli.StringFlag{
		Name:  "store.engine",
		Usage: "Storage engine, overrides the preset (memory|bolt|pebble)",
	}
	StoreCacheFlag = cli.IntFlag{
		Name:  "store.cache",
		Usage: "Megabytes of block cache for the pebble engine",
	}
	StoreNoSyncFlag = cli.BoolFlag{
		Name:  "store.nosync",
		Usage: "Skip fsync on bolt commits (unsafe, for tests)",
	}
)

// StoreFlags selects and tunes the persistence engine.
func StoreFlags() []cli.Flag {
	return []cli.Flag{
		PresetFlag,
		StoreEngineFlag,
		StoreCacheFlag,
		StoreNoSyncFlag,
	}
}
