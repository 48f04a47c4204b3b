package launcher

import (
	"github.com/rony4d/go-opera-names/integration"
	"github.com/rony4d/go-opera-names/utils/logger"
)

const (
	DefaultDataDir = "~/.namectl"
	configFileName = "namectl.yaml"
)

// DefaultConfig returns the baseline every config file and flag is merged into.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			DataDir: DefaultDataDir,
		},
		Store: integration.DefaultPreset(),
		Controller: ControllerConfig{
			Address: integration.DefaultControllerAddress.Hex(),
			TLD:     integration.DefaultTLD,
		},
		Metrics: MetricsConfig{
			Enable: false,
		},
		Logging: logger.DefaultConfig(),
	}
}
