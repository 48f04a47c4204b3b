package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v2"

	"github.com/rony4d/go-opera-names/flags"
	"github.com/rony4d/go-opera-names/integration"
	"github.com/rony4d/go-opera-names/utils/logger"
)

// Config aggregates everything a command needs.
type Config struct {
	Node       NodeConfig               `yaml:"node"`
	Store      integration.PresetConfig `yaml:"store"`
	Controller ControllerConfig         `yaml:"controller"`
	Metrics    MetricsConfig            `yaml:"metrics"`
	Logging    logger.Config            `yaml:"logging"`
}

type NodeConfig struct {
	DataDir string `yaml:"datadir"`
}

// ControllerConfig locates the deployment.
type ControllerConfig struct {
	Genesis string `yaml:"genesis,omitempty"` // path of the genesis document
	Address string `yaml:"address"`
	TLD     string `yaml:"tld"`
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

// MakeAllConfigs merges defaults, the optional config file, then CLI flags.
// A namectl.yaml inside the data directory is picked up when no --config is given.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()

	file := ctx.GlobalString(flags.ConfigFileFlag.Name)
	if file == "" {
		dataDir := cfg.Node.DataDir
		if ctx.GlobalIsSet(flags.DataDirFlag.Name) {
			dataDir = ctx.GlobalString(flags.DataDirFlag.Name)
		}
		if candidate := filepath.Join(resolvePath(dataDir), configFileName); fileExists(candidate) {
			file = candidate
		}
	}
	if file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)
	if cfg.Controller.Genesis != "" {
		cfg.Controller.Genesis = resolvePath(cfg.Controller.Genesis)
	}

	if cfg.Store.Engine != integration.EngineMemory {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(raw, cfg)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.GlobalIsSet(flags.DataDirFlag.Name) {
		cfg.Node.DataDir = ctx.GlobalString(flags.DataDirFlag.Name)
	}

	if ctx.GlobalIsSet(flags.PresetFlag.Name) {
		preset, err := integration.GetPresetByName(ctx.GlobalString(flags.PresetFlag.Name))
		if err != nil {
			return err
		}
		integration.ApplyPreset(&cfg.Store, preset)
	}
	if ctx.GlobalIsSet(flags.StoreEngineFlag.Name) {
		cfg.Store.Engine = ctx.GlobalString(flags.StoreEngineFlag.Name)
	}
	if ctx.GlobalIsSet(flags.StoreCacheFlag.Name) {
		cfg.Store.CacheMB = ctx.GlobalInt(flags.StoreCacheFlag.Name)
	}
	if ctx.GlobalIsSet(flags.StoreNoSyncFlag.Name) {
		cfg.Store.NoSync = ctx.GlobalBool(flags.StoreNoSyncFlag.Name)
	}

	if ctx.GlobalIsSet(flags.GenesisFlag.Name) {
		cfg.Controller.Genesis = ctx.GlobalString(flags.GenesisFlag.Name)
	}
	if ctx.GlobalIsSet(flags.ControllerAddressFlag.Name) {
		cfg.Controller.Address = ctx.GlobalString(flags.ControllerAddressFlag.Name)
	}
	if ctx.GlobalIsSet(flags.TLDFlag.Name) {
		cfg.Controller.TLD = ctx.GlobalString(flags.TLDFlag.Name)
	}

	if ctx.GlobalIsSet(flags.MetricsFlag.Name) {
		cfg.Metrics.Enable = ctx.GlobalBool(flags.MetricsFlag.Name)
	}

	if ctx.GlobalIsSet(flags.LogFormatFlag.Name) {
		cfg.Logging.Format = ctx.GlobalString(flags.LogFormatFlag.Name)
	}
	if ctx.GlobalIsSet(flags.LogVerbosityFlag.Name) {
		cfg.Logging.Verbosity = ctx.GlobalInt(flags.LogVerbosityFlag.Name)
	}
	if ctx.GlobalIsSet(flags.LogColorFlag.Name) {
		cfg.Logging.Color = ctx.GlobalBool(flags.LogColorFlag.Name)
	}
	if ctx.GlobalIsSet(flags.SentryDSNFlag.Name) {
		cfg.Logging.SentryDSN = ctx.GlobalString(flags.SentryDSNFlag.Name)
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
