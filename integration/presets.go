// Package integration bundles storage presets and assembles a runnable
// controller from a store, a ledger backend and a genesis document.
//
// Presets name common storage trade-offs so operators pick one flag instead of
// several:
//
//	lite    - in-memory, nothing survives a restart (scripts, CI)
//	default - bbolt file, synced writes
//	full    - bbolt file with metrics enabled
//	archive - pebble with a large block cache
package integration

import "fmt"

// Storage engines.
const (
	EngineMemory = "memory"
	EngineBolt   = "bolt"
	EnginePebble = "pebble"
)

// PresetConfig is the storage profile of a deployment.
type PresetConfig struct {
	Name          string `yaml:"name"`
	Engine        string `yaml:"engine"`  // memory|bolt|pebble
	CacheMB       int    `yaml:"cacheMB"` // pebble block cache
	NoSync        bool   `yaml:"noSync"`  // bolt: skip fsync on commit
	EnableMetrics bool   `yaml:"enableMetrics"`
}

func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:    "default",
		Engine:  EngineBolt,
		CacheMB: 64,
	}
}

// LitePreset keeps everything in memory.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.Engine = EngineMemory
	cfg.CacheMB = 0
	cfg.EnableMetrics = true
	return cfg
}

// FullPreset is the production profile: durable bbolt file plus metrics.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.EnableMetrics = true
	return cfg
}

// ArchivePreset uses pebble, which copes better with a long receipt log.
func ArchivePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "archive"
	cfg.Engine = EnginePebble
	cfg.CacheMB = 512
	cfg.EnableMetrics = true
	return cfg
}

// GetPresetByName looks a preset up by name.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "archive":
		return ArchivePreset(), nil
	case "default", "":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: lite, full, archive, default)", name)
	}
}

// ApplyPreset overwrites target with the non-zero fields of preset.
// Boolean fields are always applied.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Engine != "" {
		target.Engine = preset.Engine
	}
	if preset.CacheMB > 0 {
		target.CacheMB = preset.CacheMB
	}
	target.NoSync = preset.NoSync
	target.EnableMetrics = preset.EnableMetrics
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
