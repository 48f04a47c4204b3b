package integration

import (
	"fmt"
	"path/filepath"

	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/store/bolt"
	"github.com/rony4d/go-opera-names/store/memory"
	"github.com/rony4d/go-opera-names/store/pebble"
)

// OpenStore opens the engine selected by cfg under dataDir.
func OpenStore(cfg PresetConfig, dataDir string) (store.KVStore, error) {
	switch cfg.Engine {
	case EngineMemory:
		return memory.New(), nil
	case EngineBolt, "":
		if dataDir == "" {
			return nil, fmt.Errorf("bolt store needs a data directory")
		}
		return bolt.New(filepath.Join(dataDir, "names.db"), bolt.Options{NoSync: cfg.NoSync})
	case EnginePebble:
		if dataDir == "" {
			return nil, fmt.Errorf("pebble store needs a data directory")
		}
		return pebble.New(filepath.Join(dataDir, "pebble"), cfg.CacheMB)
	default:
		return nil, fmt.Errorf("unknown store engine %q (valid: memory, bolt, pebble)", cfg.Engine)
	}
}
