package memory

import (
	"testing"

	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/store/storetest"
)

func TestKVStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.KVStore {
		return New()
	})
}
