package weavetest

import (
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/store"
)

// LevelDBStore returns a store instance that is using a filesystem backend
// engine to store the data. Use it instead of store.MemStore when you want
// the exact same storage implementation as the command line client is
// using.
func LevelDBStore(t testing.TB) quorum.CacheableKVStore {
	t.Helper()
	db, err := store.OpenLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("cannot open database: %s", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return store.BTreeCacheable{KVStore: db}
}
