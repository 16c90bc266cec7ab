package store

import (
	"testing"

	"github.com/iov-one/quorum/weavetest/assert"
)

func makeMemStore() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeCacheWrap(t *testing.T) {
	s := NewTestSuite(makeMemStore)
	t.Run("get set", s.GetSet)
	t.Run("cache conflicts", s.CacheConflicts)
	t.Run("batch", s.Batch)
}

func TestBTreeCacheableOverEmpty(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()

	k, v := []byte("french"), []byte("fry")
	assert.Nil(t, base.Set(k, v))
	got, err := base.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, v, got)

	// writing to the black hole drops everything
	assert.Nil(t, base.Write())
	got, err = devnull.Get(k)
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestBTreeNestedDiscard(t *testing.T) {
	base := MemStore()
	k, v := []byte("key"), []byte("value")

	outer := base.CacheWrap()
	inner := outer.CacheWrap()
	assert.Nil(t, inner.Set(k, v))
	assert.Nil(t, inner.Write())

	has, err := outer.Has(k)
	assert.Nil(t, err)
	assert.Equal(t, true, has)

	outer.Discard()
	has, err = base.Has(k)
	assert.Nil(t, err)
	assert.Equal(t, false, has)
}
