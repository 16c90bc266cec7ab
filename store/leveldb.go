package store

import (
	"github.com/iov-one/quorum/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelDBStore is a persistent KVStore kept in a leveldb database.
// Batches written to it are atomic.
type LevelDBStore struct {
	db *leveldb.DB
}

var _ KVStore = (*LevelDBStore)(nil)

// OpenLevelDB opens or creates a database in given directory. A corrupted
// database is recovered.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if lerrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

// MemLevelDB returns a leveldb store that keeps all data in memory.
func MemLevelDB() (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &LevelDBStore{db: db}, nil
}

// Close releases the database. The store must not be used afterwards.
func (s *LevelDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns nil for missing keys.
func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	switch {
	case err == leveldb.ErrNotFound:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (s *LevelDBStore) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

func (s *LevelDBStore) Set(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (s *LevelDBStore) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// NewBatch returns a batch that is written to disk in a single atomic
// and synced write.
func (s *LevelDBStore) NewBatch() Batch {
	return &levelDBBatch{db: s.db, batch: new(leveldb.Batch)}
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Set(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelDBBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Write() error {
	defer b.batch.Reset()
	if err := b.db.Write(b.batch, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}
