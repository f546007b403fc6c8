// Package store is a local wide-column store backed by BadgerDB. It accepts
// the mutations produced by the sink and keeps one badger key per cell.
package store

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Store is a wide-column store backed by BadgerDB.
type Store struct {
	db       *badger.DB
	inMemory bool
	sync     bool // every commit is already synced
}

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// SyncWrites makes every commit wait for the value log to be synced.
	SyncWrites bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// New opens a BadgerDB-backed store.
func New(opts StoreOptions) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)

	inMemory := opts.Path == "" || opts.InMemory
	if inMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithSyncWrites(opts.SyncWrites && !inMemory)
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger db")
	}
	return &Store{db: db, inMemory: inMemory, sync: opts.SyncWrites && !inMemory}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}
