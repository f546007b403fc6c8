package store

import (
	"context"

	"github.com/acksell/dynsink/mutation"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Write applies the mutations to table in order. All mutations go into one
// badger transaction unless it grows past badger's transaction limits, in
// which case it is committed and a new one started. Null columns delete the
// cell. Mutations with FsyncWAL durability force a sync after commit.
func (s *Store) Write(ctx context.Context, table string, muts []*mutation.Mutation) error {
	if table == "" {
		return errors.New("table name is required")
	}
	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	needSync := false
	for i, m := range muts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(m.Row) == 0 {
			return errors.Errorf("mutation %d: empty row key", i)
		}
		if m.Durability == mutation.FsyncWAL {
			needSync = true
		}
		for _, c := range m.Columns() {
			key := cellKey(table, m.Row, m.Family, c.Name)
			err := applyCell(txn, key, c)
			if errors.Is(err, badger.ErrTxnTooBig) {
				if err := txn.Commit(); err != nil {
					return errors.Wrap(err, "commit partial batch")
				}
				txn = s.db.NewTransaction(true)
				err = applyCell(txn, key, c)
			}
			if err != nil {
				return errors.Wrapf(err, "mutation %d column %q", i, c.Name)
			}
		}
	}
	if err := txn.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	if needSync && !s.sync && !s.inMemory {
		return errors.Wrap(s.db.Sync(), "sync")
	}
	return nil
}

func applyCell(txn *badger.Txn, key []byte, c mutation.Column) error {
	if c.Null {
		return txn.Delete(key)
	}
	return txn.Set(key, c.Value)
}
