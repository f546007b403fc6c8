package store

import (
	"bytes"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Cell is one stored column value.
type Cell struct {
	Family []byte
	Column []byte
	Value  []byte
}

// GetRow returns every cell of a row ordered by family, then column. A
// missing row returns no cells and no error.
func (s *Store) GetRow(table string, row []byte) ([]Cell, error) {
	prefix := rowPrefix(table, row)
	var cells []Cell
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k, err := decodeKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return errors.Wrap(err, "read cell")
			}
			cells = append(cells, Cell{Family: k.family, Column: k.column, Value: val})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cells, nil
}

// Rows returns the distinct row keys of a table in key order.
func (s *Store) Rows(table string) ([][]byte, error) {
	prefix := tablePrefix(table)
	var rows [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		var last []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			k, err := decodeKey(it.Item().Key())
			if err != nil {
				return err
			}
			if last != nil && bytes.Equal(last, k.row) {
				continue
			}
			last = k.row
			rows = append(rows, k.row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
