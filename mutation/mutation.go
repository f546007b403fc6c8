// Package mutation builds per-row column writes from records.
//
// A Mutation is created for one record, filled during a single record walk
// and then handed to a storage writer. It is never reused.
package mutation

import (
	"bytes"
	"strings"
)

// Column is one column write. Null columns are tombstones: the write happens
// but carries no value.
type Column struct {
	Name  []byte
	Value []byte
	Null  bool
}

// Mutation accumulates the column writes for one destination row.
type Mutation struct {
	Row        []byte
	Family     []byte // nil for table-style stores
	Durability Durability

	columns []Column
	index   map[string]int
}

func newMutation(row, family []byte, d Durability) *Mutation {
	return &Mutation{Row: row, Family: family, Durability: d, index: make(map[string]int)}
}

// add appends a column write. A repeated column name replaces the earlier
// value in place, the last write wins.
func (m *Mutation) add(c Column) {
	if i, ok := m.index[string(c.Name)]; ok {
		m.columns[i] = c
		return
	}
	m.index[string(c.Name)] = len(m.columns)
	m.columns = append(m.columns, c)
}

// Columns returns the column writes in insertion order.
func (m *Mutation) Columns() []Column { return m.columns }

func (m *Mutation) Len() int { return len(m.columns) }

// Column looks up a column write by name.
func (m *Mutation) Column(name string) (Column, bool) {
	i, ok := m.index[name]
	if !ok {
		return Column{}, false
	}
	return m.columns[i], true
}

// Equal reports whether both mutations write the same row, family,
// durability and columns in the same order.
func (m *Mutation) Equal(o *Mutation) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !bytes.Equal(m.Row, o.Row) || !bytes.Equal(m.Family, o.Family) || m.Durability != o.Durability {
		return false
	}
	if len(m.columns) != len(o.columns) {
		return false
	}
	for i, c := range m.columns {
		oc := o.columns[i]
		if !bytes.Equal(c.Name, oc.Name) || !bytes.Equal(c.Value, oc.Value) || c.Null != oc.Null {
			return false
		}
	}
	return true
}

// Durability selects how a wide-column store persists a write.
type Durability int

const (
	SyncWAL Durability = iota
	AsyncWAL
	FsyncWAL
	SkipWAL
)

var durabilityNames = map[Durability]string{
	SyncWAL:  "wal synchronous",
	AsyncWAL: "wal asynchronous",
	FsyncWAL: "wal asynchronous & force disk write",
	SkipWAL:  "skip wal",
}

func (d Durability) String() string {
	if s, ok := durabilityNames[d]; ok {
		return s
	}
	return SyncWAL.String()
}

// ParseDurability accepts the descriptive labels ("wal synchronous", "skip
// wal", ...) and the short names sync_wal, async_wal, fsync_wal and skip_wal,
// case-insensitively. Anything else is SyncWAL.
func ParseDurability(s string) Durability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wal asynchronous", "wal ssynchronous", "async_wal", "async":
		return AsyncWAL
	case "wal asynchronous & force disk write", "fsync_wal", "fsync":
		return FsyncWAL
	case "skip wal", "skip_wal", "skip":
		return SkipWAL
	default:
		return SyncWAL
	}
}
