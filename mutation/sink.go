package mutation

// ColumnSink receives the column writes produced by a Builder.
type ColumnSink interface {
	AddColumn(name, value []byte)
	AddNull(name []byte)
}

// TablePut collects columns for a table-style store without column families.
type TablePut struct {
	m *Mutation
}

func NewTablePut(row []byte) *TablePut {
	return &TablePut{m: newMutation(row, nil, SyncWAL)}
}

func (p *TablePut) AddColumn(name, value []byte) {
	p.m.add(Column{Name: name, Value: value})
}

func (p *TablePut) AddNull(name []byte) {
	p.m.add(Column{Name: name, Null: true})
}

func (p *TablePut) Mutation() *Mutation { return p.m }

// FamilyPut collects columns for a wide-column store. Every column is written
// into the one family given at construction.
type FamilyPut struct {
	m *Mutation
}

func NewFamilyPut(row, family []byte, d Durability) *FamilyPut {
	return &FamilyPut{m: newMutation(row, family, d)}
}

func (p *FamilyPut) AddColumn(name, value []byte) {
	p.m.add(Column{Name: name, Value: value})
}

func (p *FamilyPut) AddNull(name []byte) {
	p.m.add(Column{Name: name, Null: true})
}

func (p *FamilyPut) Mutation() *Mutation { return p.m }
