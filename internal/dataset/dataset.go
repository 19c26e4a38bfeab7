// Package dataset holds the in-memory model behind a fetched JSON response:
// the ordered rows, the field descriptors derived from the first row, the
// column-visibility map, and the projection of rows into rendered table cells.
package dataset

// Row is one JSON object of unconstrained shape.
type Row map[string]any

// Kind is the JSON type of a field's value in the row it was derived from.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// Field describes one column of the dataset.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Index int    `json:"index" yaml:"index"`
	Kind  Kind   `json:"-" yaml:"-"`
}

// Dataset is the ordered sequence of rows currently displayed, together with
// the field descriptors computed once when it was loaded.
type Dataset struct {
	Rows   []Row
	Fields []Field

	// keys holds the source key order of every row so the field set can be
	// recomputed when rows are filtered.
	keys [][]Field
}

// Empty returns a dataset with no rows and no fields.
func Empty() *Dataset {
	return &Dataset{Rows: []Row{}, Fields: []Field{}}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty reports whether the dataset has no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Columns returns the field names in source order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return []string{}
	}
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// RequireField keeps only the rows that carry name. When no row does, the
// result is empty. Fields are re-derived from the first surviving row.
func (d *Dataset) RequireField(name string) *Dataset {
	if d == nil {
		return Empty()
	}

	out := &Dataset{Rows: []Row{}, Fields: []Field{}}
	for i, row := range d.Rows {
		if _, ok := row[name]; !ok {
			continue
		}
		out.Rows = append(out.Rows, row)
		out.keys = append(out.keys, d.rowKeys(i))
	}
	if len(out.keys) > 0 {
		out.Fields = out.keys[0]
	}
	return out
}

func (d *Dataset) rowKeys(i int) []Field {
	if i < len(d.keys) {
		return d.keys[i]
	}
	return fieldsFromRow(d.Rows[i])
}

// newDataset builds a dataset from rows and their per-row key order.
func newDataset(rows []Row, keys [][]Field) *Dataset {
	d := &Dataset{Rows: rows, Fields: []Field{}, keys: keys}
	if len(rows) > 0 {
		d.Fields = d.rowKeys(0)
	}
	return d
}
