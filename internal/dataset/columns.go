package dataset

// Column is one entry of a Visibility map, in field order.
type Column struct {
	Name    string `json:"name" yaml:"name"`
	Visible bool   `json:"visible" yaml:"visible"`
}

// Visibility maps field names to whether the column is shown (and exported).
// It is a value type: every operation returns a new map and leaves the
// receiver untouched.
type Visibility struct {
	names   []string
	visible map[string]bool
}

// NewVisibility returns a map with every field visible.
func NewVisibility(fields []Field) Visibility {
	v := Visibility{
		names:   make([]string, 0, len(fields)),
		visible: make(map[string]bool, len(fields)),
	}
	for _, f := range fields {
		if _, dup := v.visible[f.Name]; dup {
			continue
		}
		v.names = append(v.names, f.Name)
		v.visible[f.Name] = true
	}
	return v
}

// ForDataset returns the all-visible map for the first row of d.
func ForDataset(d *Dataset) Visibility {
	if d == nil {
		return NewVisibility(nil)
	}
	return NewVisibility(d.Fields)
}

func (v Visibility) clone() Visibility {
	out := Visibility{
		names:   v.names,
		visible: make(map[string]bool, len(v.visible)),
	}
	for k, b := range v.visible {
		out.visible[k] = b
	}
	return out
}

// Toggle flips exactly one column. Unknown names leave the map unchanged.
func (v Visibility) Toggle(name string) Visibility {
	if !v.Has(name) {
		return v
	}
	out := v.clone()
	out.visible[name] = !out.visible[name]
	return out
}

// InvertAll flips every column at once. Applying it twice restores the map.
func (v Visibility) InvertAll() Visibility {
	out := v.clone()
	for k, b := range out.visible {
		out.visible[k] = !b
	}
	return out
}

// Hide marks the named columns as not visible.
func (v Visibility) Hide(names ...string) Visibility {
	out := v.clone()
	for _, name := range names {
		if _, ok := out.visible[name]; ok {
			out.visible[name] = false
		}
	}
	return out
}

// Only shows the named columns and hides every other one.
func (v Visibility) Only(names ...string) Visibility {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	out := v.clone()
	for k := range out.visible {
		out.visible[k] = keep[k]
	}
	return out
}

// Has reports whether name is a known column.
func (v Visibility) Has(name string) bool {
	_, ok := v.visible[name]
	return ok
}

// Visible reports whether name is a known, visible column.
func (v Visibility) Visible(name string) bool {
	return v.visible[name]
}

// Len returns the number of known columns.
func (v Visibility) Len() int {
	return len(v.names)
}

// Names returns every column name in field order.
func (v Visibility) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// VisibleColumns returns the visible column names in field order.
func (v Visibility) VisibleColumns() []string {
	out := make([]string, 0, len(v.names))
	for _, name := range v.names {
		if v.visible[name] {
			out = append(out, name)
		}
	}
	return out
}

// Columns returns every column with its state, in field order.
func (v Visibility) Columns() []Column {
	out := make([]Column, len(v.names))
	for i, name := range v.names {
		out[i] = Column{Name: name, Visible: v.visible[name]}
	}
	return out
}

// Excluded returns the inverse map sent to the export service: true means the
// column is left out.
func (v Visibility) Excluded() map[string]bool {
	out := make(map[string]bool, len(v.names))
	for _, name := range v.names {
		out[name] = !v.visible[name]
	}
	return out
}

// Unknown returns the names that are not columns of this map.
func (v Visibility) Unknown(names ...string) []string {
	var out []string
	for _, name := range names {
		if !v.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Equal reports whether both maps have the same columns in the same state.
func (v Visibility) Equal(other Visibility) bool {
	if len(v.names) != len(other.names) {
		return false
	}
	for i, name := range v.names {
		if other.names[i] != name || other.visible[name] != v.visible[name] {
			return false
		}
	}
	return true
}
