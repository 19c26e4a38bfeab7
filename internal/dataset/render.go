package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Table is a dataset projected through a Visibility map and rendered to text.
type Table struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Project renders one table row per dataset row, with one cell per visible
// column in field order. A row without the column renders an empty cell.
func Project(d *Dataset, vis Visibility) Table {
	headers := vis.VisibleColumns()
	t := Table{Headers: headers, Rows: make([][]string, 0, d.Len())}
	if d == nil {
		return t
	}
	for _, row := range d.Rows {
		cells := make([]string, len(headers))
		for i, col := range headers {
			cells[i] = RenderCell(row[col])
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Records projects rows onto the visible columns, keeping the original JSON
// values rather than rendered text.
func Records(d *Dataset, vis Visibility) []Row {
	out := make([]Row, 0, d.Len())
	if d == nil {
		return out
	}
	cols := vis.VisibleColumns()
	for _, row := range d.Rows {
		rec := make(Row, len(cols))
		for _, col := range cols {
			if v, ok := row[col]; ok {
				rec[col] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

// RenderCell formats one cell. Scalars render as-is and null renders empty.
// Objects and arrays expand to one "key: value" line per entry; object keys
// are sorted and array entries are keyed by index.
func RenderCell(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return renderObject(val)
	case Row:
		return renderObject(val)
	case []any:
		lines := make([]string, len(val))
		for i, item := range val {
			lines[i] = strconv.Itoa(i) + ": " + renderInline(item)
		}
		return strings.Join(lines, "\n")
	default:
		return renderScalar(v)
	}
}

func renderObject(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + renderInline(obj[k])
	}
	return strings.Join(lines, "\n")
}

// renderInline formats a value nested inside an expanded cell.
func renderInline(v any) string {
	switch v.(type) {
	case map[string]any, Row, []any:
		buf, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(buf)
	default:
		return renderScalar(v)
	}
}

func renderScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
