package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/salmonumbrella/apiform/internal/dataset"
)

type keyValue struct {
	key string
	val string
}

// tabulate turns a list into a table. Lists of structs use the struct field
// order; lists of maps use the sorted union of their keys.
func tabulate(data any) (dataset.Table, bool) {
	switch t := data.(type) {
	case dataset.Table:
		return t, true
	case *dataset.Table:
		if t == nil {
			return dataset.Table{}, true
		}
		return *t, true
	}

	v := derefValue(reflect.ValueOf(data))
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return dataset.Table{}, false
	}
	if v.Len() == 0 {
		return dataset.Table{}, true
	}

	items, err := normalizeToInterface(data)
	if err != nil {
		return dataset.Table{}, false
	}
	list, ok := items.([]any)
	if !ok {
		return dataset.Table{}, false
	}

	var headers []string
	first := derefValue(v.Index(0))
	switch first.Kind() {
	case reflect.Struct:
		headers = structFieldNames(first.Type())
	case reflect.Map:
		headers = unionKeys(list)
	default:
		t := dataset.Table{}
		for _, item := range list {
			t.Rows = append(t.Rows, []string{dataset.RenderCell(item)})
		}
		return t, true
	}

	t := dataset.Table{Headers: headers, Rows: make([][]string, 0, len(list))}
	for _, item := range list {
		obj, _ := item.(map[string]any)
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = dataset.RenderCell(obj[h])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// keyValues lists the fields of a single struct or map.
func keyValues(data any) ([]keyValue, bool) {
	v := derefValue(reflect.ValueOf(data))
	if !v.IsValid() || (v.Kind() != reflect.Struct && v.Kind() != reflect.Map) {
		return nil, false
	}

	normalized, err := normalizeToInterface(data)
	if err != nil {
		return nil, false
	}
	obj, ok := normalized.(map[string]any)
	if !ok {
		return nil, false
	}

	var keys []string
	if v.Kind() == reflect.Struct {
		keys = structFieldNames(v.Type())
	} else {
		keys = make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	out := make([]keyValue, 0, len(keys))
	for _, k := range keys {
		val, present := obj[k]
		if !present {
			continue
		}
		out = append(out, keyValue{key: k, val: dataset.RenderCell(val)})
	}
	return out, true
}

func unionKeys(list []any) []string {
	seen := make(map[string]bool)
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			for k := range obj {
				seen[k] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func structFieldNames(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if name := fieldJSONName(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func fieldJSONName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func derefValue(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func scalarText(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	normalized, err := normalizeToInterface(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return dataset.RenderCell(normalized)
}

// normalizeToInterface converts data to plain maps and slices. Numbers stay
// json.Number so integers print verbatim.
func normalizeToInterface(data any) (any, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return out, nil
}

func isEmptyResult(data any) bool {
	if data == nil {
		return true
	}
	if t, ok := data.(dataset.Table); ok {
		return len(t.Rows) == 0
	}
	v := derefValue(reflect.ValueOf(data))
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	}
	return false
}
