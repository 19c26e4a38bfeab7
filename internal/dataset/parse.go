package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/buger/jsonparser"

	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

// scalarKey is the column name given to array elements that are not objects.
const scalarKey = "value"

// Parse decodes a response body into a dataset. An object becomes a
// one-element dataset, an array is used directly. Anything else fails with a
// ParseError.
func Parse(body []byte) (*Dataset, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &clierrors.ParseError{Reason: "empty body"}
	}

	top, err := decode(trimmed)
	if err != nil {
		return nil, err
	}

	switch v := top.(type) {
	case map[string]any:
		keys, err := objectKeys(trimmed)
		if err != nil {
			return nil, err
		}
		return newDataset([]Row{v}, [][]Field{keys}), nil
	case []any:
		return fromArray(trimmed, v)
	default:
		return nil, &clierrors.ParseError{Reason: fmt.Sprintf("expected JSON object or array, got %s", kindOf(top))}
	}
}

// ParseAt selects the records with path before parsing. Plain member/index
// paths such as "$.data.items" or "results[0].rows" are resolved on the raw
// bytes so key order survives; anything richer is evaluated as JSONPath.
func ParseAt(body []byte, path string) (*Dataset, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "$" {
		return Parse(body)
	}

	if keys, ok := simplePath(path); ok {
		value, dataType, _, err := jsonparser.Get(bytes.TrimSpace(body), keys...)
		if err != nil {
			if errors.Is(err, jsonparser.KeyPathNotFoundError) {
				return nil, &clierrors.ParseError{Reason: fmt.Sprintf("records path %q not found", path)}
			}
			// The body itself may be malformed; report that rather than the path.
			if _, decodeErr := decode(bytes.TrimSpace(body)); decodeErr != nil {
				return nil, decodeErr
			}
			return nil, &clierrors.ParseError{Reason: fmt.Sprintf("records path %q", path), Err: err}
		}
		if dataType == jsonparser.String {
			value = []byte(strconv.Quote(string(value)))
		}
		return Parse(value)
	}

	top, err := decode(bytes.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + strings.TrimPrefix(path, ".")
	}
	selected, err := jsonpath.Get(path, top)
	if err != nil {
		return nil, &clierrors.ParseError{Reason: fmt.Sprintf("records path %q", path), Err: err}
	}
	raw, err := json.Marshal(selected)
	if err != nil {
		return nil, &clierrors.ParseError{Reason: "records selection", Err: err}
	}
	return Parse(raw)
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, &clierrors.ParseError{Reason: "body is not valid JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &clierrors.ParseError{Reason: "unexpected data after top-level value"}
	}
	return top, nil
}

func fromArray(raw []byte, elems []any) (*Dataset, error) {
	rows := make([]Row, 0, len(elems))
	keys := make([][]Field, 0, len(elems))

	var walkErr error
	i := 0
	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if walkErr != nil {
			return
		}
		if err != nil {
			walkErr = err
			return
		}
		if i >= len(elems) {
			return
		}
		elem := elems[i]
		i++

		if obj, ok := elem.(map[string]any); ok && dataType == jsonparser.Object {
			fields, err := objectKeys(value)
			if err != nil {
				walkErr = err
				return
			}
			rows = append(rows, obj)
			keys = append(keys, fields)
			return
		}
		rows = append(rows, Row{scalarKey: elem})
		keys = append(keys, []Field{{Name: scalarKey, Index: 0, Kind: kindOf(elem)}})
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, &clierrors.ParseError{Reason: "reading array elements", Err: err}
	}
	return newDataset(rows, keys), nil
}

// objectKeys lists the keys of a raw JSON object in document order. A key
// repeated in the source is reported once, at its first position.
func objectKeys(raw []byte) ([]Field, error) {
	fields := []Field{}
	seen := map[string]bool{}
	err := jsonparser.ObjectEach(raw, func(key, _ []byte, dataType jsonparser.ValueType, _ int) error {
		name := string(key)
		if seen[name] {
			return nil
		}
		seen[name] = true
		fields = append(fields, Field{Name: name, Index: len(fields), Kind: kindFromValueType(dataType)})
		return nil
	})
	if err != nil {
		return nil, &clierrors.ParseError{Reason: "reading object keys", Err: err}
	}
	return fields, nil
}

// fieldsFromRow derives fields from a decoded row when no source order is
// known. Keys are sorted for a stable result.
func fieldsFromRow(row Row) []Field {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name, Index: i, Kind: kindOf(row[name])}
	}
	return fields
}

func kindFromValueType(t jsonparser.ValueType) Kind {
	switch t {
	case jsonparser.String:
		return KindString
	case jsonparser.Number:
		return KindNumber
	case jsonparser.Boolean:
		return KindBool
	case jsonparser.Object:
		return KindObject
	case jsonparser.Array:
		return KindArray
	default:
		return KindNull
	}
}

func kindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case json.Number, float64, float32, int, int64, int32, uint, uint64:
		return KindNumber
	case bool:
		return KindBool
	case map[string]any, Row:
		return KindObject
	case []any:
		return KindArray
	default:
		return KindNull
	}
}

// simplePath converts "$.a.b[0]" style paths into jsonparser keys. It returns
// false for anything using wildcards, filters, recursion, or quoted members.
func simplePath(path string) ([]string, bool) {
	p := strings.TrimPrefix(path, "$")
	var keys []string
	for len(p) > 0 {
		switch p[0] {
		case '.':
			p = p[1:]
			end := strings.IndexAny(p, ".[")
			if end < 0 {
				end = len(p)
			}
			name := p[:end]
			if name == "" || strings.ContainsAny(name, "*?@()'\" ") {
				return nil, false
			}
			keys = append(keys, name)
			p = p[end:]
		case '[':
			end := strings.IndexByte(p, ']')
			if end < 0 {
				return nil, false
			}
			idx := p[1:end]
			if _, err := strconv.Atoi(idx); err != nil {
				return nil, false
			}
			keys = append(keys, "["+idx+"]")
			p = p[end+1:]
		default:
			if len(keys) > 0 {
				return nil, false
			}
			// Bare leading member: "results.items".
			p = "." + p
		}
	}
	return keys, len(keys) > 0
}
