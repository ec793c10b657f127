package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// object is a JSON object that remembers the order its keys were first seen in.
type object struct {
	keys   []string
	values map[string]any
}

// readJSON accepts a list of objects, an object with a "data" list, or a single object. Columns
// follow first-seen key order across all objects.
func readJSON(data []byte) (*dataset.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(stripBOM(data)))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}

	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case *object:
		if list, ok := v.values["data"].([]any); ok {
			items = list
		} else {
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or a list of objects", ErrMalformed)
	}

	var columns []string
	index := make(map[string]int)
	objects := make([]*object, 0, len(items))
	for i, item := range items {
		obj, ok := item.(*object)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrMalformed, i)
		}
		for _, k := range obj.keys {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		objects = append(objects, obj)
	}
	if len(columns) == 0 {
		return nil, ErrEmptyInput
	}

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for _, k := range obj.keys {
			row[index[k]] = cellText(obj.values[k])
		}
		rows[i] = row
	}
	return rectangular(columns, rows), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &object{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.values[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// cellText renders a decoded JSON value as a table cell. Nested values are written back as
// compact JSON.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	b, err := json.Marshal(plain(v))
	if err != nil {
		return ""
	}
	return string(b)
}

// plain converts ordered objects back into maps for re-encoding.
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = plain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	}
	return v
}
