// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/tidwall/jsonc"
)

var errTrailingContent = errors.New("unexpected content after the top level json value")

// ParseJSON is the built-in JSON parser. Comments and trailing commas are
// tolerated. Integral numbers decode as int64, all others as float64.
func ParseJSON(ctx context.Context, uri string) (map[string]any, error) {
	b, err := readFile(uri)
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}

	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(b)))
	dec.UseNumber()

	var m map[string]any
	err = dec.Decode(&m)
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}
	if m == nil {
		return nil, ParseError{URI: uri, Cause: errNotMapping}
	}
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return nil, ParseError{URI: uri, Cause: errTrailingContent}
	}
	return normalizeNumbers(m).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return v
	}
}
