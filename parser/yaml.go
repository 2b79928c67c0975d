// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"context"

	"gopkg.in/yaml.v3"
)

// ParseYAML is the built-in YAML parser.
func ParseYAML(ctx context.Context, uri string) (map[string]any, error) {
	b, err := readFile(uri)
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}

	var m map[string]any
	err = yaml.Unmarshal(b, &m)
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}
	if m == nil {
		return nil, ParseError{URI: uri, Cause: errNotMapping}
	}
	return m, nil
}
