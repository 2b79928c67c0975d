// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// dollar replaces '$' while godotenv parses so $VAR and ${VAR} are not
// expanded.
const dollar = "\x00"

var errNulByte = errors.New("env file contains a NUL byte")

// ParseEnv is the built-in parser for .env style files made of KEY=VALUE
// lines. Values are taken literally, '$' included. Values which read as
// finite numbers are coerced to int64 or float64. Everything else is kept
// as a string.
func ParseEnv(ctx context.Context, uri string) (map[string]any, error) {
	b, err := readFile(uri)
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}
	if bytes.Contains(b, []byte(dollar)) {
		return nil, ParseError{URI: uri, Cause: errNulByte}
	}

	b = bytes.ReplaceAll(b, []byte("$"), []byte(dollar))
	vars, err := godotenv.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, ParseError{URI: uri, Cause: err}
	}

	m := make(map[string]any, len(vars))
	for k, v := range vars {
		m[k] = coerceNumber(strings.ReplaceAll(v, dollar, "$"))
	}
	return m, nil
}

func coerceNumber(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return f
}
