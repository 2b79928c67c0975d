// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package parser provides the parsers hose uses to turn a source file into
// a flat key value mapping, along with the registry which holds them.
//
// Three parsers are built in, one per [Format]. Any number of custom
// parsers may be registered under a user chosen alias.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/z5labs/hose/internal/hoseerr"
)

// Parser converts the file located at uri into a key value mapping.
type Parser interface {
	Parse(ctx context.Context, uri string) (map[string]any, error)
}

// ParserFunc is a functional implementation of the Parser interface.
type ParserFunc func(context.Context, string) (map[string]any, error)

// Parse implements the Parser interface.
func (f ParserFunc) Parse(ctx context.Context, uri string) (map[string]any, error) {
	return f(ctx, uri)
}

// Format names one of the built-in parsers.
type Format string

const (
	JSON Format = "JSON"
	YAML Format = "YAML"
	ENV  Format = "ENV"
)

// Formats returns every built-in format.
func Formats() []Format {
	return []Format{JSON, YAML, ENV}
}

// UnknownFormatError occurs when a name does not refer to a built-in format.
type UnknownFormatError struct {
	hoseerr.Kind

	Name string
}

// Error implements the error interface.
func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("no built-in parser exists for format: %q", e.Name)
}

// ParseFormat normalizes case and surrounding whitespace of name before
// matching it against the built-in formats.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(name)))
	switch f {
	case JSON, YAML, ENV:
		return f, nil
	default:
		return "", UnknownFormatError{Name: name}
	}
}

// FormatOf infers the built-in format from the extension of path.
// Anything which is not JSON or YAML is treated as ENV.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(path))) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	default:
		return ENV
	}
}

// ParseError wraps any failure which occurred while parsing a file.
type ParseError struct {
	hoseerr.Kind

	URI   string
	Cause error
}

// Error implements the error interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("error while parsing data from %s: %s", e.URI, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e ParseError) Unwrap() error {
	return e.Cause
}
