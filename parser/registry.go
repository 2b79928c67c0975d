// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"fmt"
	"strings"

	"github.com/z5labs/hose/internal/hoseerr"
)

// InvalidAliasError occurs when a custom parser is registered or looked up
// with a blank alias.
type InvalidAliasError struct {
	hoseerr.Kind

	Alias string
}

// Error implements the error interface.
func (e InvalidAliasError) Error() string {
	return fmt.Sprintf("alias to a custom parser must be a non-empty string: %q", e.Alias)
}

// NilParserError occurs when a nil Parser is registered.
type NilParserError struct {
	hoseerr.Kind

	Alias string
}

// Error implements the error interface.
func (e NilParserError) Error() string {
	return fmt.Sprintf("custom parser registered under alias %q must not be nil", e.Alias)
}

// UnknownParserError occurs when looking up a custom parser which has not
// been registered.
type UnknownParserError struct {
	hoseerr.Kind

	Alias string
}

// Error implements the error interface.
func (e UnknownParserError) Error() string {
	return fmt.Sprintf("the parser with alias %s is not registered", e.Alias)
}

// Registry holds the built-in parsers and any registered custom parsers.
// Built-in parsers can not be replaced or removed.
type Registry struct {
	builtins map[Format]Parser
	custom   map[string]Parser
}

// NewRegistry returns a Registry seeded with the JSON, YAML and ENV parsers.
func NewRegistry() *Registry {
	return &Registry{
		builtins: map[Format]Parser{
			JSON: ParserFunc(ParseJSON),
			YAML: ParserFunc(ParseYAML),
			ENV:  ParserFunc(ParseEnv),
		},
		custom: make(map[string]Parser),
	}
}

// Builtin returns the built-in parser for the given format.
func (r *Registry) Builtin(f Format) (Parser, error) {
	p, ok := r.builtins[f]
	if !ok {
		return nil, UnknownFormatError{Name: string(f)}
	}
	return p, nil
}

// Register stores p under alias, overwriting any parser previously
// registered with the same alias. Surrounding whitespace is not part of
// an alias.
func (r *Registry) Register(alias string, p Parser) error {
	key := strings.TrimSpace(alias)
	if key == "" {
		return InvalidAliasError{Alias: alias}
	}
	if isNil(p) {
		return NilParserError{Alias: alias}
	}
	r.custom[key] = p
	return nil
}

// Custom reports the custom parser registered under alias, if any.
func (r *Registry) Custom(alias string) (Parser, bool) {
	p, ok := r.custom[strings.TrimSpace(alias)]
	return p, ok
}

// Lookup returns the custom parser registered under alias.
func (r *Registry) Lookup(alias string) (Parser, error) {
	if strings.TrimSpace(alias) == "" {
		return nil, InvalidAliasError{Alias: alias}
	}
	p, ok := r.custom[strings.TrimSpace(alias)]
	if !ok {
		return nil, UnknownParserError{Alias: alias}
	}
	return p, nil
}

func isNil(p Parser) bool {
	if p == nil {
		return true
	}
	f, ok := p.(ParserFunc)
	return ok && f == nil
}
