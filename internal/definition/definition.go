// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package definition loads the top level hose definition which declares
// the source files, the variable groups and the error policy.
package definition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/z5labs/hose/internal/hoseerr"
	"github.com/z5labs/hose/parser"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultIdentifierKey is the environment variable consulted for the
// configuration identifier when the definition does not name one, or the
// one it names is unset.
const DefaultIdentifierKey = "APP_ENV"

// FileDeclaration is either the short form, a bare path, or the long form
// record. Short is only ever set by decoding a bare path.
type FileDeclaration struct {
	FileURI     string `config:"fileUri"`
	IsAbsolute  bool   `config:"isAbsolute"`
	UseDefault  string `config:"useDefault"`
	ParserAlias string `config:"parserAlias"`

	Short bool `config:"-"`
}

// VariableGroup declares variables which share one ordered list of
// source file aliases per configuration identifier.
type VariableGroup struct {
	Variables []string            `config:"variables"`
	Source    map[string][]string `config:"source"`
}

// Definition is the decoded definition file.
type Definition struct {
	ConfigIdentifier string                     `config:"config_identifier"`
	ErrorMode        string                     `config:"error_mode"`
	Files            map[string]FileDeclaration `config:"files"`
	VariableGroups   []VariableGroup            `config:"variableGroups"`
}

// ErrorMode controls how reads of unavailable values are reported.
type ErrorMode int

const (
	Noisy ErrorMode = iota
	Silent
)

// String implements the fmt.Stringer interface.
func (m ErrorMode) String() string {
	if m == Silent {
		return "silent"
	}
	return "noisy"
}

// Env is a snapshot of environment variables.
type Env map[string]string

// EnvFrom builds an Env from KEY=VALUE pairs, e.g. os.Environ().
func EnvFrom(environ []string) Env {
	env := make(Env, len(environ))
	for _, pair := range environ {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// Loaded is a validated Definition plus the policy derived from it.
type Loaded struct {
	Definition Definition
	Identifier string
	Mode       ErrorMode
}

// UnsupportedFormatError occurs when a definition is declared in a format
// other than JSON or YAML.
type UnsupportedFormatError struct {
	hoseerr.Kind

	Format string
}

// Error implements the error interface.
func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("definition format must be JSON or YAML: %q", e.Format)
}

// NotFoundError occurs when the definition file can not be found.
type NotFoundError struct {
	hoseerr.Kind

	Path  string
	Cause error
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("definition file not found: %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e NotFoundError) Unwrap() error {
	return e.Cause
}

// MalformedError occurs when the definition can not be parsed or does not
// have the expected shape.
type MalformedError struct {
	hoseerr.Kind

	Path  string
	Cause error
}

// Error implements the error interface.
func (e MalformedError) Error() string {
	return fmt.Sprintf("malformed definition %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e MalformedError) Unwrap() error {
	return e.Cause
}

// UndefinedIdentifierError occurs when none of the consulted environment
// variables hold a configuration identifier.
type UndefinedIdentifierError struct {
	hoseerr.Kind

	Keys []string
}

// Error implements the error interface.
func (e UndefinedIdentifierError) Error() string {
	return fmt.Sprintf("configuration identifier is undefined, checked: %s", strings.Join(e.Keys, ", "))
}

// Builtins provides the built-in parsers used to read the definition itself.
type Builtins interface {
	Builtin(parser.Format) (parser.Parser, error)
}

// Load reads the definition at path, which must already be absolute or
// relative to the process working directory.
func Load(ctx context.Context, parsers Builtins, path string, format parser.Format, env Env) (*Loaded, error) {
	f, err := parser.ParseFormat(string(format))
	if err != nil || f == parser.ENV {
		return nil, UnsupportedFormatError{Format: string(format)}
	}

	_, err = os.Stat(path)
	if err != nil {
		return nil, NotFoundError{Path: path, Cause: err}
	}

	p, err := parsers.Builtin(f)
	if err != nil {
		return nil, err
	}
	m, err := p.Parse(ctx, path)
	if err != nil {
		return nil, MalformedError{Path: path, Cause: err}
	}

	def, err := Decode(m)
	if err != nil {
		return nil, MalformedError{Path: path, Cause: err}
	}

	id, err := identifier(def, env)
	if err != nil {
		return nil, err
	}

	l := &Loaded{
		Definition: def,
		Identifier: id,
		Mode:       errorMode(def.ErrorMode),
	}
	return l, nil
}

// Decode converts a parsed definition mapping into a Definition.
func Decode(m map[string]any) (Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "config",
		Result:     &def,
		DecodeHook: composeDecodeHooks(shortFormHookFunc()),
	})
	if err != nil {
		return def, err
	}
	err = dec.Decode(m)
	return def, err
}

func identifier(def Definition, env Env) (string, error) {
	keys := make([]string, 0, 2)
	if k := strings.TrimSpace(def.ConfigIdentifier); k != "" {
		keys = append(keys, k)
	}
	keys = append(keys, DefaultIdentifierKey)

	for _, k := range keys {
		if v := env[k]; v != "" {
			return v, nil
		}
	}
	return "", UndefinedIdentifierError{Keys: keys}
}

func errorMode(s string) ErrorMode {
	if strings.EqualFold(strings.TrimSpace(s), "silent") {
		return Silent
	}
	return Noisy
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if errors.Is(err, errInvalidDecodeCondition) {
				continue
			}
			return nil, err
		}
		return f.Interface(), nil
	}
}

var fileDeclarationType = reflect.TypeOf(FileDeclaration{})

func shortFormHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != fileDeclarationType || f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		return FileDeclaration{
			FileURI: data.(string),
			Short:   true,
		}, nil
	}
}
