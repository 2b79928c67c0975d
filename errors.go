// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hose

import (
	"fmt"
	"strings"

	"github.com/z5labs/hose/internal/definition"
	"github.com/z5labs/hose/internal/filereg"
	"github.com/z5labs/hose/internal/hoseerr"
	"github.com/z5labs/hose/internal/resolve"
	"github.com/z5labs/hose/parser"
)

// ErrHose matches every error returned by this module via errors.Is.
var ErrHose = hoseerr.ErrHose

type (
	ParseError             = parser.ParseError
	UnknownFormatError     = parser.UnknownFormatError
	InvalidAliasError      = parser.InvalidAliasError
	NilParserError         = parser.NilParserError
	UnknownParserError     = parser.UnknownParserError
	UnsupportedFormatError = definition.UnsupportedFormatError

	DefinitionNotFoundError  = definition.NotFoundError
	MalformedDefinitionError = definition.MalformedError
	UndefinedIdentifierError = definition.UndefinedIdentifierError

	EmptyPathError       = filereg.EmptyPathError
	UnknownBuiltinError  = filereg.UnknownBuiltinError
	ExhaustedError       = resolve.ExhaustedError
	DanglingFileError    = resolve.DanglingFileError
	MalformedSourceError = resolve.MalformedSourceError
	ParserPanicError     = resolve.ParserPanicError
)

// NoVariableGroupsError occurs, in noisy mode, when no variable group
// declares sources for the active configuration identifier.
type NoVariableGroupsError struct {
	hoseerr.Kind

	Identifier string
}

// Error implements the error interface.
func (e NoVariableGroupsError) Error() string {
	return fmt.Sprintf("no variable group declares sources for configuration identifier: %s", e.Identifier)
}

// InvalidKeyError occurs when Get is called with a blank key.
type InvalidKeyError struct {
	hoseerr.Kind

	Key string
}

// Error implements the error interface.
func (e InvalidKeyError) Error() string {
	return fmt.Sprintf("key must be a non-empty string: %q", e.Key)
}

// UndeclaredKeyError occurs when Get is called with a key that no
// variable group declares.
type UndeclaredKeyError struct {
	hoseerr.Kind

	Key string
}

// Error implements the error interface.
func (e UndeclaredKeyError) Error() string {
	return fmt.Sprintf("variable is not declared in the definition: %s", e.Key)
}

// UnavailableKeyError occurs in noisy mode when Get is called with a
// declared key whose value has not been resolved. Pending lists the
// custom parsers which were never registered, if any.
type UnavailableKeyError struct {
	hoseerr.Kind

	Key     string
	Pending []string
}

// Error implements the error interface.
func (e UnavailableKeyError) Error() string {
	if len(e.Pending) == 0 {
		return fmt.Sprintf("value for %s is unavailable", e.Key)
	}
	return fmt.Sprintf(
		"value for %s is unavailable, custom parsers never registered: %s",
		e.Key,
		strings.Join(e.Pending, ", "),
	)
}

// UnmarshalError occurs when available values can not be decoded.
type UnmarshalError struct {
	hoseerr.Kind

	Cause error
}

// Error implements the error interface.
func (e UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal resolved values: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e UnmarshalError) Unwrap() error {
	return e.Cause
}
