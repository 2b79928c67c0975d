// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package filereg normalizes the file declarations of a definition into
// absolute URIs tagged with the parser that reads them.
package filereg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/z5labs/hose/internal/definition"
	"github.com/z5labs/hose/internal/hoseerr"
	"github.com/z5labs/hose/parser"
)

// ParserRef is either a Builtin or a Custom reference.
type ParserRef interface {
	parserRef()
	String() string
}

// Builtin refers to one of the built-in parsers.
type Builtin struct {
	Format parser.Format
}

func (Builtin) parserRef() {}

// String implements the fmt.Stringer interface.
func (b Builtin) String() string {
	return "builtin:" + string(b.Format)
}

// Custom refers to a user registered parser. The alias may not be
// registered yet.
type Custom struct {
	Alias string
}

func (Custom) parserRef() {}

// String implements the fmt.Stringer interface.
func (c Custom) String() string {
	return "custom:" + c.Alias
}

// Entry is the normalized form of a single file declaration.
type Entry struct {
	URI    string
	Parser ParserRef
}

// Registry maps file aliases to their entries. It must not be modified
// once built.
type Registry map[string]Entry

// EmptyPathError occurs when a file declaration has no path.
type EmptyPathError struct {
	hoseerr.Kind

	Alias string
}

// Error implements the error interface.
func (e EmptyPathError) Error() string {
	return fmt.Sprintf("file %s must declare a path", e.Alias)
}

// UnknownBuiltinError occurs when useDefault names a parser which is not
// built in.
type UnknownBuiltinError struct {
	hoseerr.Kind

	Alias string
	Name  string
}

// Error implements the error interface.
func (e UnknownBuiltinError) Error() string {
	return fmt.Sprintf("file %s uses default parser %q which is not available", e.Alias, e.Name)
}

// Build normalizes every declaration in files. Relative paths are joined
// onto workingDir.
func Build(files map[string]definition.FileDeclaration, workingDir string) (Registry, error) {
	reg := make(Registry, len(files))
	for alias, decl := range files {
		e, err := entry(alias, decl, workingDir)
		if err != nil {
			return nil, err
		}
		reg[alias] = e
	}
	return reg, nil
}

func entry(alias string, decl definition.FileDeclaration, workingDir string) (Entry, error) {
	path := strings.TrimSpace(decl.FileURI)
	if path == "" {
		return Entry{}, EmptyPathError{Alias: alias}
	}

	if decl.Short {
		e := Entry{
			URI:    resolve(workingDir, path),
			Parser: Builtin{Format: parser.FormatOf(path)},
		}
		return e, nil
	}

	uri := path
	if !decl.IsAbsolute {
		uri = resolve(workingDir, path)
	}

	custom := strings.TrimSpace(decl.ParserAlias)
	switch {
	case strings.TrimSpace(decl.UseDefault) != "":
		f, err := parser.ParseFormat(decl.UseDefault)
		if err != nil {
			return Entry{}, UnknownBuiltinError{Alias: alias, Name: decl.UseDefault}
		}
		return Entry{URI: uri, Parser: Builtin{Format: f}}, nil
	case custom != "":
		return Entry{URI: uri, Parser: Custom{Alias: custom}}, nil
	default:
		return Entry{URI: uri, Parser: Builtin{Format: parser.FormatOf(path)}}, nil
	}
}

// resolve prefixes path with the working directory even if path is
// itself rooted, so "/config/a.json" lives under workingDir.
func resolve(workingDir, path string) string {
	return filepath.Join(workingDir, path)
}
