// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resolve implements ordered fallback resolution of variable
// groups across their declared source files.
//
// Each pass walks every unresolved group from its current source onwards.
// The first source containing a variable wins. A group whose next source
// needs a custom parser that has not been registered yet is left pending,
// and the next pass resumes it at the same source.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/z5labs/hose/internal/definition"
	"github.com/z5labs/hose/internal/filereg"
	"github.com/z5labs/hose/internal/hoseerr"
	"github.com/z5labs/hose/internal/logging"
	"github.com/z5labs/hose/parser"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/z5labs/hose/internal/resolve"

// Parsers provides the parsers referenced by file registry entries.
type Parsers interface {
	Builtin(parser.Format) (parser.Parser, error)
	Custom(alias string) (parser.Parser, bool)
}

// Entry is the resolved state of a single variable. Once Available it is
// never assigned again.
type Entry struct {
	Value     any
	Available bool
}

// ExhaustedError occurs when every source of a group has been consulted
// and some of its variables were never found.
type ExhaustedError struct {
	hoseerr.Kind

	Variables []string
	Sources   []string
}

// Error implements the error interface.
func (e ExhaustedError) Error() string {
	return fmt.Sprintf(
		"variables [%s] could not be found in any declared source [%s]",
		strings.Join(e.Variables, ", "),
		strings.Join(e.Sources, ", "),
	)
}

// DanglingFileError occurs when a group references a file alias which the
// definition does not declare.
type DanglingFileError struct {
	hoseerr.Kind

	Alias string
}

// Error implements the error interface.
func (e DanglingFileError) Error() string {
	return fmt.Sprintf("variable group references undeclared file: %s", e.Alias)
}

// MalformedSourceError occurs when a parser succeeds without producing a
// key value mapping.
type MalformedSourceError struct {
	hoseerr.Kind

	Alias string
	URI   string
}

// Error implements the error interface.
func (e MalformedSourceError) Error() string {
	return fmt.Sprintf("parser for file %s did not produce a key value mapping: %s", e.Alias, e.URI)
}

// ParserPanicError occurs when a parser panics while parsing a declared
// file. Value is what was recovered.
type ParserPanicError struct {
	hoseerr.Kind

	Alias string
	Value any
}

// Error implements the error interface.
func (e ParserPanicError) Error() string {
	return fmt.Sprintf("parser for file %s panicked: %v", e.Alias, e.Value)
}

// Unwrap returns the recovered value if it was itself an error.
func (e ParserPanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Engine owns the resolution state of every variable group applicable to
// one configuration identifier.
type Engine struct {
	identifier string
	files      filereg.Registry
	parsers    Parsers
	log        *slog.Logger

	groups  []*Group
	entries map[string]*Entry
}

// NewEngine prepares a Group for each of groups which declares sources for
// identifier, and an Entry for every declared variable.
func NewEngine(groups []definition.VariableGroup, identifier string, files filereg.Registry, parsers Parsers, log *slog.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	e := &Engine{
		identifier: identifier,
		files:      files,
		parsers:    parsers,
		log:        log,
		entries:    make(map[string]*Entry),
	}
	for _, vg := range groups {
		for _, v := range vg.Variables {
			if _, ok := e.entries[v]; !ok {
				e.entries[v] = &Entry{}
			}
		}

		sources, ok := vg.Source[identifier]
		if !ok {
			continue
		}
		e.groups = append(e.groups, newGroup(vg.Variables, sources))
	}
	return e
}

// Groups returns a copy of the current state of every applicable group.
func (e *Engine) Groups() []Group {
	gs := make([]Group, len(e.groups))
	for i, g := range e.groups {
		gs[i] = g.clone()
	}
	return gs
}

// Lookup returns the entry for name, and whether name was declared at all.
func (e *Engine) Lookup(name string) (Entry, bool) {
	entry, ok := e.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Values returns every available value keyed by variable name.
func (e *Engine) Values() map[string]any {
	m := make(map[string]any, len(e.entries))
	for name, entry := range e.entries {
		if entry.Available {
			m[name] = entry.Value
		}
	}
	return m
}

// Pending returns the sorted aliases of custom parsers which pending
// groups are waiting on.
func (e *Engine) Pending() []string {
	var aliases []string
	for _, g := range e.groups {
		if g.Resolved || g.exhausted() {
			continue
		}
		f, ok := e.files[g.Sources[g.Head]]
		if !ok {
			continue
		}
		c, ok := f.Parser.(filereg.Custom)
		if !ok {
			continue
		}
		if _, registered := e.parsers.Custom(c.Alias); registered {
			continue
		}
		if !slices.Contains(aliases, c.Alias) {
			aliases = append(aliases, c.Alias)
		}
	}
	slices.Sort(aliases)
	return aliases
}

// Pass attempts every unresolved group, in declared order. Groups which
// are already resolved are skipped and pending groups resume at their
// current source. The first fatal error stops the pass.
func (e *Engine) Pass(ctx context.Context) error {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "Engine.Pass", trace.WithAttributes(
		attribute.String("hose.identifier", e.identifier),
	))
	defer span.End()

	spanCtx = logging.With(spanCtx, slog.String("identifier", e.identifier))
	for i, g := range e.groups {
		if g.Resolved {
			continue
		}

		err := e.resolve(logging.With(spanCtx, slog.Int("group", i)), g)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

func (e *Engine) resolve(ctx context.Context, g *Group) error {
	for {
		more, err := e.step(ctx, g)
		if err != nil || !more {
			return err
		}
	}
}

// step consults the source at the group's head and reports whether
// another step should be taken in this pass.
func (e *Engine) step(ctx context.Context, g *Group) (bool, error) {
	g.shrink(e.unavailable(g.Remaining))
	if g.Resolved {
		return false, nil
	}
	if g.exhausted() {
		return false, ExhaustedError{
			Variables: slices.Clone(g.Remaining),
			Sources:   slices.Clone(g.Sources),
		}
	}

	alias := g.Sources[g.Head]
	f, ok := e.files[alias]
	if !ok {
		return false, DanglingFileError{Alias: alias}
	}
	ctx = logging.With(ctx, slog.String("file_alias", alias), slog.Int("head", g.Head))

	p, ok, err := e.parserFor(f.Parser)
	if err != nil {
		return false, err
	}
	if !ok {
		e.log.DebugContext(
			ctx,
			"deferring variable group until its custom parser is registered",
			slog.String("parser", f.Parser.String()),
			slog.Any("remaining", g.Remaining),
		)
		return false, nil
	}

	content, err := e.parse(ctx, p, alias, f)
	if err != nil {
		return false, err
	}

	unresolved := e.assign(g.Remaining, content)
	e.log.DebugContext(
		ctx,
		"consulted source",
		slog.Int("resolved", len(g.Remaining)-len(unresolved)),
		slog.Any("unresolved", unresolved),
	)
	g.advance(unresolved)
	return !g.Resolved, nil
}

func (e *Engine) parserFor(ref filereg.ParserRef) (parser.Parser, bool, error) {
	switch r := ref.(type) {
	case filereg.Builtin:
		p, err := e.parsers.Builtin(r.Format)
		if err != nil {
			return nil, false, err
		}
		return p, true, nil
	case filereg.Custom:
		p, ok := e.parsers.Custom(r.Alias)
		return p, ok, nil
	default:
		panic(fmt.Sprintf("resolve: unexpected parser reference %T", ref))
	}
}

func (e *Engine) parse(ctx context.Context, p parser.Parser, alias string, f filereg.Entry) (map[string]any, error) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "Engine.parse", trace.WithAttributes(
		attribute.String("hose.file.alias", alias),
		attribute.String("hose.file.uri", f.URI),
		attribute.String("hose.file.parser", f.Parser.String()),
	))
	defer span.End()

	content, err := invoke(spanCtx, p, alias, f.URI)
	if err != nil {
		var perr parser.ParseError
		if !errors.As(err, &perr) {
			err = parser.ParseError{URI: f.URI, Cause: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if content == nil {
		return nil, MalformedSourceError{Alias: alias, URI: f.URI}
	}
	return content, nil
}

func invoke(ctx context.Context, p parser.Parser, alias, uri string) (content map[string]any, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		content = nil
		err = ParserPanicError{Alias: alias, Value: r}
	}()
	return p.Parse(ctx, uri)
}

// assign makes every variable present in content available and returns
// the ones which are not.
func (e *Engine) assign(remaining []string, content map[string]any) []string {
	unresolved := make([]string, 0, len(remaining))
	for _, name := range remaining {
		v, ok := content[name]
		if !ok {
			unresolved = append(unresolved, name)
			continue
		}

		entry := e.entries[name]
		entry.Value = v
		entry.Available = true
	}
	return unresolved
}

// unavailable filters out variables which another group already resolved.
func (e *Engine) unavailable(names []string) []string {
	rest := make([]string, 0, len(names))
	for _, name := range names {
		if e.entries[name].Available {
			continue
		}
		rest = append(rest, name)
	}
	return rest
}
