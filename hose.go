// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hose

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/z5labs/hose/internal/definition"
	"github.com/z5labs/hose/internal/filereg"
	"github.com/z5labs/hose/internal/logging"
	"github.com/z5labs/hose/internal/resolve"
	"github.com/z5labs/hose/parser"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/z5labs/hose"

type namedParser struct {
	alias  string
	parser parser.Parser
}

type options struct {
	env        definition.Env
	workingDir string
	log        *slog.Logger
	parsers    []namedParser
}

// Option configures New.
type Option func(*options)

// WithEnv sets the environment snapshot the configuration identifier and
// debug mode are read from. By default the process environment at the
// time New is called is used.
func WithEnv(env map[string]string) Option {
	return func(o *options) {
		o.env = definition.Env(env)
	}
}

// WithEnviron is like WithEnv but accepts KEY=VALUE pairs, as returned by
// os.Environ.
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.env = definition.EnvFrom(environ)
	}
}

// WithWorkingDir sets the directory relative file paths are resolved
// against. It defaults to the process working directory.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.workingDir = dir
	}
}

// WithLogger sets the logger. By default nothing is logged unless the
// environment has HOSE_MODE=debug, in which case debug records are
// written to stderr.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithParser registers a custom parser before the initial resolution
// pass, so groups depending on it are never deferred.
func WithParser(alias string, p parser.Parser) Option {
	return func(o *options) {
		o.parsers = append(o.parsers, namedParser{alias: alias, parser: p})
	}
}

// Hose resolves configuration variables declared by a definition file.
// It is not safe for concurrent use.
type Hose struct {
	log        *slog.Logger
	parsers    *parser.Registry
	engine     *resolve.Engine
	identifier string
	mode       definition.ErrorMode
}

// New loads the definition at path, which is declared in the given format
// (JSON or YAML), and runs the initial resolution pass.
//
// Variable groups whose sources need a custom parser which has not been
// registered are left pending. Any other failure is returned and no Hose
// is constructed.
func New(ctx context.Context, path string, format parser.Format, opts ...Option) (*Hose, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.env == nil {
		o.env = definition.EnvFrom(os.Environ())
	}
	if o.workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		o.workingDir = wd
	}
	if o.log == nil {
		o.log = defaultLogger(o.env)
	}

	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "New", trace.WithAttributes(
		attribute.String("hose.definition.path", path),
		attribute.String("hose.definition.format", string(format)),
	))
	defer span.End()

	h, err := build(spanCtx, path, format, o)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return h, nil
}

func build(ctx context.Context, path string, format parser.Format, o options) (*Hose, error) {
	parsers := parser.NewRegistry()
	for _, np := range o.parsers {
		err := parsers.Register(np.alias, np.parser)
		if err != nil {
			return nil, err
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(o.workingDir, path)
	}
	l, err := definition.Load(ctx, parsers, path, format, o.env)
	if err != nil {
		return nil, err
	}

	files, err := filereg.Build(l.Definition.Files, o.workingDir)
	if err != nil {
		return nil, err
	}

	engine := resolve.NewEngine(l.Definition.VariableGroups, l.Identifier, files, parsers, o.log)
	if len(engine.Groups()) == 0 && l.Mode == definition.Noisy {
		return nil, NoVariableGroupsError{Identifier: l.Identifier}
	}

	err = engine.Pass(ctx)
	if err != nil {
		return nil, err
	}

	h := &Hose{
		log:        o.log,
		parsers:    parsers,
		engine:     engine,
		identifier: l.Identifier,
		mode:       l.Mode,
	}
	h.log.InfoContext(
		ctx,
		"loaded definition",
		slog.String("definition", path),
		slog.String("identifier", l.Identifier),
		slog.String("error_mode", l.Mode.String()),
		slog.Any("pending_parsers", engine.Pending()),
	)
	return h, nil
}

func defaultLogger(env definition.Env) *slog.Logger {
	if env[logging.DebugModeKey] != "debug" {
		return logging.Discard()
	}
	return logging.New(os.Stderr, slog.LevelDebug)
}

// SetCustomParser registers p under alias, replacing any parser already
// registered with that alias, and then resumes every pending variable
// group. An error from the resumed resolution is returned, but the parser
// stays registered.
func (h *Hose) SetCustomParser(ctx context.Context, alias string, p parser.Parser) error {
	err := h.parsers.Register(alias, p)
	if err != nil {
		return err
	}

	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "SetCustomParser", trace.WithAttributes(
		attribute.String("hose.parser.alias", alias),
	))
	defer span.End()

	err = h.engine.Pass(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	h.log.DebugContext(
		spanCtx,
		"registered custom parser",
		slog.String("alias", alias),
		slog.Any("pending_parsers", h.engine.Pending()),
	)
	return nil
}

// GetCustomParser returns the custom parser registered under alias.
func (h *Hose) GetCustomParser(alias string) (parser.Parser, error) {
	return h.parsers.Lookup(alias)
}

// Identifier returns the active configuration identifier.
func (h *Hose) Identifier() string {
	return h.identifier
}

// Silent reports whether reads of unavailable values return NoValue
// instead of an error.
func (h *Hose) Silent() bool {
	return h.mode == definition.Silent
}

// Pending returns the aliases of custom parsers which variable groups are
// still waiting on.
func (h *Hose) Pending() []string {
	return h.engine.Pending()
}
