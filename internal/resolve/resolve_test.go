// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/z5labs/hose/internal/definition"
	"github.com/z5labs/hose/internal/filereg"
	"github.com/z5labs/hose/internal/hoseerr"
	"github.com/z5labs/hose/internal/logging"
	"github.com/z5labs/hose/parser"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func group(variables []string, sources map[string][]string) definition.VariableGroup {
	return definition.VariableGroup{Variables: variables, Source: sources}
}

func mapParser(m map[string]any, calls *int) parser.Parser {
	return parser.ParserFunc(func(ctx context.Context, uri string) (map[string]any, error) {
		if calls != nil {
			*calls++
		}
		return m, nil
	})
}

func TestEngine_Pass(t *testing.T) {
	t.Run("will resolve every variable", func(t *testing.T) {
		t.Run("if they are spread across json and env sources", func(t *testing.T) {
			dir := t.TempDir()
			files := filereg.Registry{
				"fileA": {URI: writeFile(t, dir, "a.json", `{"DB_HOST":"localhost"}`), Parser: filereg.Builtin{Format: parser.JSON}},
				"fileB": {URI: writeFile(t, dir, ".env", "DB_PORT=5432\n"), Parser: filereg.Builtin{Format: parser.ENV}},
			}
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"DB_HOST", "DB_PORT"}, map[string][]string{"dev": {"fileA", "fileB"}}),
				},
				"dev",
				files,
				parser.NewRegistry(),
				nil,
			)

			more, err := e.step(context.Background(), e.groups[0])
			require.NoError(t, err)
			require.True(t, more)
			require.Equal(t, Group{
				Remaining: []string{"DB_PORT"},
				Sources:   []string{"fileA", "fileB"},
				Head:      1,
			}, e.Groups()[0])

			err = e.Pass(context.Background())
			require.NoError(t, err)

			g := e.Groups()[0]
			require.True(t, g.Resolved)
			require.Empty(t, g.Remaining)
			require.Equal(t, 1, g.Head)

			host, ok := e.Lookup("DB_HOST")
			require.True(t, ok)
			require.Equal(t, Entry{Value: "localhost", Available: true}, host)

			port, ok := e.Lookup("DB_PORT")
			require.True(t, ok)
			require.Equal(t, Entry{Value: int64(5432), Available: true}, port)

			require.Equal(t, map[string]any{"DB_HOST": "localhost", "DB_PORT": int64(5432)}, e.Values())
		})
	})

	t.Run("will take the value from the first source", func(t *testing.T) {
		t.Run("if several sources contain the variable", func(t *testing.T) {
			reg := parser.NewRegistry()
			var secondCalls int
			require.NoError(t, reg.Register("first", mapParser(map[string]any{"X": "one"}, nil)))
			require.NoError(t, reg.Register("second", mapParser(map[string]any{"X": "two", "Y": "two"}, &secondCalls)))

			files := filereg.Registry{
				"a": {URI: "/a", Parser: filereg.Custom{Alias: "first"}},
				"b": {URI: "/b", Parser: filereg.Custom{Alias: "second"}},
			}
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"X", "Y"}, map[string][]string{"dev": {"a", "b"}}),
				},
				"dev",
				files,
				reg,
				nil,
			)

			require.NoError(t, e.Pass(context.Background()))

			x, _ := e.Lookup("X")
			require.Equal(t, "one", x.Value)
			y, _ := e.Lookup("Y")
			require.Equal(t, "two", y.Value)
			require.Equal(t, 1, secondCalls)
		})
	})

	t.Run("will be idempotent", func(t *testing.T) {
		t.Run("if every group is already resolved", func(t *testing.T) {
			reg := parser.NewRegistry()
			var calls int
			require.NoError(t, reg.Register("p", mapParser(map[string]any{"X": 1}, &calls)))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"X"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			require.NoError(t, e.Pass(context.Background()))
			before := e.Groups()

			require.NoError(t, e.Pass(context.Background()))
			require.Equal(t, before, e.Groups())
			require.Equal(t, 1, calls)
		})
	})

	t.Run("will defer a group", func(t *testing.T) {
		t.Run("if its custom parser is not registered yet", func(t *testing.T) {
			dir := t.TempDir()
			reg := parser.NewRegistry()
			files := filereg.Registry{
				"fileA": {URI: writeFile(t, dir, "a.json", `{"DB_HOST":"localhost"}`), Parser: filereg.Builtin{Format: parser.JSON}},
				"fileB": {URI: "/etc/b.ini", Parser: filereg.Custom{Alias: "P"}},
			}
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"DB_HOST", "DB_PORT"}, map[string][]string{"dev": {"fileA", "fileB"}}),
				},
				"dev",
				files,
				reg,
				nil,
			)

			require.NoError(t, e.Pass(context.Background()))
			require.Equal(t, Group{
				Remaining: []string{"DB_PORT"},
				Sources:   []string{"fileA", "fileB"},
				Head:      1,
			}, e.Groups()[0])
			require.Equal(t, []string{"P"}, e.Pending())

			port, _ := e.Lookup("DB_PORT")
			require.False(t, port.Available)

			require.NoError(t, e.Pass(context.Background()))
			require.Equal(t, 1, e.Groups()[0].Head)

			var uri string
			require.NoError(t, reg.Register("P", parser.ParserFunc(func(ctx context.Context, u string) (map[string]any, error) {
				uri = u
				return map[string]any{"DB_PORT": "6543"}, nil
			})))

			require.NoError(t, e.Pass(context.Background()))
			require.True(t, e.Groups()[0].Resolved)
			require.Empty(t, e.Pending())
			require.Equal(t, "/etc/b.ini", uri)

			port, _ = e.Lookup("DB_PORT")
			require.Equal(t, Entry{Value: "6543", Available: true}, port)
		})
	})

	t.Run("will not overwrite a variable", func(t *testing.T) {
		t.Run("if an earlier group already resolved it", func(t *testing.T) {
			reg := parser.NewRegistry()
			var secondCalls int
			require.NoError(t, reg.Register("first", mapParser(map[string]any{"SHARED": "first"}, nil)))
			require.NoError(t, reg.Register("second", mapParser(map[string]any{"SHARED": "second"}, &secondCalls)))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"SHARED"}, map[string][]string{"dev": {"a"}}),
					group([]string{"SHARED", "SHARED"}, map[string][]string{"dev": {"b"}}),
				},
				"dev",
				filereg.Registry{
					"a": {URI: "/a", Parser: filereg.Custom{Alias: "first"}},
					"b": {URI: "/b", Parser: filereg.Custom{Alias: "second"}},
				},
				reg,
				nil,
			)

			require.Equal(t, []string{"SHARED"}, e.Groups()[1].Remaining)
			require.NoError(t, e.Pass(context.Background()))

			shared, _ := e.Lookup("SHARED")
			require.Equal(t, "first", shared.Value)
			require.True(t, e.Groups()[1].Resolved)
			require.Zero(t, secondCalls)
		})
	})

	t.Run("will skip a group", func(t *testing.T) {
		t.Run("if it declares no sources for the identifier", func(t *testing.T) {
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"ONLY_PROD"}, map[string][]string{"prod": {"a"}}),
				},
				"dev",
				filereg.Registry{},
				parser.NewRegistry(),
				nil,
			)

			require.Empty(t, e.Groups())
			require.NoError(t, e.Pass(context.Background()))

			entry, declared := e.Lookup("ONLY_PROD")
			require.True(t, declared)
			require.False(t, entry.Available)

			_, declared = e.Lookup("UNKNOWN")
			require.False(t, declared)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the sources are exhausted", func(t *testing.T) {
			reg := parser.NewRegistry()
			require.NoError(t, reg.Register("p", mapParser(map[string]any{"A": 1}, nil)))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A", "B", "C"}, map[string][]string{"dev": {"a", "a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			err := e.Pass(context.Background())

			var xerr ExhaustedError
			require.ErrorAs(t, err, &xerr)
			require.Equal(t, []string{"B", "C"}, xerr.Variables)
			require.ErrorIs(t, err, hoseerr.ErrHose)
			require.Equal(t, 2, e.Groups()[0].Head)
		})

		t.Run("if the group has an empty source list", func(t *testing.T) {
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {}}),
				},
				"dev",
				filereg.Registry{},
				parser.NewRegistry(),
				nil,
			)

			var xerr ExhaustedError
			require.ErrorAs(t, e.Pass(context.Background()), &xerr)
			require.Equal(t, []string{"A"}, xerr.Variables)
		})

		t.Run("if a source alias is not declared", func(t *testing.T) {
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"ghost"}}),
				},
				"dev",
				filereg.Registry{},
				parser.NewRegistry(),
				nil,
			)

			var derr DanglingFileError
			require.ErrorAs(t, e.Pass(context.Background()), &derr)
			require.Equal(t, "ghost", derr.Alias)
		})

		t.Run("if a custom parser returns no mapping", func(t *testing.T) {
			reg := parser.NewRegistry()
			require.NoError(t, reg.Register("p", mapParser(nil, nil)))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			var merr MalformedSourceError
			require.ErrorAs(t, e.Pass(context.Background()), &merr)
			require.Equal(t, "a", merr.Alias)
		})

		t.Run("if a custom parser fails", func(t *testing.T) {
			parseErr := errors.New("bad ini")
			reg := parser.NewRegistry()
			require.NoError(t, reg.Register("p", parser.ParserFunc(func(ctx context.Context, uri string) (map[string]any, error) {
				return nil, parseErr
			})))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			err := e.Pass(context.Background())

			var perr parser.ParseError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, "/a", perr.URI)
			require.ErrorIs(t, err, parseErr)
			require.Equal(t, 0, e.Groups()[0].Head)
		})

		t.Run("if a custom parser panics", func(t *testing.T) {
			reg := parser.NewRegistry()
			require.NoError(t, reg.Register("p", parser.ParserFunc(func(ctx context.Context, uri string) (map[string]any, error) {
				panic("boom")
			})))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			err := e.Pass(context.Background())

			var perr parser.ParseError
			require.ErrorAs(t, err, &perr)

			var panicErr ParserPanicError
			require.ErrorAs(t, err, &panicErr)
			require.Equal(t, "a", panicErr.Alias)
			require.Equal(t, "boom", panicErr.Value)
			require.ErrorIs(t, err, hoseerr.ErrHose)
		})

		t.Run("if a custom parser panics with an error", func(t *testing.T) {
			cause := errors.New("nil section")
			reg := parser.NewRegistry()
			require.NoError(t, reg.Register("p", parser.ParserFunc(func(ctx context.Context, uri string) (map[string]any, error) {
				panic(cause)
			})))

			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
				reg,
				nil,
			)

			err := e.Pass(context.Background())

			var panicErr ParserPanicError
			require.ErrorAs(t, err, &panicErr)
			require.ErrorIs(t, err, cause)
		})

		t.Run("if a built-in source is missing", func(t *testing.T) {
			e := NewEngine(
				[]definition.VariableGroup{
					group([]string{"A"}, map[string][]string{"dev": {"a"}}),
				},
				"dev",
				filereg.Registry{"a": {URI: filepath.Join(t.TempDir(), "a.json"), Parser: filereg.Builtin{Format: parser.JSON}}},
				parser.NewRegistry(),
				nil,
			)

			var perr parser.ParseError
			require.ErrorAs(t, e.Pass(context.Background()), &perr)
		})
	})
}

func TestEngine_Pass_Logging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logging.NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	e := NewEngine(
		[]definition.VariableGroup{
			group([]string{"A"}, map[string][]string{"dev": {"a"}}),
		},
		"dev",
		filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
		parser.NewRegistry(),
		log,
	)
	require.NoError(t, e.Pass(context.Background()))

	var r struct {
		Message    string `json:"msg"`
		Resolution struct {
			Identifier string `json:"identifier"`
			Group      int    `json:"group"`
			FileAlias  string `json:"file_alias"`
			Head       int    `json:"head"`
		} `json:"resolution"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
	require.Equal(t, "deferring variable group until its custom parser is registered", r.Message)
	require.Equal(t, "dev", r.Resolution.Identifier)
	require.Equal(t, 0, r.Resolution.Group)
	require.Equal(t, "a", r.Resolution.FileAlias)
	require.Equal(t, 0, r.Resolution.Head)
}

func TestEngine_Pass_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
	})

	reg := parser.NewRegistry()
	require.NoError(t, reg.Register("p", mapParser(map[string]any{"A": 1}, nil)))

	e := NewEngine(
		[]definition.VariableGroup{
			group([]string{"A"}, map[string][]string{"dev": {"a"}}),
		},
		"dev",
		filereg.Registry{"a": {URI: "/a", Parser: filereg.Custom{Alias: "p"}}},
		reg,
		nil,
	)
	require.NoError(t, e.Pass(context.Background()))

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	require.ElementsMatch(t, []string{"Engine.parse", "Engine.Pass"}, names)
}
