// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/z5labs/hose"
	"github.com/z5labs/hose/internal/logging"
	"github.com/z5labs/hose/parser"
	"github.com/z5labs/hose/parser/hclparser"

	"github.com/spf13/cobra"
)

func newRootCmd(environ []string) *cobra.Command {
	root := &cobra.Command{
		Use:          "hose",
		Short:        "Resolve configuration variables from layered source files",
		SilenceUsage: true,
	}
	root.AddCommand(newGetCmd(environ))
	return root
}

type getFlags struct {
	definition string
	format     string
	workingDir string
	env        []string
	hcl        []string
	debug      bool
}

func newGetCmd(environ []string) *cobra.Command {
	var f getFlags

	cmd := &cobra.Command{
		Use:   "get KEY...",
		Short: "Print the resolved value of each KEY as KEY=<json>",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), environ, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.definition, "definition", "d", "hose.json", "path to the definition file, relative to the working directory")
	flags.StringVarP(&f.format, "format", "f", "", "definition format, JSON or YAML (default: inferred from the file extension)")
	flags.StringVarP(&f.workingDir, "working-dir", "C", "", "directory source file paths are resolved against (default: current directory)")
	flags.StringArrayVarP(&f.env, "env", "e", nil, "KEY=VALUE environment override, may be repeated")
	flags.StringSliceVar(&f.hcl, "hcl", nil, "custom parser aliases to parse as HCL attribute files")
	flags.BoolVar(&f.debug, "debug", false, "write debug logs to stderr")

	return cmd
}

type envFlagError struct {
	Value string
}

func (e envFlagError) Error() string {
	return fmt.Sprintf("environment override must be of the form KEY=VALUE: %q", e.Value)
}

func runGet(ctx context.Context, out, errOut io.Writer, environ []string, f getFlags, keys []string) error {
	format, err := definitionFormat(f)
	if err != nil {
		return err
	}

	for _, kv := range f.env {
		k, _, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return envFlagError{Value: kv}
		}
	}

	opts := []hose.Option{
		hose.WithEnviron(append(slices.Clone(environ), f.env...)),
	}
	if f.workingDir != "" {
		opts = append(opts, hose.WithWorkingDir(f.workingDir))
	}
	if f.debug {
		opts = append(opts, hose.WithLogger(logging.New(errOut, slog.LevelDebug)))
	}
	for _, alias := range f.hcl {
		opts = append(opts, hose.WithParser(alias, hclparser.New()))
	}

	h, err := hose.New(ctx, f.definition, format, opts...)
	if err != nil {
		return err
	}

	for _, key := range keys {
		v, err := h.Get(key)
		if err != nil {
			return err
		}

		b, err := encode(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s=%s\n", key, b)
		if err != nil {
			return err
		}
	}
	return nil
}

func definitionFormat(f getFlags) (parser.Format, error) {
	if f.format != "" {
		return parser.ParseFormat(f.format)
	}
	return parser.FormatOf(f.definition), nil
}

// encode renders NoValue as null.
func encode(v any) ([]byte, error) {
	if v == hose.NoValue {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
