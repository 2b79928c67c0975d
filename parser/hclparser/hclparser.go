// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hclparser provides a custom hose parser for HCL files made of
// top level attributes, e.g.
//
//	db_host = "localhost"
//	db_port = 5432
//
// It is not built in. Register it under an alias of your choosing and
// reference that alias from a file declaration's parserAlias.
package hclparser

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/z5labs/hose/parser"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// New returns a parser.Parser backed by Parse.
func New() parser.Parser {
	return parser.ParserFunc(Parse)
}

// Parse reads the HCL file at uri and evaluates each top level attribute
// without any variables or functions in scope. Blocks are not supported.
func Parse(ctx context.Context, uri string) (map[string]any, error) {
	p := hclparse.NewParser()
	f, diags := p.ParseHCLFile(uri)
	if diags.HasErrors() {
		return nil, parser.ParseError{URI: uri, Cause: diags}
	}

	attrs, diags := f.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, parser.ParseError{URI: uri, Cause: diags}
	}

	m := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, parser.ParseError{URI: uri, Cause: diags}
		}

		native, err := toNative(v)
		if err != nil {
			return nil, parser.ParseError{
				URI:   uri,
				Cause: fmt.Errorf("attribute %s: %w", name, err),
			}
		}
		m[name] = native
	}
	return m, nil
}

var errUnsupportedType = errors.New("unsupported value type")

func toNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		return number(v.AsBigFloat()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		xs := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, e := it.Element()
			x, err := toNative(e)
			if err != nil {
				return nil, err
			}
			xs = append(xs, x)
		}
		return xs, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			k, e := it.Element()
			x, err := toNative(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			m[k.AsString()] = x
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, ty.FriendlyName())
	}
}

func number(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return i
		}
	}
	f, _ := bf.Float64()
	return f
}
