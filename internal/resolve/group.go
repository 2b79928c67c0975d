// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resolve

import "slices"

// Group tracks how far resolution of one variable group has progressed.
//
// A Group is either pending at Head, or Resolved. Remaining only ever
// shrinks, Head only ever advances and Resolved never reverts.
type Group struct {
	Remaining []string
	Sources   []string
	Head      int
	Resolved  bool
}

func newGroup(variables, sources []string) *Group {
	remaining := make([]string, 0, len(variables))
	for _, v := range variables {
		if slices.Contains(remaining, v) {
			continue
		}
		remaining = append(remaining, v)
	}
	return &Group{
		Remaining: remaining,
		Sources:   slices.Clone(sources),
	}
}

// exhausted reports whether every source has been consulted.
func (g *Group) exhausted() bool {
	return g.Head >= len(g.Sources)
}

// shrink replaces Remaining with rest, which must be a subset of it.
func (g *Group) shrink(rest []string) {
	if len(rest) == 0 {
		g.Remaining = nil
		g.Resolved = true
		return
	}
	g.Remaining = rest
}

// advance records the outcome of consulting the source at Head.
func (g *Group) advance(unresolved []string) {
	g.shrink(unresolved)
	if g.Resolved {
		return
	}
	g.Head++
}

func (g *Group) clone() Group {
	return Group{
		Remaining: slices.Clone(g.Remaining),
		Sources:   slices.Clone(g.Sources),
		Head:      g.Head,
		Resolved:  g.Resolved,
	}
}
