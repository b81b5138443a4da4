// Package irtransform runs typed visitors over every document of a compiler
// context and assembles a new context from the results.
//
// Traversal is depth-first and pre-order: a node's callback runs first and
// the children of the node it returns are traversed afterwards. Kinds without
// a callback are traversed without side effects. A callback returning nil
// removes the node from its parent (or the document from the context).
// Nodes are never mutated; a parent is copied only when one of its children
// was replaced, so untouched subtrees are shared with the input.
package irtransform

import (
	"github.com/hanpama/gqlc/internal/compiler"
	"github.com/hanpama/gqlc/internal/ir"
)

// Visitor holds optional callbacks keyed by node kind. S is the traversal
// state handed to every callback.
type Visitor[S any] struct {
	Root           func(*ir.Root, S) *ir.Root
	Fragment       func(*ir.Fragment, S) *ir.Fragment
	Field          func(*ir.Field, S) *ir.Field
	InlineFragment func(*ir.InlineFragment, S) *ir.InlineFragment
	FragmentSpread func(*ir.FragmentSpread, S) *ir.FragmentSpread
	Condition      func(*ir.Condition, S) *ir.Condition
	Directive      func(*ir.Directive, S) *ir.Directive
	Argument       func(*ir.Argument, S) *ir.Argument
}

// Transform traverses every document of c with v. newState is called exactly
// once, before the first document, and the state it returns is shared by all
// callbacks of this traversal and returned alongside the new context.
func Transform[S any](c *compiler.Context, v Visitor[S], newState func(*compiler.Context) S) (*compiler.Context, S) {
	t := &transformer[S]{v: v, state: newState(c)}
	out := compiler.NewContext(c.Schema())
	for doc := range c.All() {
		if d := t.document(doc); d != nil {
			out = out.Add(d)
		}
	}
	return out, t.state
}

type transformer[S any] struct {
	v     Visitor[S]
	state S
}

func (t *transformer[S]) document(doc ir.Document) ir.Document {
	switch doc := doc.(type) {
	case *ir.Root:
		if r := t.root(doc); r != nil {
			return r
		}
	case *ir.Fragment:
		if f := t.fragment(doc); f != nil {
			return f
		}
	}
	return nil
}

func (t *transformer[S]) root(r *ir.Root) *ir.Root {
	if t.v.Root != nil {
		if r = t.v.Root(r, t.state); r == nil {
			return nil
		}
	}
	dirs, dc := mapList(r.Directives, t.directive)
	sels, sc := mapList(r.Selections, t.selection)
	if !dc && !sc {
		return r
	}
	cp := *r
	cp.Directives, cp.Selections = dirs, sels
	return &cp
}

func (t *transformer[S]) fragment(f *ir.Fragment) *ir.Fragment {
	if t.v.Fragment != nil {
		if f = t.v.Fragment(f, t.state); f == nil {
			return nil
		}
	}
	dirs, dc := mapList(f.Directives, t.directive)
	sels, sc := mapList(f.Selections, t.selection)
	if !dc && !sc {
		return f
	}
	cp := *f
	cp.Directives, cp.Selections = dirs, sels
	return &cp
}

func (t *transformer[S]) selection(s ir.Selection) ir.Selection {
	switch s := s.(type) {
	case *ir.Field:
		if f := t.field(s); f != nil {
			return f
		}
	case *ir.InlineFragment:
		if f := t.inlineFragment(s); f != nil {
			return f
		}
	case *ir.FragmentSpread:
		if f := t.fragmentSpread(s); f != nil {
			return f
		}
	case *ir.Condition:
		if c := t.condition(s); c != nil {
			return c
		}
	}
	return nil
}

func (t *transformer[S]) field(f *ir.Field) *ir.Field {
	if t.v.Field != nil {
		if f = t.v.Field(f, t.state); f == nil {
			return nil
		}
	}
	args, ac := mapList(f.Arguments, t.argument)
	dirs, dc := mapList(f.Directives, t.directive)
	sels, sc := mapList(f.Selections, t.selection)
	if !ac && !dc && !sc {
		return f
	}
	cp := *f
	cp.Arguments, cp.Directives, cp.Selections = args, dirs, sels
	return &cp
}

func (t *transformer[S]) inlineFragment(f *ir.InlineFragment) *ir.InlineFragment {
	if t.v.InlineFragment != nil {
		if f = t.v.InlineFragment(f, t.state); f == nil {
			return nil
		}
	}
	dirs, dc := mapList(f.Directives, t.directive)
	sels, sc := mapList(f.Selections, t.selection)
	if !dc && !sc {
		return f
	}
	cp := *f
	cp.Directives, cp.Selections = dirs, sels
	return &cp
}

func (t *transformer[S]) fragmentSpread(s *ir.FragmentSpread) *ir.FragmentSpread {
	if t.v.FragmentSpread != nil {
		if s = t.v.FragmentSpread(s, t.state); s == nil {
			return nil
		}
	}
	args, ac := mapList(s.Arguments, t.argument)
	dirs, dc := mapList(s.Directives, t.directive)
	if !ac && !dc {
		return s
	}
	cp := *s
	cp.Arguments, cp.Directives = args, dirs
	return &cp
}

func (t *transformer[S]) condition(c *ir.Condition) *ir.Condition {
	if t.v.Condition != nil {
		if c = t.v.Condition(c, t.state); c == nil {
			return nil
		}
	}
	sels, sc := mapList(c.Selections, t.selection)
	if !sc {
		return c
	}
	cp := *c
	cp.Selections = sels
	return &cp
}

func (t *transformer[S]) directive(d *ir.Directive) *ir.Directive {
	if t.v.Directive != nil {
		if d = t.v.Directive(d, t.state); d == nil {
			return nil
		}
	}
	args, ac := mapList(d.Arguments, t.argument)
	if !ac {
		return d
	}
	cp := *d
	cp.Arguments = args
	return &cp
}

func (t *transformer[S]) argument(a *ir.Argument) *ir.Argument {
	if t.v.Argument != nil {
		return t.v.Argument(a, t.state)
	}
	return a
}

// mapList applies fn to every element. The input slice is returned as is
// when fn returned every element unchanged; zero results are dropped.
func mapList[T comparable](in []T, fn func(T) T) ([]T, bool) {
	var zero T
	var out []T
	changed := false
	for i, n := range in {
		m := fn(n)
		if m != n && !changed {
			changed = true
			out = make([]T, 0, len(in))
			out = append(out, in[:i]...)
		}
		if changed && m != zero {
			out = append(out, m)
		}
	}
	if !changed {
		return in, false
	}
	return out, true
}
