// Package compiler holds the document context passed between IR passes and
// the pipeline that runs those passes.
package compiler

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/hanpama/gqlc/internal/ir"
	"github.com/hanpama/gqlc/internal/schema"
)

// Context is an immutable, ordered collection of named documents. Every
// mutating method returns a new Context; documents are shared, not copied.
type Context struct {
	schema *schema.Schema
	docs   []ir.Document
	index  map[string]int
}

// NewContext returns an empty context for documents built against sch.
func NewContext(sch *schema.Schema) *Context {
	return &Context{schema: sch, index: map[string]int{}}
}

func (c *Context) Schema() *schema.Schema { return c.schema }

func (c *Context) Len() int { return len(c.docs) }

// Documents returns the documents in insertion order. The slice is a copy.
func (c *Context) Documents() []ir.Document { return slices.Clone(c.docs) }

// All iterates the documents in insertion order.
func (c *Context) All() iter.Seq[ir.Document] {
	return func(yield func(ir.Document) bool) {
		for _, d := range c.docs {
			if !yield(d) {
				return
			}
		}
	}
}

// Add returns a new context with doc appended. Adding a name that is already
// present is a programming error and panics; the IR builder rejects
// duplicate names before a context is ever assembled.
func (c *Context) Add(doc ir.Document) *Context {
	name := doc.DocumentName()
	if _, ok := c.index[name]; ok {
		panic(fmt.Sprintf("compiler: duplicate document %q", name))
	}
	index := maps.Clone(c.index)
	index[name] = len(c.docs)
	return &Context{
		schema: c.schema,
		docs:   append(slices.Clip(c.docs), doc),
		index:  index,
	}
}

// AddAll appends docs in order.
func (c *Context) AddAll(docs ...ir.Document) *Context {
	out := c
	for _, d := range docs {
		out = out.Add(d)
	}
	return out
}

// Get looks up any document by name.
func (c *Context) Get(name string) (ir.Document, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, &NotFoundError{Kind: "document", Name: name}
	}
	return c.docs[i], nil
}

// Root looks up a root operation by name.
func (c *Context) Root(name string) (*ir.Root, error) {
	d, err := c.Get(name)
	if err != nil {
		return nil, &NotFoundError{Kind: "root", Name: name}
	}
	r, ok := d.(*ir.Root)
	if !ok {
		return nil, &NotFoundError{Kind: "root", Name: name}
	}
	return r, nil
}

// Fragment looks up a fragment by name.
func (c *Context) Fragment(name string) (*ir.Fragment, error) {
	d, err := c.Get(name)
	if err != nil {
		return nil, &NotFoundError{Kind: "fragment", Name: name}
	}
	f, ok := d.(*ir.Fragment)
	if !ok {
		return nil, &NotFoundError{Kind: "fragment", Name: name}
	}
	return f, nil
}
