package compiler_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hanpama/gqlc/internal/compiler"
	"github.com/hanpama/gqlc/internal/ctxlog"
	"github.com/hanpama/gqlc/internal/eventbus"
	"github.com/hanpama/gqlc/internal/events"
	"github.com/hanpama/gqlc/internal/ir"
	"github.com/hanpama/gqlc/internal/schema"
	"github.com/stretchr/testify/require"
)

const testSDL = `
type Query { user(id: ID!): User }
type User { id: ID! name: String friend: User }
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	return sch
}

func mustDocs(t *testing.T, sch *schema.Schema, source string) []ir.Document {
	t.Helper()
	docs, err := ir.Build(context.Background(), sch, ir.NewInMemoryDiscovery([]ir.InMemorySource{
		{Name: "doc.graphql", Content: source},
	}))
	require.NoError(t, err)
	return docs
}

func TestContextIsCopyOnWrite(t *testing.T) {
	sch := mustSchema(t)
	empty := compiler.NewContext(sch)
	a := &ir.Fragment{Name: "A", TypeCondition: "User"}
	b := &ir.Root{Name: "B"}

	one := empty.Add(a)
	two := one.Add(b)
	alt := one.Add(&ir.Fragment{Name: "C"})

	require.Equal(t, 0, empty.Len())
	require.Equal(t, 1, one.Len())
	require.Equal(t, []ir.Document{a, b}, two.Documents())
	require.Equal(t, "C", alt.Documents()[1].DocumentName())
	require.Same(t, sch, two.Schema())

	// iteration is restartable
	for range 2 {
		var names []string
		for d := range two.All() {
			names = append(names, d.DocumentName())
		}
		require.Equal(t, []string{"A", "B"}, names)
	}

	// the returned slice is a copy
	docs := two.Documents()
	docs[0] = nil
	require.Same(t, a, two.Documents()[0])
}

func TestContextLookups(t *testing.T) {
	c := compiler.NewContext(mustSchema(t)).AddAll(
		&ir.Root{Name: "Q"},
		&ir.Fragment{Name: "F"},
	)

	r, err := c.Root("Q")
	require.NoError(t, err)
	require.Equal(t, "Q", r.Name)
	f, err := c.Fragment("F")
	require.NoError(t, err)
	require.Equal(t, "F", f.Name)

	_, err = c.Root("F")
	require.ErrorIs(t, err, compiler.ErrNotFound)
	_, err = c.Fragment("Q")
	require.ErrorIs(t, err, compiler.ErrNotFound)
	_, err = c.Get("missing")
	var nf *compiler.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, `document "missing" not found in context`, err.Error())

	require.Panics(t, func() { c.Add(&ir.Root{Name: "F"}) })
}

func TestFilterForNode(t *testing.T) {
	sch := mustSchema(t)
	docs := mustDocs(t, sch, `
query Q { user(id: "1") { ...A ...B } }
query Other { user(id: "2") { ...Unrelated } }
fragment A on User { friend { ...C } }
fragment B on User { ...C name }
fragment C on User { id friend { ...A } }
fragment Unrelated on User { id }
`)
	c := compiler.NewContext(sch).AddAll(docs...)
	root, err := c.Root("Q")
	require.NoError(t, err)

	scoped, err := compiler.FilterForNode(root, c)
	require.NoError(t, err)
	var names []string
	for d := range scoped.All() {
		names = append(names, d.DocumentName())
	}
	require.Equal(t, []string{"Q", "A", "B", "C"}, names)
	require.Same(t, sch, scoped.Schema())

	frag, _ := c.Fragment("Unrelated")
	scoped, err = compiler.FilterForNode(frag, c)
	require.NoError(t, err)
	require.Equal(t, 1, scoped.Len())
}

func TestFilterForNodeMissingFragment(t *testing.T) {
	root := &ir.Root{Name: "Q", Selections: []ir.Selection{&ir.FragmentSpread{Name: "Missing"}}}
	c := compiler.NewContext(mustSchema(t)).Add(root)
	_, err := compiler.FilterForNode(root, c)
	require.ErrorIs(t, err, compiler.ErrNotFound)
}

func renameRoots(suffix string) compiler.Pass {
	return compiler.Pass{
		Name: "rename-" + suffix,
		Transform: func(c *compiler.Context) *compiler.Context {
			out := compiler.NewContext(c.Schema())
			for d := range c.All() {
				if r, ok := d.(*ir.Root); ok {
					cp := *r
					cp.Name += suffix
					d = &cp
				}
				out = out.Add(d)
			}
			return out
		},
	}
}

func TestRunThreadsPassesAndPublishesEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })
	var started, finished []string
	eventbus.Subscribe(func(_ context.Context, e events.PassStart) { started = append(started, e.Pass) })
	eventbus.Subscribe(func(_ context.Context, e events.PassFinish) {
		require.NoError(t, e.Err)
		finished = append(finished, e.Pass)
	})

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	in := compiler.NewContext(mustSchema(t)).Add(&ir.Root{Name: "Q"})
	out, err := compiler.Run(ctx, in, renameRoots("1"), renameRoots("2"))
	require.NoError(t, err)

	_, err = out.Root("Q12")
	require.NoError(t, err)
	_, err = in.Root("Q")
	require.NoError(t, err)
	require.Equal(t, []string{"rename-1", "rename-2"}, started)
	require.Equal(t, started, finished)
	require.Contains(t, logs.String(), "pass=rename-2")
}

func TestRunRecoversPanics(t *testing.T) {
	in := compiler.NewContext(mustSchema(t))
	boom := compiler.Pass{Name: "boom", Transform: func(*compiler.Context) *compiler.Context { panic("kaboom") }}
	never := compiler.Pass{Name: "never", Transform: func(*compiler.Context) *compiler.Context {
		t.Fatal("pass after a failure must not run")
		return nil
	}}
	_, err := compiler.Run(context.Background(), in, boom, never)
	var passErr *compiler.PassError
	require.ErrorAs(t, err, &passErr)
	require.Equal(t, "boom", passErr.Pass)
	require.EqualError(t, err, `pass "boom": kaboom`)

	nilPass := compiler.Pass{Name: "nil", Transform: func(*compiler.Context) *compiler.Context { return nil }}
	_, err = compiler.Run(context.Background(), in, nilPass)
	require.ErrorAs(t, err, &passErr)
}

func TestCompile(t *testing.T) {
	sch := mustSchema(t)
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })
	var finish events.CompileFinish
	eventbus.Subscribe(func(_ context.Context, e events.CompileFinish) { finish = e })

	dropAll := compiler.Pass{Name: "drop-variables", Transform: func(c *compiler.Context) *compiler.Context {
		out := compiler.NewContext(c.Schema())
		for d := range c.All() {
			if r, ok := d.(*ir.Root); ok {
				cp := *r
				cp.ArgumentDefinitions = nil
				d = &cp
			}
			out = out.Add(d)
		}
		return out
	}}
	disc := ir.NewInMemoryDiscovery([]ir.InMemorySource{
		{Name: "q.graphql", Content: `query Q($a: ID!, $b: Int) { user(id: "1") { ...F } }`},
		{Name: "f.graphql", Content: `fragment F on User { id }`},
	})
	res, err := compiler.Compile(context.Background(), sch, disc, dropAll)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"Q": {"a", "b"}}, res.StrippedVariables())
	require.Equal(t, 2, finish.Documents)
	require.NoError(t, finish.Err)

	printed := res.Print()
	require.Contains(t, printed, "query Q")
	require.NotContains(t, printed, "$a")
	require.Contains(t, printed, "fragment F on User")

	_, err = compiler.Compile(context.Background(), sch, ir.NewInMemoryDiscovery([]ir.InMemorySource{
		{Name: "bad.graphql", Content: `query Q { nope }`},
	}))
	var verr ir.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Error(t, finish.Err)
}
