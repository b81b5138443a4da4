package compiler

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/gqlc/internal/ctxlog"
	eventbus "github.com/hanpama/gqlc/internal/eventbus"
	events "github.com/hanpama/gqlc/internal/events"
	"github.com/hanpama/gqlc/internal/ir"
	"github.com/hanpama/gqlc/internal/schema"
)

// Pass is one IR rewrite. Transform must not mutate its input.
type Pass struct {
	Name      string
	Transform func(*Context) *Context
}

// Run applies passes in order, threading each output into the next pass.
// A pass that panics stops the pipeline with a *PassError.
func Run(ctx context.Context, c *Context, passes ...Pass) (*Context, error) {
	logger := ctxlog.FromContext(ctx)
	for _, p := range passes {
		start := time.Now()
		eventbus.Publish(ctx, events.PassStart{Pass: p.Name, Documents: c.Len()})
		out, err := runPass(p, c)
		eventbus.Publish(ctx, events.PassFinish{Pass: p.Name, Documents: c.Len(), Err: err, Duration: time.Since(start)})
		if err != nil {
			logger.Error("pass failed", "pass", p.Name, "error", err)
			return nil, err
		}
		logger.Debug("pass finished", "pass", p.Name, "documents", out.Len(), "duration", time.Since(start))
		c = out
	}
	return c, nil
}

func runPass(p Pass, c *Context) (out *Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &PassError{Pass: p.Name, Err: e}
				return
			}
			err = &PassError{Pass: p.Name, Err: fmt.Errorf("%v", r)}
		}
	}()
	out = p.Transform(c)
	if out == nil {
		return nil, &PassError{Pass: p.Name, Err: fmt.Errorf("returned no context")}
	}
	return out, nil
}

// Result holds the context before and after the passes ran.
type Result struct {
	Input  *Context
	Output *Context
}

// Print renders the output documents.
func (r *Result) Print() string { return ir.PrintAll(r.Output.Documents()) }

// StrippedVariables lists, per root, the variable definitions present in the
// input but missing from the output, in declaration order.
func (r *Result) StrippedVariables() map[string][]string {
	out := map[string][]string{}
	for doc := range r.Input.All() {
		before, ok := doc.(*ir.Root)
		if !ok {
			continue
		}
		after, err := r.Output.Root(before.Name)
		if err != nil {
			continue
		}
		kept := map[string]bool{}
		for _, d := range after.ArgumentDefinitions {
			kept[d.Name] = true
		}
		for _, d := range before.ArgumentDefinitions {
			if !kept[d.Name] {
				out[before.Name] = append(out[before.Name], d.Name)
			}
		}
	}
	return out
}

// Compile builds every document listed by disc against sch and runs passes
// over the resulting context.
func Compile(ctx context.Context, sch *schema.Schema, disc ir.Discovery, passes ...Pass) (res *Result, err error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	srcs, err := disc.ListMetadata(ctx)
	if err != nil {
		return nil, err
	}
	eventbus.Publish(ctx, events.CompileStart{Sources: len(srcs)})
	defer func() {
		n := 0
		if res != nil {
			n = res.Output.Len()
		}
		eventbus.Publish(ctx, events.CompileFinish{Documents: n, Err: err, Duration: time.Since(start)})
	}()

	docs, err := ir.Build(ctx, sch, disc)
	if err != nil {
		return nil, fmt.Errorf("build documents: %w", err)
	}
	in := NewContext(sch).AddAll(docs...)
	out, err := Run(ctx, in, passes...)
	if err != nil {
		return nil, err
	}
	res = &Result{Input: in, Output: out}

	stripped := 0
	for _, names := range res.StrippedVariables() {
		stripped += len(names)
	}
	logger.Info("compiled documents",
		"sources", len(srcs),
		"documents", out.Len(),
		"passes", len(passes),
		"stripped_variables", stripped,
		"duration", time.Since(start))
	return res, nil
}
