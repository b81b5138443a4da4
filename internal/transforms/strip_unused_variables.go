package transforms

import (
	"fmt"

	"github.com/hanpama/gqlc/internal/compiler"
	"github.com/hanpama/gqlc/internal/ir"
	"github.com/hanpama/gqlc/internal/irtransform"
)

// referencedVariables is the traversal state of one root: the names of all
// variables its transitive body refers to.
type referencedVariables map[string]struct{}

// StripUnusedVariables removes variable definitions that a root operation
// never references, directly or through the fragments it spreads. Fragments
// pass through unchanged.
func StripUnusedVariables(c *compiler.Context) *compiler.Context {
	out := compiler.NewContext(c.Schema())
	for doc := range c.All() {
		if root, ok := doc.(*ir.Root); ok {
			doc = stripRoot(c, root)
		}
		out = out.Add(doc)
	}
	return out
}

var collectVariables = irtransform.Visitor[referencedVariables]{
	Argument:  visitArgument,
	Condition: visitCondition,
}

func stripRoot(c *compiler.Context, root *ir.Root) *ir.Root {
	scoped, err := compiler.FilterForNode(root, c)
	if err != nil {
		panic(err)
	}
	transformed, referenced := irtransform.Transform(scoped, collectVariables,
		func(*compiler.Context) referencedVariables { return referencedVariables{} })

	// Prune only once the traversal is complete: the root's fragments are
	// visited after the root itself.
	node, err := transformed.Root(root.Name)
	if err != nil {
		panic(fmt.Errorf("strip unused variables: %w", err))
	}
	defs := make([]*ir.ArgumentDefinition, 0, len(node.ArgumentDefinitions))
	for _, d := range node.ArgumentDefinitions {
		if _, ok := referenced[d.Name]; ok {
			defs = append(defs, d)
		}
	}
	cp := *node
	cp.ArgumentDefinitions = defs
	return &cp
}

func visitArgument(arg *ir.Argument, state referencedVariables) *ir.Argument {
	ir.Variables(arg.Value, func(name string) { state[name] = struct{}{} })
	return arg
}

func visitCondition(cond *ir.Condition, state referencedVariables) *ir.Condition {
	if v, ok := cond.Condition.(*ir.Variable); ok {
		state[v.VariableName] = struct{}{}
	}
	return cond
}
