package compiler

import (
	"fmt"

	"github.com/hanpama/gqlc/internal/ir"
)

// FilterForNode returns a context containing doc followed by every fragment
// reachable from it through fragment spreads, in first-reached order. Spread
// cycles are followed once.
func FilterForNode(doc ir.Document, c *Context) (*Context, error) {
	out := NewContext(c.schema).Add(doc)
	visited := map[string]bool{doc.DocumentName(): true}
	queue := []ir.Document{doc}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, name := range ir.FragmentSpreads(next) {
			if visited[name] {
				continue
			}
			visited[name] = true
			frag, err := c.Fragment(name)
			if err != nil {
				return nil, fmt.Errorf("filter context for %q: %w", doc.DocumentName(), err)
			}
			out = out.Add(frag)
			queue = append(queue, frag)
		}
	}
	return out, nil
}
