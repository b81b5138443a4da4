package ir

// Walk calls fn for n and then, while fn returns true, for each descendant in
// depth-first order. Fragment spreads are not followed.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Root:
		walkDirectives(n.Directives, fn)
		walkSelections(n.Selections, fn)
	case *Fragment:
		walkDirectives(n.Directives, fn)
		walkSelections(n.Selections, fn)
	case *Field:
		walkArguments(n.Arguments, fn)
		walkDirectives(n.Directives, fn)
		walkSelections(n.Selections, fn)
	case *InlineFragment:
		walkDirectives(n.Directives, fn)
		walkSelections(n.Selections, fn)
	case *FragmentSpread:
		walkArguments(n.Arguments, fn)
		walkDirectives(n.Directives, fn)
	case *Condition:
		walkSelections(n.Selections, fn)
	case *Directive:
		walkArguments(n.Arguments, fn)
	case *Argument:
	}
}

func walkSelections(sels []Selection, fn func(Node) bool) {
	for _, s := range sels {
		Walk(s, fn)
	}
}

func walkDirectives(dirs []*Directive, fn func(Node) bool) {
	for _, d := range dirs {
		Walk(d, fn)
	}
}

func walkArguments(args []*Argument, fn func(Node) bool) {
	for _, a := range args {
		Walk(a, fn)
	}
}

// FragmentSpreads returns the names of fragments spread directly by doc, in
// first-seen order without duplicates.
func FragmentSpreads(doc Document) []string {
	var names []string
	seen := map[string]bool{}
	Walk(doc, func(n Node) bool {
		if s, ok := n.(*FragmentSpread); ok && !seen[s.Name] {
			seen[s.Name] = true
			names = append(names, s.Name)
		}
		return true
	})
	return names
}
