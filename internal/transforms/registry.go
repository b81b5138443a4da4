// Package transforms contains the IR passes of the compiler and a registry
// to select them by name.
package transforms

import (
	"fmt"
	"sort"

	"github.com/hanpama/gqlc/internal/compiler"
)

var registry = map[string]compiler.Pass{
	"strip-unused-variables": {Name: "strip-unused-variables", Transform: StripUnusedVariables},
}

// defaultPasses is the pipeline used when none is configured.
var defaultPasses = []string{"strip-unused-variables"}

// Names lists the registered passes in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves pass names in the given order.
func Lookup(names ...string) ([]compiler.Pass, error) {
	passes := make([]compiler.Pass, 0, len(names))
	for _, n := range names {
		p, ok := registry[n]
		if !ok {
			return nil, fmt.Errorf("unknown pass %q", n)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

// Default returns the default pipeline.
func Default() []compiler.Pass {
	passes, err := Lookup(defaultPasses...)
	if err != nil {
		panic(err)
	}
	return passes
}
