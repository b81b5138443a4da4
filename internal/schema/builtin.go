package schema

import "github.com/hanpama/gqlc/internal/language"

var typenameField = &Field{
	Name:        "__typename",
	Description: "The name of the current Object type at runtime.",
	Type:        NonNullType(NamedType("String")),
}

// Compiler directives understood by the IR builder. They are merged into every
// schema so documents using them still resolve against it.
const compilerDirectivesSDL = `
"Binds values to the local arguments of the spread fragment."
directive @arguments on FRAGMENT_SPREAD

"Declares local arguments of a fragment."
directive @argumentDefinitions on FRAGMENT_DEFINITION
`

var compilerDirectives = &language.Source{
	Name:    "gqlc/directives.graphql",
	Input:   compilerDirectivesSDL,
	BuiltIn: true,
}
