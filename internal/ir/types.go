package ir

import (
	"github.com/hanpama/gqlc/internal/language"
	"github.com/hanpama/gqlc/internal/schema"
)

// Kind tags every IR node.
type Kind string

const (
	KindRoot           Kind = "Root"
	KindFragment       Kind = "Fragment"
	KindField          Kind = "Field"
	KindInlineFragment Kind = "InlineFragment"
	KindFragmentSpread Kind = "FragmentSpread"
	KindCondition      Kind = "Condition"
	KindDirective      Kind = "Directive"
	KindArgument       Kind = "Argument"
)

// Node is the closed set of IR node types. Values are not nodes; they hang
// off Arguments and Conditions.
type Node interface {
	Kind() Kind
	node()
}

// Document is a top-level named node held by a compiler context.
type Document interface {
	Node
	DocumentName() string
	document()
}

// Selection is a node that may appear in a selection list.
type Selection interface {
	Node
	selection()
}

// Root is a named query, mutation or subscription.
type Root struct {
	Name                string
	Operation           language.Operation
	Type                string
	ArgumentDefinitions []*ArgumentDefinition
	Directives          []*Directive
	Selections          []Selection
	Loc                 *Location
}

// Fragment is a named reusable selection set. ArgumentDefinitions holds
// arguments declared locally through @argumentDefinitions.
type Fragment struct {
	Name                string
	TypeCondition       string
	ArgumentDefinitions []*ArgumentDefinition
	Directives          []*Directive
	Selections          []Selection
	Loc                 *Location
}

// Field is a selected field. Selections is empty for leaf fields.
type Field struct {
	Alias      string
	Name       string
	Type       *schema.TypeRef
	Arguments  []*Argument
	Directives []*Directive
	Selections []Selection
	Loc        *Location
}

type InlineFragment struct {
	TypeCondition string
	Directives    []*Directive
	Selections    []Selection
	Loc           *Location
}

// FragmentSpread references a fragment by name. Arguments bind the target
// fragment's local arguments.
type FragmentSpread struct {
	Name       string
	Arguments  []*Argument
	Directives []*Directive
	Loc        *Location
}

// Condition gates Selections on a boolean value. Passing is the value the
// condition must evaluate to for the selections to be included: true for
// @include, false for @skip.
type Condition struct {
	Condition  Value
	Passing    bool
	Selections []Selection
	Loc        *Location
}

type Directive struct {
	Name      string
	Arguments []*Argument
	Loc       *Location
}

type Argument struct {
	Name  string
	Value Value
	Loc   *Location
}

// ArgumentDefinition declares a variable on a Root or a local argument on a
// Fragment.
type ArgumentDefinition struct {
	Name         string
	Type         *schema.TypeRef
	DefaultValue Value
	Loc          *Location
}

// Location points back into the source document.
type Location struct {
	Source string
	Line   int
	Column int
}

func (*Root) Kind() Kind           { return KindRoot }
func (*Fragment) Kind() Kind       { return KindFragment }
func (*Field) Kind() Kind          { return KindField }
func (*InlineFragment) Kind() Kind { return KindInlineFragment }
func (*FragmentSpread) Kind() Kind { return KindFragmentSpread }
func (*Condition) Kind() Kind      { return KindCondition }
func (*Directive) Kind() Kind      { return KindDirective }
func (*Argument) Kind() Kind       { return KindArgument }

func (*Root) node()           {}
func (*Fragment) node()       {}
func (*Field) node()          {}
func (*InlineFragment) node() {}
func (*FragmentSpread) node() {}
func (*Condition) node()      {}
func (*Directive) node()      {}
func (*Argument) node()       {}

func (r *Root) DocumentName() string     { return r.Name }
func (f *Fragment) DocumentName() string { return f.Name }
func (*Root) document()                  {}
func (*Fragment) document()              {}

func (*Field) selection()          {}
func (*InlineFragment) selection() {}
func (*FragmentSpread) selection() {}
func (*Condition) selection()      {}

// ArgumentDefinitionNames returns declared names in declaration order.
func ArgumentDefinitionNames(defs []*ArgumentDefinition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func locationOf(pos *language.Position) *Location {
	if pos == nil {
		return nil
	}
	loc := &Location{Line: pos.Line, Column: pos.Column}
	if pos.Src != nil {
		loc.Source = pos.Src.Name
	}
	return loc
}
