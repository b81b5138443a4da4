package ir

import (
	"strings"

	language "github.com/hanpama/gqlc/internal/language"
	schema "github.com/hanpama/gqlc/internal/schema"
)

// Print renders a document as GraphQL text. Conditions are printed back as
// @include/@skip on each gated selection and fragment arguments as
// @arguments/@argumentDefinitions.
func Print(doc Document) string {
	qd := &language.QueryDocument{}
	switch doc := doc.(type) {
	case *Root:
		qd.Operations = append(qd.Operations, printRoot(doc))
	case *Fragment:
		qd.Fragments = append(qd.Fragments, printFragment(doc))
	}
	return language.FormatQuery(qd)
}

// PrintAll renders docs in order separated by blank lines.
func PrintAll(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, strings.TrimRight(Print(d), "\n"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func printRoot(r *Root) *language.OperationDefinition {
	op := &language.OperationDefinition{
		Operation:    r.Operation,
		Name:         r.Name,
		Directives:   printDirectives(r.Directives),
		SelectionSet: printSelections(r.Selections),
	}
	for _, d := range r.ArgumentDefinitions {
		op.VariableDefinitions = append(op.VariableDefinitions, &language.VariableDefinition{
			Variable:     d.Name,
			Type:         printType(d.Type),
			DefaultValue: printValue(d.DefaultValue),
		})
	}
	return op
}

func printFragment(f *Fragment) *language.FragmentDefinition {
	def := &language.FragmentDefinition{
		Name:          f.Name,
		TypeCondition: f.TypeCondition,
		SelectionSet:  printSelections(f.Selections),
	}
	if len(f.ArgumentDefinitions) > 0 {
		d := &language.Directive{Name: directiveArgumentDefinitions}
		for _, a := range f.ArgumentDefinitions {
			obj := &language.Value{Kind: language.ObjectValue}
			obj.Children = append(obj.Children, &language.ChildValue{
				Name:  "type",
				Value: &language.Value{Kind: language.StringValue, Raw: a.Type.String()},
			})
			if a.DefaultValue != nil {
				obj.Children = append(obj.Children, &language.ChildValue{Name: "defaultValue", Value: printValue(a.DefaultValue)})
			}
			d.Arguments = append(d.Arguments, &language.Argument{Name: a.Name, Value: obj})
		}
		def.Directives = append(def.Directives, d)
	}
	def.Directives = append(def.Directives, printDirectives(f.Directives)...)
	return def
}

func printSelections(sels []Selection) language.SelectionSet {
	var out language.SelectionSet
	for _, s := range sels {
		out = append(out, printSelection(s)...)
	}
	return out
}

func printSelection(s Selection) []language.Selection {
	switch s := s.(type) {
	case *Field:
		return []language.Selection{&language.Field{
			Alias:        s.Alias,
			Name:         s.Name,
			Arguments:    printArguments(s.Arguments),
			Directives:   printDirectives(s.Directives),
			SelectionSet: printSelections(s.Selections),
		}}
	case *InlineFragment:
		return []language.Selection{&language.InlineFragment{
			TypeCondition: s.TypeCondition,
			Directives:    printDirectives(s.Directives),
			SelectionSet:  printSelections(s.Selections),
		}}
	case *FragmentSpread:
		spread := &language.FragmentSpread{Name: s.Name}
		if len(s.Arguments) > 0 {
			spread.Directives = append(spread.Directives, &language.Directive{
				Name:      directiveArguments,
				Arguments: printArguments(s.Arguments),
			})
		}
		spread.Directives = append(spread.Directives, printDirectives(s.Directives)...)
		return []language.Selection{spread}
	case *Condition:
		name := directiveSkip
		if s.Passing {
			name = directiveInclude
		}
		var out []language.Selection
		for _, child := range printSelections(s.Selections) {
			d := &language.Directive{
				Name:      name,
				Arguments: language.ArgumentList{{Name: "if", Value: printValue(s.Condition)}},
			}
			prependDirective(child, d)
			out = append(out, child)
		}
		return out
	}
	return nil
}

func prependDirective(sel language.Selection, d *language.Directive) {
	switch sel := sel.(type) {
	case *language.Field:
		sel.Directives = append(language.DirectiveList{d}, sel.Directives...)
	case *language.InlineFragment:
		sel.Directives = append(language.DirectiveList{d}, sel.Directives...)
	case *language.FragmentSpread:
		sel.Directives = append(language.DirectiveList{d}, sel.Directives...)
	}
}

func printDirectives(dirs []*Directive) language.DirectiveList {
	var out language.DirectiveList
	for _, d := range dirs {
		out = append(out, &language.Directive{Name: d.Name, Arguments: printArguments(d.Arguments)})
	}
	return out
}

func printArguments(args []*Argument) language.ArgumentList {
	var out language.ArgumentList
	for _, a := range args {
		out = append(out, &language.Argument{Name: a.Name, Value: printValue(a.Value)})
	}
	return out
}

func printType(t *schema.TypeRef) *language.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case schema.TypeRefKindNonNull:
		inner := printType(t.OfType)
		inner.NonNull = true
		return inner
	case schema.TypeRefKindList:
		return &language.Type{Elem: printType(t.OfType)}
	}
	return &language.Type{NamedType: t.Named}
}
