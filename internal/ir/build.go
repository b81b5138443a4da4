package ir

import (
	"context"
	"fmt"

	language "github.com/hanpama/gqlc/internal/language"
	schema "github.com/hanpama/gqlc/internal/schema"
)

const (
	directiveInclude             = "include"
	directiveSkip                = "skip"
	directiveArguments           = "arguments"
	directiveArgumentDefinitions = "argumentDefinitions"
)

type builder struct {
	schema     *schema.Schema
	documents  []Document
	names      map[string]bool
	fragments  map[string]*language.FragmentDefinition
	violations []*Violation
}

// Build reads every source listed by disc, parses it and lowers all
// operations and fragments into IR documents checked against sch.
func Build(ctx context.Context, sch *schema.Schema, disc Discovery) ([]Document, error) {
	srcs, err := disc.ListMetadata(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]*language.QueryDocument, 0, len(srcs))
	for _, src := range srcs {
		content, err := disc.ReadSource(ctx, src.ID)
		if err != nil {
			return nil, err
		}
		doc, err := language.ParseQuery(src.FilePath, content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.FilePath, err)
		}
		docs = append(docs, doc)
	}
	return BuildDocuments(sch, docs...)
}

// BuildDocuments lowers already parsed documents. Fragments may be spread
// across document boundaries.
func BuildDocuments(sch *schema.Schema, docs ...*language.QueryDocument) ([]Document, error) {
	b := &builder{
		schema:    sch,
		names:     make(map[string]bool),
		fragments: make(map[string]*language.FragmentDefinition),
	}
	b.build(docs)
	if len(b.violations) > 0 {
		return nil, ValidationError(b.violations)
	}
	return b.documents, nil
}

func (b *builder) build(docs []*language.QueryDocument) {
	// Register fragments first so spreads can be checked regardless of order
	for _, doc := range docs {
		for _, frag := range doc.Fragments {
			if b.names[frag.Name] {
				b.addViolation(violationDuplicateDocument(frag.Name, frag.Position))
				continue
			}
			b.names[frag.Name] = true
			b.fragments[frag.Name] = frag
		}
	}
	for _, doc := range docs {
		for _, op := range doc.Operations {
			if op.Name == "" {
				b.addViolation(violationAnonymousOperation(op.Operation, op.Position))
				continue
			}
			if b.names[op.Name] {
				b.addViolation(violationDuplicateDocument(op.Name, op.Position))
				continue
			}
			b.names[op.Name] = true
			b.documents = append(b.documents, b.buildRoot(op))
		}
		for _, frag := range doc.Fragments {
			if b.fragments[frag.Name] != frag {
				continue
			}
			b.documents = append(b.documents, b.buildFragment(frag))
		}
	}
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

func (b *builder) buildRoot(op *language.OperationDefinition) *Root {
	root := &Root{
		Name:      op.Name,
		Operation: op.Operation,
		Loc:       locationOf(op.Position),
	}
	if t := b.schema.RootType(op.Operation); t != nil {
		root.Type = t.Name
	} else {
		b.addViolation(violationUnknownRootType(op.Operation, op.Name, op.Position))
	}
	for _, v := range op.VariableDefinitions {
		root.ArgumentDefinitions = append(root.ArgumentDefinitions, &ArgumentDefinition{
			Name:         v.Variable,
			Type:         schema.FromAST(v.Type),
			DefaultValue: buildValue(v.DefaultValue),
			Loc:          locationOf(v.Position),
		})
	}
	root.Directives = b.buildDirectives(op.Directives)
	root.Selections = b.buildSelections(root.Type, op.SelectionSet)
	b.checkVariables(root, op)
	return root
}

func (b *builder) buildFragment(frag *language.FragmentDefinition) *Fragment {
	f := &Fragment{
		Name:          frag.Name,
		TypeCondition: frag.TypeCondition,
		Loc:           locationOf(frag.Position),
	}
	if b.schema.Type(frag.TypeCondition) == nil {
		b.addViolation(violationUnknownTypeCondition(frag.TypeCondition, frag.Position))
	}
	for _, d := range frag.Directives {
		if d.Name != directiveArgumentDefinitions {
			f.Directives = append(f.Directives, b.buildDirective(d))
			continue
		}
		for _, arg := range d.Arguments {
			def, ok := buildLocalArgumentDefinition(arg)
			if !ok {
				b.addViolation(violationArgumentDefinition(frag.Name, arg.Name, arg.Position))
				continue
			}
			f.ArgumentDefinitions = append(f.ArgumentDefinitions, def)
		}
	}
	f.Selections = b.buildSelections(frag.TypeCondition, frag.SelectionSet)
	return f
}

// buildLocalArgumentDefinition reads `name: {type: "Int", defaultValue: 1}`.
func buildLocalArgumentDefinition(arg *language.Argument) (*ArgumentDefinition, bool) {
	if arg.Value == nil || arg.Value.Kind != language.ObjectValue {
		return nil, false
	}
	def := &ArgumentDefinition{Name: arg.Name, Loc: locationOf(arg.Position)}
	for _, c := range arg.Value.Children {
		switch c.Name {
		case "type":
			if c.Value.Kind != language.StringValue {
				return nil, false
			}
			ref, ok := schema.ParseTypeRef(c.Value.Raw)
			if !ok {
				return nil, false
			}
			def.Type = ref
		case "defaultValue":
			def.DefaultValue = buildValue(c.Value)
		default:
			return nil, false
		}
	}
	return def, def.Type != nil
}

// buildSelections lowers a selection set on parentType. An empty parentType
// means the parent could not be resolved and schema checks are skipped.
func (b *builder) buildSelections(parentType string, set language.SelectionSet) []Selection {
	var out []Selection
	for _, sel := range set {
		var node Selection
		var dirs language.DirectiveList
		switch sel := sel.(type) {
		case *language.Field:
			node, dirs = b.buildField(parentType, sel), sel.Directives
		case *language.InlineFragment:
			node, dirs = b.buildInlineFragment(parentType, sel), sel.Directives
		case *language.FragmentSpread:
			node, dirs = b.buildFragmentSpread(sel), sel.Directives
		}
		if node == nil {
			continue
		}
		out = append(out, b.wrapConditions(node, dirs))
	}
	return out
}

func (b *builder) buildField(parentType string, field *language.Field) *Field {
	f := &Field{
		Alias: field.Alias,
		Name:  field.Name,
		Loc:   locationOf(field.Position),
	}
	if f.Alias == f.Name {
		f.Alias = ""
	}
	childType := ""
	if parentType != "" {
		if def := b.schema.FieldOf(parentType, field.Name); def != nil {
			f.Type = def.Type
			childType = def.Type.GetNamedType()
		} else {
			b.addViolation(violationUnknownField(field.Name, parentType, field.Position))
		}
	}
	f.Arguments = buildArguments(field.Arguments)
	f.Directives = b.buildDirectives(field.Directives)
	f.Selections = b.buildSelections(childType, field.SelectionSet)
	return f
}

func (b *builder) buildInlineFragment(parentType string, frag *language.InlineFragment) *InlineFragment {
	inline := &InlineFragment{
		TypeCondition: frag.TypeCondition,
		Loc:           locationOf(frag.Position),
	}
	childType := parentType
	if frag.TypeCondition != "" {
		childType = frag.TypeCondition
		if b.schema.Type(frag.TypeCondition) == nil {
			b.addViolation(violationUnknownTypeCondition(frag.TypeCondition, frag.Position))
			childType = ""
		}
	}
	inline.Directives = b.buildDirectives(frag.Directives)
	inline.Selections = b.buildSelections(childType, frag.SelectionSet)
	return inline
}

func (b *builder) buildFragmentSpread(spread *language.FragmentSpread) *FragmentSpread {
	if _, ok := b.fragments[spread.Name]; !ok {
		b.addViolation(violationUnknownFragment(spread.Name, spread.Position))
	}
	s := &FragmentSpread{Name: spread.Name, Loc: locationOf(spread.Position)}
	for _, d := range spread.Directives {
		if d.Name == directiveArguments {
			s.Arguments = append(s.Arguments, buildArguments(d.Arguments)...)
		}
	}
	s.Directives = b.buildDirectives(spread.Directives)
	return s
}

// buildDirectives keeps every directive that is not lowered into another node.
func (b *builder) buildDirectives(dirs language.DirectiveList) []*Directive {
	var out []*Directive
	for _, d := range dirs {
		switch d.Name {
		case directiveInclude, directiveSkip, directiveArguments, directiveArgumentDefinitions:
			continue
		}
		out = append(out, b.buildDirective(d))
	}
	return out
}

func (b *builder) buildDirective(d *language.Directive) *Directive {
	return &Directive{Name: d.Name, Arguments: buildArguments(d.Arguments), Loc: locationOf(d.Position)}
}

// wrapConditions nests node inside one Condition per @include/@skip, the
// first directive outermost.
func (b *builder) wrapConditions(node Selection, dirs language.DirectiveList) Selection {
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if d.Name != directiveInclude && d.Name != directiveSkip {
			continue
		}
		if len(d.Arguments) != 1 || d.Arguments[0].Name != "if" {
			b.addViolation(violationConditionArgument(d.Name, d.Position))
			continue
		}
		node = &Condition{
			Condition:  buildValue(d.Arguments[0].Value),
			Passing:    d.Name == directiveInclude,
			Selections: []Selection{node},
			Loc:        locationOf(d.Position),
		}
	}
	return node
}

func buildArguments(args language.ArgumentList) []*Argument {
	var out []*Argument
	for _, a := range args {
		out = append(out, &Argument{Name: a.Name, Value: buildValue(a.Value), Loc: locationOf(a.Position)})
	}
	return out
}

// checkVariables reports variables used directly by the operation body that
// it does not declare. Uses inside fragments may bind fragment-local
// arguments and are not checked here.
func (b *builder) checkVariables(root *Root, op *language.OperationDefinition) {
	declared := make(map[string]bool, len(root.ArgumentDefinitions))
	for _, d := range root.ArgumentDefinitions {
		declared[d.Name] = true
	}
	reported := map[string]bool{}
	report := func(name string) {
		if !declared[name] && !reported[name] {
			reported[name] = true
			b.addViolation(violationUndefinedVariable(name, root.Name, op.Position))
		}
	}
	Walk(root, func(n Node) bool {
		switch n := n.(type) {
		case *Argument:
			Variables(n.Value, report)
		case *Condition:
			Variables(n.Condition, report)
		}
		return true
	})
}
