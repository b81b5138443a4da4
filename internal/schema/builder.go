package schema

import (
	"fmt"
	"os"
	"sort"

	"github.com/hanpama/gqlc/internal/language"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// BuildFromSources loads and validates SDL sources and converts the result.
// The compiler directives are always merged in.
func BuildFromSources(sources ...*language.Source) (*Schema, error) {
	all := make([]*ast.Source, 0, len(sources)+1)
	all = append(all, sources...)
	all = append(all, compilerDirectives)
	sch, err := gqlparser.LoadSchema(all...)
	if err != nil {
		return nil, err
	}
	return buildFromAST(sch), nil
}

// BuildFromSDL parses SDL string and returns the corresponding Schema.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(&language.Source{Name: "schema.graphql", Input: sdl})
}

// Load reads SDL files from disk and builds a schema from all of them.
func Load(paths ...string) (*Schema, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no schema files given")
	}
	sources := make([]*language.Source, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %q: %w", p, err)
		}
		sources = append(sources, &language.Source{Name: p, Input: string(content)})
	}
	return BuildFromSources(sources...)
}

func buildFromAST(src *ast.Schema) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type, len(src.Types)),
		Directives:  make(map[string]*Directive, len(src.Directives)),
		Description: src.Description,
	}
	if src.Query != nil {
		s.QueryType = src.Query.Name
	}
	if src.Mutation != nil {
		s.MutationType = src.Mutation.Name
	}
	if src.Subscription != nil {
		s.SubscriptionType = src.Subscription.Name
	}
	for name, def := range src.Types {
		s.Types[name] = buildType(src, def)
	}
	for name, dir := range src.Directives {
		s.Directives[name] = buildDirective(dir)
	}
	return s
}

func buildType(src *ast.Schema, def *ast.Definition) *Type {
	t := &Type{
		Name:        def.Name,
		Kind:        TypeKind(def.Kind),
		Description: def.Description,
	}
	switch def.Kind {
	case ast.Object, ast.Interface:
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, f := range def.Fields {
			// introspection meta fields are resolved by FieldOf
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			t.Fields = append(t.Fields, buildField(f))
		}
	case ast.Enum:
		for _, v := range def.EnumValues {
			ev := &EnumValue{Name: v.Name, Description: v.Description}
			ev.IsDeprecated, ev.DeprecationReason = deprecation(v.Directives)
			t.EnumValues = append(t.EnumValues, ev)
		}
	case ast.InputObject:
		for _, f := range def.Fields {
			t.InputFields = append(t.InputFields, buildInputValue(f.Name, f.Description, f.Type, f.DefaultValue, f.Directives))
		}
		t.OneOf = def.Directives.ForName("oneOf") != nil
	case ast.Scalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	}
	if def.Kind == ast.Interface || def.Kind == ast.Union {
		for _, pt := range src.PossibleTypes[def.Name] {
			t.PossibleTypes = append(t.PossibleTypes, pt.Name)
		}
		// Sort possible type names for deterministic output
		sort.Strings(t.PossibleTypes)
	}
	return t
}

func buildField(def *ast.FieldDefinition) *Field {
	f := &Field{Name: def.Name, Description: def.Description, Type: FromAST(def.Type)}
	f.IsDeprecated, f.DeprecationReason = deprecation(def.Directives)
	for _, arg := range def.Arguments {
		f.Arguments = append(f.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *ast.Type, def *ast.Value, dirs ast.DirectiveList) *InputValue {
	in := &InputValue{Name: name, Description: description, Type: FromAST(typ)}
	if def != nil {
		in.DefaultValue = def.String()
	}
	in.IsDeprecated, in.DeprecationReason = deprecation(dirs)
	return in
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := &Directive{Name: def.Name, Description: def.Description, IsRepeatable: def.IsRepeatable}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func deprecation(dirs ast.DirectiveList) (bool, string) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return true, reason
}
