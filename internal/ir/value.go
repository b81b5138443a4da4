package ir

import "github.com/hanpama/gqlc/internal/language"

// Value is the closed set of argument value kinds.
type Value interface {
	value()
}

// Variable defers to a runtime-bound operation variable.
type Variable struct {
	VariableName string
}

// Literal is a scalar or enum constant. Raw holds the unquoted source text.
type Literal struct {
	Kind language.ValueKind
	Raw  string
}

type ListValue struct {
	Items []Value
}

type ObjectValue struct {
	Fields []*ObjectField
}

type ObjectField struct {
	Name  string
	Value Value
}

func (*Variable) value()    {}
func (*Literal) value()     {}
func (*ListValue) value()   {}
func (*ObjectValue) value() {}

// Variables calls fn for every variable referenced by v, including those
// nested in list items and object fields.
func Variables(v Value, fn func(name string)) {
	switch v := v.(type) {
	case *Variable:
		fn(v.VariableName)
	case *ListValue:
		for _, item := range v.Items {
			Variables(item, fn)
		}
	case *ObjectValue:
		for _, f := range v.Fields {
			Variables(f.Value, fn)
		}
	}
}

func buildValue(v *language.Value) Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.Variable:
		return &Variable{VariableName: v.Raw}
	case language.ListValue:
		items := make([]Value, 0, len(v.Children))
		for _, c := range v.Children {
			items = append(items, buildValue(c.Value))
		}
		return &ListValue{Items: items}
	case language.ObjectValue:
		fields := make([]*ObjectField, 0, len(v.Children))
		for _, c := range v.Children {
			fields = append(fields, &ObjectField{Name: c.Name, Value: buildValue(c.Value)})
		}
		return &ObjectValue{Fields: fields}
	default:
		return &Literal{Kind: v.Kind, Raw: v.Raw}
	}
}

func printValue(v Value) *language.Value {
	switch v := v.(type) {
	case *Variable:
		return &language.Value{Kind: language.Variable, Raw: v.VariableName}
	case *Literal:
		return &language.Value{Kind: v.Kind, Raw: v.Raw}
	case *ListValue:
		out := &language.Value{Kind: language.ListValue}
		for _, item := range v.Items {
			out.Children = append(out.Children, &language.ChildValue{Value: printValue(item)})
		}
		return out
	case *ObjectValue:
		out := &language.Value{Kind: language.ObjectValue}
		for _, f := range v.Fields {
			out.Children = append(out.Children, &language.ChildValue{Name: f.Name, Value: printValue(f.Value)})
		}
		return out
	}
	return nil
}
