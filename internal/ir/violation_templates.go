package ir

import (
	"fmt"

	language "github.com/hanpama/gqlc/internal/language"
)

// NOTE: Keep messages stable; tests match on them.

func violationAnonymousOperation(op language.Operation, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Anonymous %s operations are not supported; give the operation a name", op),
		pos,
	)
}

func violationDuplicateDocument(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate document name %q", name),
		pos,
	)
}

func violationUnknownRootType(op language.Operation, name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Schema does not define a %s type for operation %q", op, name),
		pos,
	)
}

func violationUnknownField(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Cannot query field %q on type %q", fieldName, typeName),
		pos,
	)
}

func violationUnknownTypeCondition(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Unknown type %q in type condition", typeName),
		pos,
	)
}

func violationUnknownFragment(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Unknown fragment %q", name),
		pos,
	)
}

func violationUndefinedVariable(variable, operation string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Variable \"$%s\" is not defined by operation %q", variable, operation),
		pos,
	)
}

func violationConditionArgument(directive string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s requires exactly one argument \"if\"", directive),
		pos,
	)
}

func violationArgumentDefinition(fragment, arg string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid @argumentDefinitions entry %q on fragment %q: expected {type: String!, defaultValue: Any}", arg, fragment),
		pos,
	)
}
