package theorem

import "strings"

// genericTypeVar is the Lean type variable used for parameters whose source
// type has no mapping.
const genericTypeVar = "α"

var numericTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
	"number": true, "float": true, "double": true, "long": true, "short": true,
	"byte": true, "integer": true, "bigint": true,
}

var stringTypes = map[string]bool{
	"string": true, "str": true, "char": true, "charsequence": true,
}

var boolTypes = map[string]bool{
	"bool": true, "boolean": true,
}

// MapType translates a source-language type into a Lean type. Numeric types
// map to Nat, strings to String, booleans to Bool, arrays and slices to List
// of the mapped element type. Unrecognized types fall back to a generic type
// variable.
func MapType(sourceType string) string {
	t := strings.TrimSpace(sourceType)
	if t == "" {
		return genericTypeVar
	}

	// Slice and array forms across the supported languages.
	if strings.HasPrefix(t, "[]") {
		return "List " + parenthesize(MapType(t[2:]))
	}
	if strings.HasSuffix(t, "[]") {
		return "List " + parenthesize(MapType(t[:len(t)-2]))
	}
	lower := strings.ToLower(t)
	for _, prefix := range []string{"array<", "list<", "list[", "array["} {
		if strings.HasPrefix(lower, prefix) {
			inner := t[len(prefix) : len(t)-1]
			return "List " + parenthesize(MapType(inner))
		}
	}

	switch {
	case numericTypes[lower]:
		return "Nat"
	case stringTypes[lower]:
		return "String"
	case boolTypes[lower]:
		return "Bool"
	default:
		return genericTypeVar
	}
}

// parenthesize wraps multi-word types so List application parses.
func parenthesize(t string) string {
	if strings.Contains(t, " ") {
		return "(" + t + ")"
	}
	return t
}
