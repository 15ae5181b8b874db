package snapshot

import (
	"fmt"
)

// FieldDescriptor describes a path under a value, its shape and Go type.
type FieldDescriptor struct {
	Path  string `json:"path"`
	Shape Shape  `json:"shape"`
	Type  string `json:"type"`
}

// Describe flattens v into descriptors for every leaf, sequence, opaque value
// and empty keyed value below it. Keys are visited in sorted order.
func Describe(v any) []FieldDescriptor {
	return describe(v, nil)
}

// DescribeAt is Describe with every path prefixed by prefix.
func DescribeAt(v any, prefix Path) []FieldDescriptor {
	return describe(v, prefix.Append())
}

func describe(v any, prefix Path) []FieldDescriptor {
	switch typed := v.(type) {
	case Keyed:
		if typed.Len() == 0 {
			return []FieldDescriptor{{
				Path:  prefix.String(),
				Shape: ShapeKeyed,
				Type:  "map[string]any",
			}}
		}
		var fields []FieldDescriptor
		for _, key := range Keys(typed) {
			value, _ := typed.Get(key)
			fields = append(fields, describe(value, prefix.Append(key))...)
		}
		return fields
	case Sequence:
		elementType := "any"
		if typed.Len() > 0 {
			elementType = typeName(typed.Get(0))
		}
		return []FieldDescriptor{{
			Path:  prefix.String(),
			Shape: ShapeSequence,
			Type:  "[]" + elementType,
		}}
	default:
		return []FieldDescriptor{{
			Path:  prefix.String(),
			Shape: ShapeOf(typed),
			Type:  typeName(typed),
		}}
	}
}

func typeName(value any) string {
	switch typed := value.(type) {
	case nil:
		return "nil"
	case Keyed:
		return "map[string]any"
	case Sequence:
		return "[]any"
	case RawValue:
		return "raw(" + typeName(typed.Value()) + ")"
	default:
		return fmt.Sprintf("%T", value)
	}
}
