package snapshot

import (
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Shape classifies what a path currently points at.
type Shape int

const (
	// ShapeAbsent means the path does not resolve to anything.
	ShapeAbsent Shape = iota
	// ShapeLeaf covers scalars, nil, time.Time, regexps, funcs and Raw values.
	ShapeLeaf
	// ShapeSequence is an integer indexed persistent list.
	ShapeSequence
	// ShapeKeyed is a string keyed persistent map.
	ShapeKeyed
	// ShapeOpaque is any other container; it only supports key based reads.
	ShapeOpaque
)

func (s Shape) String() string {
	switch s {
	case ShapeLeaf:
		return "leaf"
	case ShapeSequence:
		return "sequence"
	case ShapeKeyed:
		return "keyed"
	case ShapeOpaque:
		return "opaque"
	default:
		return "absent"
	}
}

func joinShapes(shapes []Shape) string {
	names := make([]string, len(shapes))
	for i, shape := range shapes {
		names[i] = shape.String()
	}
	return strings.Join(names, "|")
}

// ShapeOf classifies a present value. nil is a leaf; absence is only reported
// by lookups.
func ShapeOf(v any) Shape {
	switch v.(type) {
	case nil, RawValue, string, bool, time.Time, *regexp.Regexp:
		return ShapeLeaf
	case Keyed:
		return ShapeKeyed
	case Sequence:
		return ShapeSequence
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String, reflect.Func,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ShapeLeaf
	default:
		return ShapeOpaque
	}
}

// MarshalText renders the shape name.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a shape name; unknown names decode as ShapeAbsent.
func (s *Shape) UnmarshalText(text []byte) error {
	switch string(text) {
	case "leaf":
		*s = ShapeLeaf
	case "sequence":
		*s = ShapeSequence
	case "keyed":
		*s = ShapeKeyed
	case "opaque":
		*s = ShapeOpaque
	default:
		*s = ShapeAbsent
	}
	return nil
}
