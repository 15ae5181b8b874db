package snapshot

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"
)

// Keyed is the persistent representation of a plain string-keyed object.
type Keyed = *immutable.Map[string, any]

// Sequence is the persistent representation of a plain slice or array.
type Sequence = *immutable.List[any]

var (
	stringHasher = immutable.NewHasher("")

	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(&regexp.Regexp{})
)

// RawValue marks a value that must never be converted into persistent
// structure. Raw values are always classified as leaves.
type RawValue struct {
	value any
}

// Raw wraps x so deep conversion stops at it.
func Raw(x any) RawValue {
	if raw, ok := x.(RawValue); ok {
		return raw
	}
	return RawValue{value: x}
}

// Value returns the wrapped value untouched.
func (r RawValue) Value() any {
	return r.value
}

// NewKeyed returns an empty keyed snapshot.
func NewKeyed() Keyed {
	return immutable.NewMap[string, any](stringHasher)
}

// NewSequence returns a sequence snapshot holding the converted values.
func NewSequence(values ...any) Sequence {
	builder := immutable.NewListBuilder[any]()
	for _, value := range values {
		builder.Append(FromPlain(value))
	}
	return builder.List()
}

// Map deep converts a plain string-keyed value into a keyed snapshot. Values
// that do not convert into a keyed snapshot yield an empty one.
func Map(x any) Keyed {
	if keyed, ok := FromPlain(x).(Keyed); ok {
		return keyed
	}
	return NewKeyed()
}

// List deep converts a plain slice into a sequence snapshot. Values that do not
// convert into a sequence yield an empty one.
func List(x any) Sequence {
	if seq, ok := FromPlain(x).(Sequence); ok {
		return seq
	}
	return NewSequence()
}

// FromPlain deep converts x into its persistent form. String-keyed maps become
// keyed snapshots, slices and arrays (except []byte) become sequences and
// structs (except time.Time) become keyed snapshots of their exported fields,
// named after their json tags.
// Pointers, channels and other containers are kept as opaque values, and Raw
// values are kept as leaves. Persistent values are returned as-is, so the
// conversion is idempotent.
func FromPlain(x any) any {
	switch typed := x.(type) {
	case nil:
		return nil
	case RawValue, Keyed, Sequence, string, bool, time.Time, *regexp.Regexp:
		return typed
	case map[string]any:
		builder := immutable.NewMapBuilder[string, any](stringHasher)
		for key, value := range typed {
			builder.Set(key, FromPlain(value))
		}
		return builder.Map()
	case []any:
		builder := immutable.NewListBuilder[any]()
		for _, value := range typed {
			builder.Append(FromPlain(value))
		}
		return builder.List()
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		builder := immutable.NewMapBuilder[string, any](stringHasher)
		iter := v.MapRange()
		for iter.Next() {
			builder.Set(iter.Key().String(), FromPlain(iter.Value().Interface()))
		}
		return builder.Map()
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		builder := immutable.NewListBuilder[any]()
		for i := 0; i < v.Len(); i++ {
			builder.Append(FromPlain(v.Index(i).Interface()))
		}
		return builder.List()
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface()
		}
		builder := immutable.NewMapBuilder[string, any](stringHasher)
		setFields(builder, v, false)
		return builder.Map()
	default:
		return v.Interface()
	}
}

// setFields stores the exported fields of v under their json names. Fields of
// embedded structs without a json name are promoted and never replace a field
// declared on the outer struct.
func setFields(builder *immutable.MapBuilder[string, any], v reflect.Value, promoted bool) {
	rt := v.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}
		value := v.Field(i)
		if field.Anonymous && field.Tag.Get("json") == "" {
			if value.Kind() == reflect.Pointer {
				if value.IsNil() {
					continue
				}
				value = value.Elem()
			}
			if value.Kind() == reflect.Struct && value.Type() != timeType {
				setFields(builder, value, true)
				continue
			}
		}
		if promoted {
			if _, exists := builder.Get(name); exists {
				continue
			}
		}
		builder.Set(name, FromPlain(value.Interface()))
	}
}

func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return field.Name, false
}

// ToPlain converts a persistent value back into plain Go values: keyed
// snapshots become map[string]any, sequences become []any and Raw values are
// unwrapped. The result shares nothing with v.
func ToPlain(v any) any {
	switch typed := v.(type) {
	case Keyed:
		out := make(map[string]any, typed.Len())
		itr := typed.Iterator()
		for !itr.Done() {
			key, value, _ := itr.Next()
			out[key] = ToPlain(value)
		}
		return out
	case Sequence:
		out := make([]any, 0, typed.Len())
		itr := typed.Iterator()
		for !itr.Done() {
			_, value := itr.Next()
			out = append(out, ToPlain(value))
		}
		return out
	case RawValue:
		return typed.Value()
	default:
		return v
	}
}

// Keys returns the sorted keys of a keyed snapshot, or nil for other shapes.
func Keys(v any) []string {
	keyed, ok := v.(Keyed)
	if !ok {
		return nil
	}
	keys := make([]string, 0, keyed.Len())
	itr := keyed.Iterator()
	for !itr.Done() {
		key, _, _ := itr.Next()
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of entries of a keyed or sequence snapshot, and zero
// for every other shape.
func Len(v any) int {
	switch typed := v.(type) {
	case Keyed:
		return typed.Len()
	case Sequence:
		return typed.Len()
	default:
		return 0
	}
}
