// Package jsonschema derives JSON Schema documents from persistent snapshot
// values and plain Go values.
package jsonschema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-refs/snapshot"
)

// Generate returns the schema of v. Keyed snapshots and string keyed maps
// become objects, sequences and slices become arrays described by their
// first element, and Raw values are described by what they wrap.
func Generate(v any) (map[string]any, error) {
	switch typed := v.(type) {
	case nil:
		return map[string]any{"type": "null"}, nil
	case snapshot.Keyed:
		properties := make(map[string]any, typed.Len())
		for _, key := range snapshot.Keys(typed) {
			value, _ := typed.Get(key)
			child, err := Generate(value)
			if err != nil {
				return nil, err
			}
			properties[key] = child
		}
		return object(properties), nil
	case snapshot.Sequence:
		items := map[string]any{}
		if typed.Len() > 0 {
			first, err := Generate(typed.Get(0))
			if err != nil {
				return nil, err
			}
			items = first
		}
		return array(items), nil
	case snapshot.RawValue:
		return Generate(typed.Value())
	case *regexp.Regexp:
		return map[string]any{"type": "string", "format": "regex"}, nil
	}
	return newBuilder().build(reflect.ValueOf(v))
}

// builder tracks the struct types and maps on the current branch so cyclic
// values collapse into a plain object instead of recursing forever.
type builder struct {
	visited map[reflect.Type]bool
	maps    map[uintptr]bool
}

func newBuilder() *builder {
	return &builder{visited: map[reflect.Type]bool{}, maps: map[uintptr]bool{}}
}

func (b *builder) build(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return b.buildStruct(rv)
	case reflect.Map:
		return b.buildMap(rv)
	case reflect.Slice, reflect.Array:
		return b.buildSlice(rv)
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", rv.Type().String()),
		}, nil
	}
}

func (b *builder) buildMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return map[string]any{"type": "object"}, nil
	}
	if rv.IsNil() {
		return object(map[string]any{}), nil
	}
	addr := rv.Pointer()
	if b.maps[addr] {
		return map[string]any{"type": "object"}, nil
	}
	b.maps[addr] = true
	defer delete(b.maps, addr)

	properties := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		child, err := b.build(iter.Value())
		if err != nil {
			return nil, err
		}
		properties[iter.Key().String()] = child
	}
	return object(properties), nil
}

func (b *builder) buildStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	if b.visited[rt] {
		return map[string]any{"type": "object"}, nil
	}
	b.visited[rt] = true
	defer delete(b.visited, rt)

	properties := map[string]any{}
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		child, err := b.build(rv.Field(i))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return object(properties), nil
}

func (b *builder) buildSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}
	items := map[string]any{}
	if rv.Len() > 0 {
		first, err := b.build(rv.Index(0))
		if err != nil {
			return nil, err
		}
		items = first
	}
	return array(items), nil
}

func object(properties map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": properties}
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}
