package jsonschema

import (
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-refs/snapshot"
)

func TestGenerateFromSnapshot(t *testing.T) {
	value := snapshot.FromPlain(map[string]any{
		"a":   5,
		"g":   []any{map[string]any{"b": []string{"d"}}},
		"raw": snapshot.Raw(map[string]any{"x": 1.5}),
		"at":  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"nil": nil,
	})

	got, err := Generate(value)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "integer"},
			"g": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"b": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
			"raw": map[string]any{
				"type":       "object",
				"properties": map[string]any{"x": map[string]any{"type": "number"}},
			},
			"at":  map[string]any{"type": "string", "format": "date-time"},
			"nil": map[string]any{"type": "null"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("schema mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestGenerateEmptySequenceAndBytes(t *testing.T) {
	got, err := Generate(snapshot.NewSequence())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"type": "array", "items": map[string]any{}}) {
		t.Fatalf("unexpected empty sequence schema %#v", got)
	}
	got, err = Generate([]byte("abc"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got["format"] != "byte" {
		t.Fatalf("expected byte format, got %#v", got)
	}
}

func TestGenerateDescribesNonStringKeysAsObjects(t *testing.T) {
	got, err := Generate(map[string]any{"ids": map[int]string{1: "a"}, "name": "x"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	properties := got["properties"].(map[string]any)
	ids := properties["ids"].(map[string]any)
	if ids["type"] != "object" || ids["properties"] != nil {
		t.Fatalf("expected opaque object for int keyed map, got %#v", ids)
	}
	if properties["name"].(map[string]any)["type"] != "string" {
		t.Fatalf("expected sibling fields to be described, got %#v", properties["name"])
	}
}

type chainNode struct {
	Name string     `json:"name"`
	Next *chainNode `json:"next"`
}

func TestGenerateStopsAtCycles(t *testing.T) {
	n := &chainNode{Name: "head"}
	n.Next = n
	got, err := Generate(n)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	next := got["properties"].(map[string]any)["next"].(map[string]any)
	if next["type"] != "object" || next["properties"] != nil {
		t.Fatalf("expected revisited type to collapse into an object, got %#v", next)
	}

	loop := map[string]any{"name": "loop"}
	loop["self"] = loop
	got, err = Generate(loop)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	self := got["properties"].(map[string]any)["self"].(map[string]any)
	if self["type"] != "object" || self["properties"] != nil {
		t.Fatalf("expected revisited map to collapse into an object, got %#v", self)
	}
}
