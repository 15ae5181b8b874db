package refs

import (
	"fmt"

	"github.com/goliatone/go-refs/schema/jsonschema"
	"github.com/goliatone/go-refs/snapshot"
)

// FieldDescriptor describes a path under a cursor, its shape and Go type.
type FieldDescriptor = snapshot.FieldDescriptor

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatJSONSchema represents a JSON Schema document.
	SchemaFormatJSONSchema SchemaFormat = "jsonschema"
)

// SchemaDocument pairs a generated schema with its format. Document is
// always JSON serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Path     string
	Document any
}

// Describe flattens the value under the cursor into field descriptors. Paths
// are absolute, starting from the root.
func (r *Ref) Describe() []FieldDescriptor {
	value, found := r.Lookup()
	if !found {
		return []FieldDescriptor{}
	}
	return snapshot.DescribeAt(value, r.path)
}

// Schema generates a schema document for the value under the cursor.
func (r *Ref) Schema(format SchemaFormat) (SchemaDocument, error) {
	doc := SchemaDocument{Format: format, Path: r.path.String()}
	switch format {
	case SchemaFormatDescriptors, "":
		doc.Format = SchemaFormatDescriptors
		doc.Document = r.Describe()
		return doc, nil
	case SchemaFormatJSONSchema:
		value, found := r.Lookup()
		if !found {
			return SchemaDocument{}, &PathError{Op: "schema", Path: r.Path(), Err: ErrPathNotFound}
		}
		schema, err := jsonschema.Generate(value)
		if err != nil {
			return SchemaDocument{}, err
		}
		doc.Document = schema
		return doc, nil
	default:
		return SchemaDocument{}, fmt.Errorf("refs: schema format %q unsupported", format)
	}
}
