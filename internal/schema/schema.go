package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldKind is the JSON shape of a top-level field.
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindRecordList FieldKind = "record_list"
)

// Field is one top-level entry of an extraction schema.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	// Record lists the string sub-fields of each entry of a KindRecordList field.
	Record []string
}

// String declares an optional scalar string field.
func String(name string) Field {
	return Field{Name: name, Kind: KindString}
}

// RequiredString declares a scalar string field that must be present in model output.
func RequiredString(name string) Field {
	return Field{Name: name, Kind: KindString, Required: true}
}

// RecordList declares an optional repeated record with string sub-fields.
func RecordList(name string, subFields ...string) Field {
	return Field{Name: name, Kind: KindRecordList, Record: subFields}
}

// Schema is an ordered, versioned set of fields the pipeline promises to
// return. It is immutable after New and safe for concurrent use.
type Schema struct {
	Name    string
	Version int
	Fields  []Field

	validator *jsonschema.Schema
}

// New builds a schema and compiles its JSON-Schema validator.
func New(name string, version int, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: at least one field is required", name)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field name is required", name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Kind {
		case KindString:
		case KindRecordList:
			if len(f.Record) == 0 {
				return nil, fmt.Errorf("schema %s: record list %q has no sub-fields", name, f.Name)
			}
		default:
			return nil, fmt.Errorf("schema %s: field %q has unknown kind %q", name, f.Name, f.Kind)
		}
	}

	s := &Schema{Name: name, Version: version, Fields: fields}

	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshaling schema %s: %w", name, err)
	}
	url := fmt.Sprintf("%s.v%d.json", name, version)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", name, err)
	}
	s.validator, err = compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return s, nil
}

// MustNew is New for package-level schema definitions.
func MustNew(name string, version int, fields ...Field) *Schema {
	s, err := New(name, version, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns "name@vN".
func (s *Schema) ID() string {
	return fmt.Sprintf("%s@v%d", s.Name, s.Version)
}

// FieldNames returns the top-level field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFields returns the names the model output must contain.
func (s *Schema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// JSONSchema returns the JSON-Schema document used to validate model output.
// Extra top-level keys are allowed here and dropped by Backfill.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Kind {
		case KindString:
			props[f.Name] = map[string]any{"type": "string"}
		case KindRecordList:
			sub := make(map[string]any, len(f.Record))
			for _, r := range f.Record {
				sub[r] = map[string]any{"type": "string"}
			}
			props[f.Name] = map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": sub,
				},
			}
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := s.RequiredFields(); len(req) > 0 {
		doc["required"] = req
	}
	return doc
}

// Validate checks a decoded JSON value (as produced by encoding/json into any)
// against the schema.
func (s *Schema) Validate(doc any) error {
	if err := s.validator.Validate(doc); err != nil {
		return fmt.Errorf("schema %s: %w", s.ID(), err)
	}
	return nil
}

// Backfill returns a new object holding exactly the schema's fields, taking
// values from obj and filling absent ones with empty defaults. obj must have
// passed Validate.
func (s *Schema) Backfill(obj map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		switch f.Kind {
		case KindString:
			if !ok {
				v = ""
			}
			out[f.Name] = v
		case KindRecordList:
			items, _ := v.([]any)
			records := make([]any, 0, len(items))
			for _, item := range items {
				rec, _ := item.(map[string]any)
				filled := make(map[string]any, len(f.Record))
				for _, sub := range f.Record {
					if sv, ok := rec[sub]; ok {
						filled[sub] = sv
					} else {
						filled[sub] = ""
					}
				}
				records = append(records, filled)
			}
			out[f.Name] = records
		}
	}
	return out
}

// Empty returns the all-defaults object for the schema.
func (s *Schema) Empty() map[string]any {
	return s.Backfill(nil)
}

// TemplateJSON renders the target shape with every field empty, preserving
// declaration order. Record lists show a single empty record.
func (s *Schema) TemplateJSON() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range s.Fields {
		b.WriteString("  ")
		b.WriteString(quote(f.Name))
		b.WriteString(": ")
		switch f.Kind {
		case KindString:
			b.WriteString(`""`)
		case KindRecordList:
			b.WriteString("[\n    {")
			for j, sub := range f.Record {
				if j > 0 {
					b.WriteString(",")
				}
				b.WriteString(" ")
				b.WriteString(quote(sub))
				b.WriteString(`: ""`)
			}
			b.WriteString(" }\n  ]")
		}
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func quote(s string) string {
	q, _ := json.Marshal(s)
	return string(q)
}
