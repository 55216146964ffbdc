package llm

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
)

// SchemaBuilder builds a JSON Schema object from a Go struct. Field names
// come from json tags; fields tagged without omitempty are required.
type SchemaBuilder struct {
	root *node
}

type node struct {
	Type        string
	Description string
	Enum        []string
	Items       *node
	Fields      []string
	Props       map[string]*node
	Required    []string
}

// SchemaFrom creates a SchemaBuilder by reflecting on T.
func SchemaFrom[T any]() *SchemaBuilder {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return &SchemaBuilder{root: &node{Type: "object", Props: map[string]*node{}}}
	}
	return &SchemaBuilder{root: nodeFor(t)}
}

func nodeFor(t reflect.Type) *node {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &node{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &node{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &node{Type: "number"}
	case reflect.Bool:
		return &node{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &node{Type: "array", Items: nodeFor(t.Elem())}
	case reflect.Map:
		return &node{Type: "object"}
	case reflect.Struct:
		n := &node{Type: "object", Props: map[string]*node{}}
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, flags, _ := strings.Cut(tag, ",")
			if name == "" {
				name = f.Name
			}
			n.Fields = append(n.Fields, name)
			n.Props[name] = nodeFor(f.Type)
			if !strings.Contains(flags, "omitempty") {
				n.Required = append(n.Required, name)
			}
		}
		return n
	default:
		return &node{Type: "string"}
	}
}

// Desc sets the description for a top-level field.
func (s *SchemaBuilder) Desc(field, description string) *SchemaBuilder {
	if p, ok := s.root.Props[field]; ok {
		p.Description = description
	}
	return s
}

// Required marks additional top-level fields as required.
func (s *SchemaBuilder) Required(fields ...string) *SchemaBuilder {
	for _, f := range fields {
		if _, ok := s.root.Props[f]; ok && !slices.Contains(s.root.Required, f) {
			s.root.Required = append(s.root.Required, f)
		}
	}
	return s
}

// Enum restricts a top-level string field to the given values.
func (s *SchemaBuilder) Enum(field string, values ...string) *SchemaBuilder {
	if p, ok := s.root.Props[field]; ok {
		p.Enum = slices.Clone(values)
	}
	return s
}

// Build generates the JSON Schema.
func (s *SchemaBuilder) Build() json.RawMessage {
	data, err := json.Marshal(s.root.toMap())
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}

// ResponseSchema wraps the built schema for use with WithResponseSchema.
func (s *SchemaBuilder) ResponseSchema(name, description string) ResponseSchema {
	return ResponseSchema{Name: name, Description: description, Schema: s.Build()}
}

func (n *node) toMap() map[string]any {
	m := map[string]any{"type": n.Type}
	if n.Description != "" {
		m["description"] = n.Description
	}
	if len(n.Enum) > 0 {
		m["enum"] = n.Enum
	}
	if n.Items != nil {
		m["items"] = n.Items.toMap()
	}
	if n.Props != nil {
		props := make(map[string]any, len(n.Props))
		for _, name := range n.Fields {
			props[name] = n.Props[name].toMap()
		}
		m["properties"] = props
	}
	if len(n.Required) > 0 {
		m["required"] = n.Required
	}
	return m
}
