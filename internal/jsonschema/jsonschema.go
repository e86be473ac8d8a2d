package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used for tool parameters.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
}

// GenerateJSONSchema builds the schema of T. Pointers are dereferenced;
// a type that refers back to itself is cut off as a plain object.
func GenerateJSONSchema[T any]() (*Schema, error) {
	return FromType(reflect.TypeFor[T]())
}

// FromType is the reflect.Type form of GenerateJSONSchema.
func FromType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("jsonschema: nil type")
	}
	g := &generator{inProgress: map[reflect.Type]bool{}}
	return g.schemaFor(t)
}

type generator struct {
	inProgress map[reflect.Type]bool
}

func (g *generator) schemaFor(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Slice, reflect.Array:
		items, err := g.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		values, err := g.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Struct:
		return g.structSchema(t)
	default:
		return &Schema{Type: "object"}, nil
	}
}

func (g *generator) structSchema(t reflect.Type) (*Schema, error) {
	if g.inProgress[t] {
		return &Schema{Type: "object"}, nil
	}
	g.inProgress[t] = true
	defer delete(g.inProgress, t)

	schema := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		fieldSchema, err := g.schemaFor(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		requiredByTag, err := applyTag(field.Type, field.Tag.Get("jsonschema"), fieldSchema)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		schema.Properties[name] = fieldSchema
		if requiredByTag || (field.Type.Kind() != reflect.Pointer && !omitEmpty) {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema, nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty") || strings.Contains(opts, "omitzero"), false
}

// applyTag handles description=..., enum=a|b|c and required.
func applyTag(fieldType reflect.Type, tag string, schema *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}
	for fieldType.Kind() == reflect.Pointer {
		fieldType = fieldType.Elem()
	}

	required := false
	for _, directive := range strings.Split(tag, ";") {
		key, value, hasValue := strings.Cut(strings.TrimSpace(directive), "=")
		switch {
		case key == "required" && !hasValue:
			required = true
		case key == "description":
			schema.Description = value
		case key == "enum":
			for _, raw := range strings.Split(value, "|") {
				v, err := enumValue(fieldType, raw)
				if err != nil {
					return false, err
				}
				schema.Enum = append(schema.Enum, v)
			}
		case key == "":
		default:
			return false, fmt.Errorf("unknown jsonschema directive %q", key)
		}
	}
	return required, nil
}

func enumValue(t reflect.Type, raw string) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("enum value %q is not an integer: %w", raw, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("enum value %q is not a number: %w", raw, err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("enum value %q is not a bool: %w", raw, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("enum unsupported for %s", t)
	}
}

// String returns the compact JSON form of the schema.
func (s *Schema) String() string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(encoded)
}
