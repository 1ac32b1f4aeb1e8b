// Package avro models the writer schema embedded in Avro object container
// files and maps it onto BigQuery schemas and rows.
package avro

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Type is an Avro type name.
type Type string

const (
	TypeNull    Type = "null"
	TypeBoolean Type = "boolean"
	TypeInt     Type = "int"
	TypeLong    Type = "long"
	TypeFloat   Type = "float"
	TypeDouble  Type = "double"
	TypeBytes   Type = "bytes"
	TypeString  Type = "string"
	TypeRecord  Type = "record"
	TypeArray   Type = "array"
	TypeUnion   Type = "union"
)

// Logical type annotations recognized by the mapper.
const (
	LogicalDate            = "date"
	LogicalTimestampMillis = "timestamp-millis"
	LogicalTimeMicros      = "time-micros"
	LogicalDecimal         = "decimal"
)

// Schema is a parsed Avro type expression: a primitive, a union, an array,
// a record, or a primitive refined by a logical type.
type Schema struct {
	Type        Type
	LogicalType string
	Precision   int // decimal only
	Scale       int // decimal only
	Name        string   // record name
	Fields      []Field  // record fields, declaration order
	Items       *Schema  // array element
	Union       []Schema // union alternatives, declaration order
}

// Field is a named member of a record.
type Field struct {
	Name   string
	Schema Schema
}

// IsNullableUnion reports whether s is a two-alternative union containing null.
func (s Schema) IsNullableUnion() bool {
	if s.Type != TypeUnion || len(s.Union) != 2 {
		return false
	}
	return s.Union[0].Type == TypeNull || s.Union[1].Type == TypeNull
}

// nonNull returns the non-null alternative of a nullable union.
func (s Schema) nonNull() Schema {
	if s.Union[0].Type == TypeNull {
		return s.Union[1]
	}
	return s.Union[0]
}

// ParseSchema parses an Avro schema JSON document as found in a container
// file header.
func ParseSchema(data []byte) (Schema, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return Schema{}, fmt.Errorf("decode schema JSON: %w", err)
	}
	return parseValue(v)
}

func parseValue(v interface{}) (Schema, error) {
	switch t := v.(type) {
	case string:
		return Schema{Type: Type(t)}, nil
	case []interface{}:
		union := Schema{Type: TypeUnion}
		for _, alt := range t {
			s, err := parseValue(alt)
			if err != nil {
				return Schema{}, err
			}
			union.Union = append(union.Union, s)
		}
		return union, nil
	case map[string]interface{}:
		return parseObject(t)
	default:
		return Schema{}, fmt.Errorf("unsupported schema form %T", v)
	}
}

func parseObject(m map[string]interface{}) (Schema, error) {
	typeName, ok := m["type"].(string)
	if !ok {
		return Schema{}, fmt.Errorf("schema object missing type name")
	}

	switch Type(typeName) {
	case TypeRecord:
		return parseRecord(m)
	case TypeArray:
		items, ok := m["items"]
		if !ok {
			return Schema{}, fmt.Errorf("array schema missing items")
		}
		elem, err := parseValue(items)
		if err != nil {
			return Schema{}, err
		}
		return Schema{Type: TypeArray, Items: &elem}, nil
	default:
		s := Schema{Type: Type(typeName)}
		if lt, ok := m["logicalType"].(string); ok {
			s.LogicalType = lt
		}
		if p, ok := m["precision"].(float64); ok {
			s.Precision = int(p)
		}
		if sc, ok := m["scale"].(float64); ok {
			s.Scale = int(sc)
		}
		return s, nil
	}
}

func parseRecord(m map[string]interface{}) (Schema, error) {
	rec := Schema{Type: TypeRecord}
	if name, ok := m["name"].(string); ok {
		rec.Name = name
	}

	rawFields, ok := m["fields"].([]interface{})
	if !ok {
		return Schema{}, fmt.Errorf("record %q missing fields", rec.Name)
	}

	for i, rf := range rawFields {
		fm, ok := rf.(map[string]interface{})
		if !ok {
			return Schema{}, fmt.Errorf("record %q: field %d is not an object", rec.Name, i)
		}
		name, _ := fm["name"].(string)
		if name == "" {
			return Schema{}, fmt.Errorf("record %q: field %d has no name", rec.Name, i)
		}
		ft, ok := fm["type"]
		if !ok {
			return Schema{}, fmt.Errorf("record %q: field %q has no type", rec.Name, name)
		}
		fs, err := parseValue(ft)
		if err != nil {
			return Schema{}, fmt.Errorf("record %q: field %q: %w", rec.Name, name, err)
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Schema: fs})
	}

	return rec, nil
}
