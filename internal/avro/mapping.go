package avro

import (
	"fmt"

	"cloud.google.com/go/bigquery"
)

// BQType returns the BigQuery column type for a single field. A logical type
// annotation on a primitive always overrides the primitive mapping.
func BQType(f Field) (bigquery.FieldType, error) {
	return typeOf(f.Name, f.Schema)
}

func typeOf(fieldName string, s Schema) (bigquery.FieldType, error) {
	switch s.Type {
	case TypeUnion:
		inner, err := nullableBranch(fieldName, s)
		if err != nil {
			return "", err
		}
		return typeOf(fieldName, inner)
	case TypeArray:
		if s.Items.Type == TypeUnion {
			return "", fmt.Errorf("field %s: array of union is not supported", fieldName)
		}
		return typeOf(fieldName, *s.Items)
	}

	if s.LogicalType != "" {
		switch {
		case s.Type == TypeInt && s.LogicalType == LogicalDate:
			return bigquery.DateFieldType, nil
		case s.Type == TypeLong && s.LogicalType == LogicalTimestampMillis:
			return bigquery.TimestampFieldType, nil
		case s.Type == TypeLong && s.LogicalType == LogicalTimeMicros:
			return bigquery.TimeFieldType, nil
		case s.Type == TypeBytes && s.LogicalType == LogicalDecimal:
			return bigquery.NumericFieldType, nil
		default:
			return "", fmt.Errorf("field %s: unsupported logical type %q on %s", fieldName, s.LogicalType, s.Type)
		}
	}

	switch s.Type {
	case TypeInt, TypeLong:
		return bigquery.IntegerFieldType, nil
	case TypeFloat, TypeDouble:
		return bigquery.FloatFieldType, nil
	case TypeBoolean:
		return bigquery.BooleanFieldType, nil
	case TypeBytes:
		return bigquery.BytesFieldType, nil
	case TypeString:
		return bigquery.StringFieldType, nil
	case TypeRecord:
		return bigquery.RecordFieldType, nil
	default:
		return "", fmt.Errorf("field %s: unknown primitive %q", fieldName, s.Type)
	}
}

// FieldOf composes name, column type and mode for a single field. Mode is
// REPEATED for arrays, NULLABLE for a two-alternative union containing null,
// otherwise REQUIRED.
func FieldOf(f Field) (*bigquery.FieldSchema, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("source field has no name")
	}

	switch f.Schema.Type {
	case TypeUnion:
		inner, err := nullableBranch(f.Name, f.Schema)
		if err != nil {
			return nil, err
		}
		fs, err := fieldSchemaOf(f.Name, inner)
		if err != nil {
			return nil, err
		}
		fs.Required = false
		return fs, nil

	case TypeArray:
		elem := *f.Schema.Items
		if elem.Type == TypeUnion {
			return nil, fmt.Errorf("field %s: array of union is not supported", f.Name)
		}
		fs, err := fieldSchemaOf(f.Name, elem)
		if err != nil {
			return nil, err
		}
		fs.Repeated = true
		return fs, nil

	default:
		fs, err := fieldSchemaOf(f.Name, f.Schema)
		if err != nil {
			return nil, err
		}
		fs.Required = true
		return fs, nil
	}
}

// fieldSchemaOf builds the type part of a field schema, recursing into
// nested records.
func fieldSchemaOf(name string, s Schema) (*bigquery.FieldSchema, error) {
	bqType, err := typeOf(name, s)
	if err != nil {
		return nil, err
	}

	fs := &bigquery.FieldSchema{Name: name, Type: bqType}

	if s.Type == TypeRecord {
		for _, nested := range s.Fields {
			nfs, err := FieldOf(nested)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", name, err)
			}
			fs.Schema = append(fs.Schema, nfs)
		}
	}

	return fs, nil
}

// nullableBranch validates the null+T union pattern and returns T. An array
// branch is rejected: the warehouse has no nullable repeated mode.
func nullableBranch(fieldName string, s Schema) (Schema, error) {
	if !s.IsNullableUnion() {
		return Schema{}, fmt.Errorf("field %s: union must contain exactly null and one other type", fieldName)
	}
	inner := s.nonNull()
	if inner.Type == TypeArray {
		return Schema{}, fmt.Errorf("field %s: optional array is not supported", fieldName)
	}
	return inner, nil
}
