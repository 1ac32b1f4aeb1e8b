package avro

import (
	"fmt"

	"cloud.google.com/go/bigquery"
)

// Project derives a BigQuery schema from a record schema, preserving source
// field order. With requiredOnly set it drops top-level fields whose source
// type is a nullable union and emits every retained scalar field as REQUIRED.
// Nested records are passed through whole; the required-only filter does not
// recurse into them. Array fields are always retained as REPEATED.
func Project(s Schema, requiredOnly bool) (bigquery.Schema, error) {
	if s.Type != TypeRecord {
		return nil, fmt.Errorf("expected record schema, got %q", s.Type)
	}

	var out bigquery.Schema

	for _, f := range s.Fields {
		if requiredOnly && f.Schema.IsNullableUnion() {
			continue
		}

		fs, err := FieldOf(f)
		if err != nil {
			return nil, err
		}

		if requiredOnly && !fs.Repeated {
			fs.Required = true
		}

		out = append(out, fs)
	}

	return out, nil
}
