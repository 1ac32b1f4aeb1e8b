package avro

import (
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
)

func nullable(s Schema) Schema {
	return Schema{Type: TypeUnion, Union: []Schema{{Type: TypeNull}, s}}
}

func TestBQTypeTable(t *testing.T) {
	tests := []struct {
		name     string
		schema   Schema
		expected bigquery.FieldType
	}{
		{"int", Schema{Type: TypeInt}, bigquery.IntegerFieldType},
		{"long", Schema{Type: TypeLong}, bigquery.IntegerFieldType},
		{"float", Schema{Type: TypeFloat}, bigquery.FloatFieldType},
		{"double", Schema{Type: TypeDouble}, bigquery.FloatFieldType},
		{"boolean", Schema{Type: TypeBoolean}, bigquery.BooleanFieldType},
		{"bytes", Schema{Type: TypeBytes}, bigquery.BytesFieldType},
		{"string", Schema{Type: TypeString}, bigquery.StringFieldType},
		{"date", Schema{Type: TypeInt, LogicalType: LogicalDate}, bigquery.DateFieldType},
		{"timestamp", Schema{Type: TypeLong, LogicalType: LogicalTimestampMillis}, bigquery.TimestampFieldType},
		{"time", Schema{Type: TypeLong, LogicalType: LogicalTimeMicros}, bigquery.TimeFieldType},
		{"decimal", Schema{Type: TypeBytes, LogicalType: LogicalDecimal, Precision: 10, Scale: 2}, bigquery.NumericFieldType},
		{"record", Schema{Type: TypeRecord, Name: "inner"}, bigquery.RecordFieldType},
		{"nullable_string", nullable(Schema{Type: TypeString}), bigquery.StringFieldType},
		{"array_of_long", Schema{Type: TypeArray, Items: &Schema{Type: TypeLong}}, bigquery.IntegerFieldType},
	}

	for _, tt := range tests {
		got, err := BQType(Field{Name: tt.name, Schema: tt.schema})
		if err != nil {
			t.Errorf("BQType(%s) failed: %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("BQType(%s) = %s, want %s", tt.name, got, tt.expected)
		}
	}
}

func TestBQTypeErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   string
	}{
		{"unknown_primitive", Schema{Type: "fixed"}, "unknown primitive"},
		{"unknown_logical", Schema{Type: TypeString, LogicalType: "uuid"}, "unsupported logical type"},
		{"logical_on_wrong_primitive", Schema{Type: TypeLong, LogicalType: LogicalDate}, "unsupported logical type"},
		{"union_without_null", Schema{Type: TypeUnion, Union: []Schema{{Type: TypeInt}, {Type: TypeString}}}, "union"},
		{"union_arity_three", Schema{Type: TypeUnion, Union: []Schema{{Type: TypeNull}, {Type: TypeInt}, {Type: TypeString}}}, "union"},
		{"array_of_union", Schema{Type: TypeArray, Items: &Schema{Type: TypeUnion, Union: []Schema{{Type: TypeNull}, {Type: TypeInt}}}}, "array of union"},
		{"optional_array", nullable(Schema{Type: TypeArray, Items: &Schema{Type: TypeString}}), "optional array"},
	}

	for _, tt := range tests {
		_, err := BQType(Field{Name: tt.name, Schema: tt.schema})
		if err == nil {
			t.Errorf("BQType(%s) expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("BQType(%s) error = %q, want substring %q", tt.name, err, tt.want)
		}
	}
}

func TestFieldOfModes(t *testing.T) {
	tests := []struct {
		name     string
		schema   Schema
		required bool
		repeated bool
	}{
		{"plain", Schema{Type: TypeLong}, true, false},
		{"nullable", nullable(Schema{Type: TypeString}), false, false},
		{"array", Schema{Type: TypeArray, Items: &Schema{Type: TypeString}}, false, true},
	}

	for _, tt := range tests {
		fs, err := FieldOf(Field{Name: tt.name, Schema: tt.schema})
		if err != nil {
			t.Fatalf("FieldOf(%s) failed: %v", tt.name, err)
		}
		if fs.Name != tt.name {
			t.Errorf("FieldOf(%s) name = %q", tt.name, fs.Name)
		}
		if fs.Required != tt.required {
			t.Errorf("FieldOf(%s) required = %v, want %v", tt.name, fs.Required, tt.required)
		}
		if fs.Repeated != tt.repeated {
			t.Errorf("FieldOf(%s) repeated = %v, want %v", tt.name, fs.Repeated, tt.repeated)
		}
	}
}

func TestFieldOfMissingName(t *testing.T) {
	if _, err := FieldOf(Field{Schema: Schema{Type: TypeLong}}); err == nil {
		t.Error("expected error for field without name")
	}
}

func TestFieldOfNestedRecord(t *testing.T) {
	inner := Schema{
		Type: TypeRecord,
		Name: "address",
		Fields: []Field{
			{Name: "street", Schema: Schema{Type: TypeString}},
			{Name: "zip", Schema: nullable(Schema{Type: TypeString})},
		},
	}

	fs, err := FieldOf(Field{Name: "address", Schema: inner})
	if err != nil {
		t.Fatalf("FieldOf failed: %v", err)
	}
	if fs.Type != bigquery.RecordFieldType {
		t.Fatalf("type = %s, want RECORD", fs.Type)
	}
	if len(fs.Schema) != 2 {
		t.Fatalf("nested fields = %d, want 2", len(fs.Schema))
	}
	if !fs.Schema[0].Required {
		t.Error("street should be REQUIRED")
	}
	if fs.Schema[1].Required {
		t.Error("zip should be NULLABLE")
	}
}
