package avro

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
)

// Converter translates goavro-decoded records into BigQuery row maps. It is
// only needed when a load materializes rows client-side; the file ingest path
// never decodes records.
type Converter struct {
	schema Schema
	fields map[string]Schema
}

// NewConverter builds a converter for the given source record schema.
func NewConverter(s Schema) (*Converter, error) {
	if s.Type != TypeRecord {
		return nil, fmt.Errorf("expected record schema, got %q", s.Type)
	}

	fields := make(map[string]Schema, len(s.Fields))
	for _, f := range s.Fields {
		fields[f.Name] = f.Schema
	}

	return &Converter{schema: s, fields: fields}, nil
}

// Row converts one decoded record against a target BigQuery schema. Null
// values are omitted from the output entirely.
func (c *Converter) Row(rec map[string]interface{}, schema bigquery.Schema) (map[string]bigquery.Value, error) {
	row := make(map[string]bigquery.Value, len(schema))

	for _, fs := range schema {
		src, ok := c.fields[fs.Name]
		if !ok {
			return nil, fmt.Errorf("field %s not present in source schema", fs.Name)
		}

		v := rec[fs.Name]

		switch {
		case fs.Repeated:
			elems, err := c.convertRepeated(fs, src, v)
			if err != nil {
				return nil, err
			}
			row[fs.Name] = elems

		case src.Type == TypeUnion:
			if v == nil {
				continue
			}
			inner := unwrapUnion(v)
			if inner == nil {
				continue
			}
			cv, err := c.convertValue(fs, src.nonNull(), inner)
			if err != nil {
				return nil, err
			}
			row[fs.Name] = cv

		default:
			if v == nil {
				return nil, fmt.Errorf("required field %s is null", fs.Name)
			}
			cv, err := c.convertValue(fs, src, v)
			if err != nil {
				return nil, err
			}
			row[fs.Name] = cv
		}
	}

	return row, nil
}

func (c *Converter) convertRepeated(fs *bigquery.FieldSchema, src Schema, v interface{}) ([]bigquery.Value, error) {
	// An absent repeated field becomes an empty list.
	if v == nil {
		return []bigquery.Value{}, nil
	}

	elems, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %s: expected array, got %T", fs.Name, v)
	}

	out := make([]bigquery.Value, 0, len(elems))
	for _, elem := range elems {
		cv, err := c.convertValue(fs, *src.Items, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

func (c *Converter) convertValue(fs *bigquery.FieldSchema, src Schema, v interface{}) (bigquery.Value, error) {
	switch fs.Type {
	case bigquery.TimestampFieldType:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("field %s: expected time.Time for TIMESTAMP, got %T", fs.Name, v)
		}
		return formatTimestamp(t), nil

	case bigquery.DateFieldType:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("field %s: expected time.Time for DATE, got %T", fs.Name, v)
		}
		return t.UTC().Format("2006-01-02"), nil

	case bigquery.TimeFieldType:
		d, ok := v.(time.Duration)
		if !ok {
			return nil, fmt.Errorf("field %s: expected time.Duration for TIME, got %T", fs.Name, v)
		}
		return formatTime(d.Microseconds()), nil

	case bigquery.NumericFieldType:
		rat, ok := v.(*big.Rat)
		if !ok {
			return nil, fmt.Errorf("field %s: expected *big.Rat for NUMERIC, got %T", fs.Name, v)
		}
		return rat.FloatString(src.Scale), nil

	case bigquery.BytesFieldType:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("field %s: expected bytes, got %T", fs.Name, v)
		}
		return base64.StdEncoding.EncodeToString(b), nil

	case bigquery.StringFieldType:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected string, got %T", fs.Name, v)
		}
		return s, nil

	case bigquery.IntegerFieldType:
		switch n := v.(type) {
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
		return nil, fmt.Errorf("field %s: expected integer, got %T", fs.Name, v)

	case bigquery.FloatFieldType:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
		return nil, fmt.Errorf("field %s: expected float, got %T", fs.Name, v)

	case bigquery.BooleanFieldType:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("field %s: expected bool, got %T", fs.Name, v)
		}
		return b, nil

	case bigquery.RecordFieldType:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %s: expected record, got %T", fs.Name, v)
		}
		nested, err := NewConverter(src)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fs.Name, err)
		}
		return nested.Row(m, fs.Schema)

	default:
		return nil, fmt.Errorf("field %s: unsupported BigQuery type %s", fs.Name, fs.Type)
	}
}

// unwrapUnion strips the single-entry map goavro uses for non-null union
// values.
func unwrapUnion(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return v
	}
	for _, inner := range m {
		return inner
	}
	return v
}

// formatTimestamp renders a TIMESTAMP the way BigQuery's JSON export does.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

// formatTime renders microseconds-since-midnight, choosing second,
// millisecond or microsecond precision by divisibility.
func formatTime(micros int64) string {
	secs := micros / 1_000_000
	frac := micros % 1_000_000
	h, m, s := secs/3600, (secs/60)%60, secs%60

	switch {
	case micros%1_000_000 == 0:
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	case micros%1_000 == 0:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac/1_000)
	default:
		return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, frac)
	}
}
