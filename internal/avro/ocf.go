package avro

import (
	"fmt"
	"io"

	"github.com/linkedin/goavro/v2"
)

// SchemaFromOCF parses the header of an Avro object container file and
// returns the embedded writer schema. Only the header is consumed; record
// blocks are left to the warehouse's server-side ingest.
func SchemaFromOCF(r io.Reader) (Schema, error) {
	ocfr, err := goavro.NewOCFReader(r)
	if err != nil {
		return Schema{}, fmt.Errorf("parse container header: %w", err)
	}

	s, err := ParseSchema([]byte(ocfr.Codec().Schema()))
	if err != nil {
		return Schema{}, fmt.Errorf("parse embedded schema: %w", err)
	}
	return s, nil
}
