package notify

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
)

func envelope(inner string) []byte {
	data := base64.StdEncoding.EncodeToString([]byte(inner))
	return []byte(fmt.Sprintf(`{"message":{"messageId":"1","publishTime":"2021-03-04T00:00:00Z","data":"%s"}}`, data))
}

func TestParseHappyPath(t *testing.T) {
	ref, err := Parse(envelope(`{"name":"client1.avro","bucket":"b","generation":1}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ref.Bucket != "b" || ref.Name != "client1.avro" || ref.Generation != 1 {
		t.Errorf("ref = %+v", ref)
	}
}

// GCS push notifications carry generation as a decimal string.
func TestParseGenerationString(t *testing.T) {
	ref, err := Parse(envelope(`{"name":"x","bucket":"b","generation":"1614855967123456"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ref.Generation != 1614855967123456 {
		t.Errorf("generation = %d", ref.Generation)
	}
}

func TestParseGenerationAbsent(t *testing.T) {
	ref, err := Parse(envelope(`{"name":"x","bucket":"b"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ref.Generation != 0 {
		t.Errorf("generation = %d, want 0 (latest)", ref.Generation)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"empty_object", []byte(`{}`), ErrInvalidEnvelope},
		{"not_json", []byte(`nope`), ErrInvalidEnvelope},
		{"null_message", []byte(`{"message":null}`), ErrInvalidEnvelope},
		{"bad_base64", []byte(`{"message":{"messageId":"1","data":"not-base64!!"}}`), ErrInvalidData},
		{"data_not_json", []byte(fmt.Sprintf(`{"message":{"data":"%s"}}`, base64.StdEncoding.EncodeToString([]byte("hello")))), ErrInvalidData},
		{"missing_bucket", envelope(`{"name":"x","generation":1}`), ErrMissingAttributes},
		{"missing_name", envelope(`{"bucket":"b","generation":1}`), ErrMissingAttributes},
		{"null_name", envelope(`{"name":null,"bucket":"b"}`), ErrMissingAttributes},
		{"null_bucket", envelope(`{"name":"x","bucket":null}`), ErrMissingAttributes},
	}

	for _, tt := range tests {
		_, err := Parse(tt.body)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%s) = %v, want %v", tt.name, err, tt.want)
		}
	}
}

// The validation errors double as HTTP response bodies; their wording is part
// of the contract with the push subscription.
func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidEnvelope, "Bad Request: invalid Pub/Sub message format"},
		{ErrInvalidData, "Error: Invalid Pub/Sub message: data property is not valid base64 encoded JSON"},
		{ErrMissingAttributes, "Error: Invalid Cloud Storage notification: expected name and bucket properties"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("message = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}
