// Package notify decodes and validates Pub/Sub push notifications for
// object-finalize events.
package notify

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/withObsrvr/obsrvr-avro-bridge/internal/storage"
)

// Envelope is the Pub/Sub push wrapper carrying exactly one message.
type Envelope struct {
	Message *Message `json:"message"`
}

// Message is the pushed Pub/Sub message. Data is base64-encoded JSON.
type Message struct {
	MessageID   string `json:"messageId"`
	PublishTime string `json:"publishTime"`
	Data        string `json:"data"`
}

// Validation failures. The error text is the exact client-facing response
// body, so don't reword these.
var (
	ErrInvalidEnvelope   = errors.New("Bad Request: invalid Pub/Sub message format")
	ErrInvalidData       = errors.New("Error: Invalid Pub/Sub message: data property is not valid base64 encoded JSON")
	ErrMissingAttributes = errors.New("Error: Invalid Cloud Storage notification: expected name and bucket properties")
)

// Parse validates the notification envelope and extracts the object
// reference. Validation short-circuits on the first failure.
func Parse(body []byte) (storage.ObjectRef, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == nil {
		return storage.ObjectRef{}, ErrInvalidEnvelope
	}

	raw, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return storage.ObjectRef{}, ErrInvalidData
	}

	var attrs struct {
		Name       *string     `json:"name"`
		Bucket     *string     `json:"bucket"`
		Generation interface{} `json:"generation"`
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return storage.ObjectRef{}, ErrInvalidData
	}

	if attrs.Name == nil || attrs.Bucket == nil {
		return storage.ObjectRef{}, ErrMissingAttributes
	}

	return storage.ObjectRef{
		Bucket:     *attrs.Bucket,
		Name:       *attrs.Name,
		Generation: parseGeneration(attrs.Generation),
	}, nil
}

// parseGeneration accepts the generation as a JSON number or a numeric
// string (GCS notifications stringify int64s). Absent or unparsable means
// latest.
func parseGeneration(v interface{}) int64 {
	switch g := v.(type) {
	case json.Number:
		n, err := g.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
