package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Envelope is the transport-level wrapper around every message exchanged
// between stages. Data holds the base64-encoded JSON payload.
type Envelope struct {
	Data        string `json:"data"`
	MessageID   string `json:"messageId,omitempty"`
	PublishTime string `json:"publishTime,omitempty"`
}

// WrapPayload marshals msg and wraps it into an encoded envelope.
func WrapPayload(msg interface{}, messageID string, publishedAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	env := Envelope{
		Data:        base64.StdEncoding.EncodeToString(payload),
		MessageID:   messageID,
		PublishTime: publishedAt.UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return body, nil
}

// Payload is the decoded content of an envelope, kept as raw fields so
// presence can be checked before decoding into a typed message.
type Payload struct {
	raw    []byte
	fields map[string]json.RawMessage
}

// OpenEnvelope decodes an envelope and its base64 JSON payload.
func OpenEnvelope(body []byte) (*Payload, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, &MalformedEnvelopeError{Reason: "envelope is not a JSON object", Err: err}
	}
	data, ok := outer[FieldData]
	if !ok || isNull(data) {
		return nil, &MalformedEnvelopeError{Reason: "data field is missing"}
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, &MalformedEnvelopeError{Reason: "data field is not a string", Err: err}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &MalformedEnvelopeError{Reason: "data field is not valid base64", Err: err}
	}

	return parsePayload(raw)
}

func parsePayload(raw []byte) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &MalformedEnvelopeError{Reason: "payload is not a JSON object", Err: err}
	}
	if fields == nil {
		return nil, &MalformedEnvelopeError{Reason: "payload is null"}
	}
	return &Payload{raw: raw, fields: fields}, nil
}

// Require checks the named fields in order and returns a
// *MissingFieldError for the first one that is absent or null.
func (p *Payload) Require(names ...string) error {
	for _, name := range names {
		v, ok := p.fields[name]
		if !ok || isNull(v) {
			return &MissingFieldError{Field: name}
		}
	}
	return nil
}

// Decode unmarshals the whole payload into v.
func (p *Payload) Decode(v interface{}) error {
	if err := json.Unmarshal(p.raw, v); err != nil {
		return &MalformedEnvelopeError{Reason: "payload has unexpected field types", Err: err}
	}
	return nil
}

// DecodeExtracted opens an envelope carrying an ExtractedMessage and
// validates its required fields.
func DecodeExtracted(body []byte) (ExtractedMessage, error) {
	var msg ExtractedMessage
	p, err := OpenEnvelope(body)
	if err != nil {
		return msg, err
	}
	if err := p.Require(FieldText, FieldFilename, FieldSourceLang, FieldTargetLangs); err != nil {
		return msg, err
	}
	if err := p.Decode(&msg); err != nil {
		return msg, err
	}
	if len(msg.TargetLangs) == 0 {
		return msg, &MissingFieldError{Field: FieldTargetLangs}
	}
	return msg, nil
}

// DecodeTranslated opens an envelope carrying a TranslatedMessage and
// validates its required fields.
func DecodeTranslated(body []byte) (TranslatedMessage, error) {
	var msg TranslatedMessage
	p, err := OpenEnvelope(body)
	if err != nil {
		return msg, err
	}
	if err := p.Require(FieldText, FieldFilename); err != nil {
		return msg, err
	}
	if err := p.Decode(&msg); err != nil {
		return msg, err
	}
	return msg, nil
}

type s3Notification struct {
	Event   string     `json:"Event"`
	Records []s3Record `json:"Records"`
}

type s3Record struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// DecodeStorageEvents reads an object-created notification. Both the flat
// {"bucket", "name"} form and S3/MinIO notification records are accepted.
// A test notification yields no events.
func DecodeStorageEvents(body []byte) ([]StorageEvent, error) {
	var n s3Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, &MalformedEnvelopeError{Reason: "storage notification is not a JSON object", Err: err}
	}
	if n.Event == s3TestEvent {
		return nil, nil
	}

	if len(n.Records) > 0 {
		events := make([]StorageEvent, 0, len(n.Records))
		for _, r := range n.Records {
			if r.S3.Bucket.Name == "" {
				return nil, &MissingFieldError{Field: FieldBucket}
			}
			if r.S3.Object.Key == "" {
				return nil, &MissingFieldError{Field: FieldName}
			}
			key, err := url.QueryUnescape(r.S3.Object.Key)
			if err != nil {
				return nil, &MalformedEnvelopeError{Reason: "object key is not URL-encoded", Err: err}
			}
			events = append(events, StorageEvent{Bucket: r.S3.Bucket.Name, Name: key})
		}
		return events, nil
	}

	p, err := parsePayload(body)
	if err != nil {
		return nil, err
	}
	if err := p.Require(FieldBucket, FieldName); err != nil {
		return nil, err
	}
	var ev StorageEvent
	if err := p.Decode(&ev); err != nil {
		return nil, err
	}
	return []StorageEvent{ev}, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
