package redisbridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the JSON document carried over Redis Pub/Sub:
//
//	{"id": "...", "channel": "...", "payload": {...}, "published_at": "2006-01-02T15:04:05Z"}
type Envelope struct {
	ID          uuid.UUID       `json:"id"`
	Channel     string          `json:"channel"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewEnvelope wraps payload, which must marshal to JSON, for channel.
func NewEnvelope(channel string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return Envelope{
		ID:          uuid.New(),
		Channel:     channel,
		Payload:     raw,
		PublishedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode payload of %s: %w", e.ID, err)
	}
	return nil
}

// Marshal encodes the envelope.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope decodes an envelope received on channel. Messages that are
// not envelopes are rejected.
func ParseEnvelope(channel string, data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope on %s: %w", channel, err)
	}
	if e.ID == uuid.Nil {
		return Envelope{}, fmt.Errorf("parse envelope on %s: missing id", channel)
	}
	if e.Channel == "" {
		e.Channel = channel
	}
	return e, nil
}
