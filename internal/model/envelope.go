// Package model defines domain entities for the application.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Envelope is the response wrapper used by the marketplace backend.
type Envelope[T any] struct {
	Data      T              `json:"data"`
	Message   string         `json:"message,omitempty"`
	Success   bool           `json:"success"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp Timestamp      `json:"timestamp"`
}

// NewEnvelope wraps data in a successful envelope stamped with the current time.
func NewEnvelope[T any](data T) Envelope[T] {
	return Envelope[T]{
		Data:      data,
		Success:   true,
		Timestamp: Timestamp{Time: time.Now().UTC()},
	}
}

// Timestamp is the envelope's informational time. It accepts RFC 3339
// strings, "YYYY-MM-DD HH:MM:SS" strings and epoch milliseconds; anything
// else decodes to the zero time instead of failing the response.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] != '"' {
		if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}
