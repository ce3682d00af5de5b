package model

import (
	"strconv"
	"strings"
	"time"
)

// APIKeyStatus values.
const (
	APIKeyActive  = "active"
	APIKeyRevoked = "revoked"
)

// APIKey is a credential for calling a subscribed model's API.
// The full secret is never held by the portal after it has been revealed once.
type APIKey struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	KeyPrefix      string     `json:"key_prefix"`
	MaskedKey      string     `json:"masked_key"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	ModelID        string     `json:"model_id,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	RegeneratedAt  *time.Time `json:"regenerated_at,omitempty"`
}

// IsActive reports whether the key can be used.
func (k *APIKey) IsActive() bool {
	return k.Status == "" || k.Status == APIKeyActive
}

// MaskKey hides all but the prefix and the last four characters of a key.
func MaskKey(prefix, key string) string {
	tail := key
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	if prefix == "" {
		return strings.Repeat("•", 8) + tail
	}
	return prefix + "_" + strings.Repeat("•", 8) + tail
}

// RegeneratedKey is the one-time reveal returned by a regenerate call.
type RegeneratedKey struct {
	ID            string    `json:"id"`
	Key           string    `json:"key"` // Plaintext - display once only!
	KeyPrefix     string    `json:"key_prefix"`
	MaskedKey     string    `json:"masked_key"`
	RegeneratedAt time.Time `json:"regenerated_at"`
}

// KeyOverlay is the locally stored state of a regenerated key.
type KeyOverlay struct {
	KeyPrefix     string    `json:"key_prefix"`
	MaskedKey     string    `json:"masked_key"`
	KeyHash       string    `json:"-"`
	RegeneratedAt time.Time `json:"regenerated_at"`
}

// CachedKeyOverlay is a KeyOverlay in Redis hash form.
type CachedKeyOverlay struct {
	KeyPrefix     string `redis:"key_prefix"`
	MaskedKey     string `redis:"masked_key"`
	KeyHash       string `redis:"key_hash"`
	RegeneratedAt string `redis:"regenerated_at"` // Unix timestamp
}

// ToCached converts an overlay to its Redis hash form.
func (o *KeyOverlay) ToCached() *CachedKeyOverlay {
	return &CachedKeyOverlay{
		KeyPrefix:     o.KeyPrefix,
		MaskedKey:     o.MaskedKey,
		KeyHash:       o.KeyHash,
		RegeneratedAt: strconv.FormatInt(o.RegeneratedAt.Unix(), 10),
	}
}

// ToOverlay parses a cached overlay. It returns false for an empty hash.
func (c *CachedKeyOverlay) ToOverlay() (*KeyOverlay, bool) {
	if c.KeyPrefix == "" && c.RegeneratedAt == "" {
		return nil, false
	}
	ts, err := strconv.ParseInt(c.RegeneratedAt, 10, 64)
	if err != nil {
		return nil, false
	}
	return &KeyOverlay{
		KeyPrefix:     c.KeyPrefix,
		MaskedKey:     c.MaskedKey,
		KeyHash:       c.KeyHash,
		RegeneratedAt: time.Unix(ts, 0).UTC(),
	}, true
}

// Apply merges the overlay into a key fetched from the backend.
func (o *KeyOverlay) Apply(k APIKey) APIKey {
	k.KeyPrefix = o.KeyPrefix
	k.MaskedKey = o.MaskedKey
	at := o.RegeneratedAt
	k.RegeneratedAt = &at
	return k
}
