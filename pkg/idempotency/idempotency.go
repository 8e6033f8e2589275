// Package idempotency generates the client-side keys attached to mutating
// requests (deduplication) and to every request (trace correlation).
package idempotency

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewKey returns a collision-resistant idempotency key, optionally qualified
// by a prefix such as "mp:order:create". The key is a cryptographically
// strong random UUID; it is safe to use verbatim as the server-side
// deduplication key for a retried write.
func NewKey(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + ":" + uuid.NewString()
}

// NewRequestID returns a trace-correlation id. Uniqueness requirements are
// weaker than NewKey's: a timestamp plus random hex is enough to pair a
// request with its server-side log line.
func NewRequestID(prefix string) string {
	if prefix == "" {
		prefix = "go"
	}
	var b [6]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}

// MustUUIDv4 constructs an RFC 4122 version-4 UUID directly from the strong
// random source, setting the version and variant bits by hand. It panics if
// the source is unavailable: the write paths relying on it must not silently
// degrade to a weaker key.
func MustUUIDv4() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("idempotency: no strong random source: %v", err))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	h := hex.EncodeToString(b[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:])
}
