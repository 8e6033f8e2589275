package idempotency

import (
	"strings"
	"testing"
)

func TestNewKey_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		seen[NewKey("mp:order:create")] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct keys, got %d", n, len(seen))
	}
}

func TestNewKey_Prefix(t *testing.T) {
	k := NewKey("mp:booking:create")
	if !strings.HasPrefix(k, "mp:booking:create:") {
		t.Fatalf("prefix not applied: %q", k)
	}
	if NewKey("") == "" {
		t.Fatalf("empty prefix must still produce a key")
	}
}

func TestNewRequestID_Shape(t *testing.T) {
	id := NewRequestID("mp")
	if !strings.HasPrefix(id, "mp-") {
		t.Fatalf("prefix not applied: %q", id)
	}
	if id == NewRequestID("mp") {
		t.Fatalf("two ids in the same tick collided")
	}
}

func TestMustUUIDv4_Bits(t *testing.T) {
	u := MustUUIDv4()
	// 8-4-4-4-12 layout with version and variant bits set.
	parts := strings.Split(u, "-")
	if len(parts) != 5 {
		t.Fatalf("not a uuid: %q", u)
	}
	if parts[2][0] != '4' {
		t.Fatalf("version nibble not 4: %q", u)
	}
	switch parts[3][0] {
	case '8', '9', 'a', 'b':
	default:
		t.Fatalf("variant bits not RFC 4122: %q", u)
	}
}

func TestMustUUIDv4_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		seen[MustUUIDv4()] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct uuids, got %d", n, len(seen))
	}
}
