package uid

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSnowflakeGenerateIsIncreasing(t *testing.T) {
	sf, err := NewSnowflake()
	if err != nil {
		t.Skipf("no stable node identity: %v", err)
	}

	prev := sf.Generate()
	for range 1000 {
		next := sf.Generate()
		if next <= prev {
			t.Fatalf("expected increasing ids, got %d after %d", next, prev)
		}
		prev = next
	}
}

func TestUUIDGenerate(t *testing.T) {
	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}

func TestTokenGenerate(t *testing.T) {
	g := NewToken()

	re := regexp.MustCompile(`^[0-9a-f]{64}$`)
	seen := make(map[string]struct{})
	for range 100 {
		id := g.Generate()
		if !re.MatchString(id) {
			t.Fatalf("unexpected format %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate token %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTokenGenerateIsTimePrefixed(t *testing.T) {
	// Arrange
	at := time.UnixMilli(1_700_000_000_000)
	g := NewToken()
	g.now = func() time.Time { return at }

	// Act
	first := g.Generate()
	second := g.Generate()

	// Assert
	if first[:12] != second[:12] {
		t.Fatalf("timestamp prefix differs: %q vs %q", first[:12], second[:12])
	}
	if first[12:16] == second[12:16] {
		t.Fatalf("sequence did not advance: %q", first[12:16])
	}
	if first[16:] == second[16:] {
		t.Fatal("random tail repeated")
	}
}
