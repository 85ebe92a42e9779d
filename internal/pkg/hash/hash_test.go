package hash

import (
	"errors"
	"strings"
	"testing"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("secret")

	digest, err := h.Hash("483920")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest length = %d, want 64", len(digest))
	}

	if !h.Verify(string(digest), "483920") {
		t.Fatal("expected matching code to verify")
	}
	if h.Verify(string(digest), "483921") {
		t.Fatal("expected different code to fail")
	}
	if NewHMACSHA256("other").Verify(string(digest), "483920") {
		t.Fatal("expected different secret to fail")
	}
}

func TestHMACSHA256Rotation(t *testing.T) {
	old := NewHMACSHA256("old-secret")
	digest, err := old.Hash("483920")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	rotated := NewHMACSHA256("new-secret", "old-secret", "")

	// Assert
	if !rotated.Verify(string(digest), "483920") {
		t.Fatal("expected digest from previous secret to verify")
	}
	fresh, _ := rotated.Hash("483920")
	if string(fresh) == string(digest) {
		t.Fatal("expected Hash to use the current secret")
	}
	if NewHMACSHA256("new-secret").Verify(string(digest), "483920") {
		t.Fatal("expected digest from retired secret to fail once dropped")
	}
}

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(4, "pepper")

	hashed, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !h.Verify(string(hashed), "correct horse") {
		t.Fatal("expected password to verify")
	}
	if h.Verify(string(hashed), "wrong horse") {
		t.Fatal("expected wrong password to fail")
	}
	if NewBcrypt(4, "").Verify(string(hashed), "correct horse") {
		t.Fatal("expected missing pepper to fail")
	}
}

func TestBcryptLongPasswordWithPepper(t *testing.T) {
	h := NewBcrypt(4, strings.Repeat("p", 64))
	long := strings.Repeat("a", 72)

	hashed, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h.Verify(string(hashed), long[:71]+"b") {
		t.Fatal("expected a different final byte to fail")
	}
}

func TestArgon2id(t *testing.T) {
	h := NewArgon2id(Argon2idConfig{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, MaxConcurrent: 1, Pepper: "pepper"})

	hashed, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(string(hashed), "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hashed)
	}

	tests := []struct {
		name   string
		hasher *Argon2id
		hashed string
		plain  string
		want   bool
	}{
		{name: "match", hasher: h, hashed: string(hashed), plain: "correct horse", want: true},
		{name: "wrong password", hasher: h, hashed: string(hashed), plain: "wrong horse"},
		{name: "empty password", hasher: h, hashed: string(hashed), plain: ""},
		{name: "missing pepper", hasher: NewArgon2id(Argon2idConfig{}), hashed: string(hashed), plain: "correct horse"},
		{
			name:   "older cost settings still verify",
			hasher: NewArgon2id(Argon2idConfig{MemoryKiB: 4096, Iterations: 2, Pepper: "pepper"}),
			hashed: string(hashed),
			plain:  "correct horse",
			want:   true,
		},
		{name: "truncated", hasher: h, hashed: string(hashed[:20]), plain: "correct horse"},
		{name: "bcrypt digest", hasher: h, hashed: "$2a$04$abcdefghijklmnopqrstuv", plain: "correct horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hasher.Verify(tt.hashed, tt.plain); got != tt.want {
				t.Fatalf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordVerifiesBothAlgorithms(t *testing.T) {
	// Arrange
	argon := NewArgon2id(Argon2idConfig{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
	bc := NewBcrypt(4, "")
	legacy, err := bc.Hash("s3cret!")
	if err != nil {
		t.Fatalf("bcrypt Hash() error = %v", err)
	}

	p, err := NewPassword(AlgorithmArgon2id, argon, bc)
	if err != nil {
		t.Fatalf("NewPassword() error = %v", err)
	}

	// Act
	fresh, err := p.Hash("s3cret!")

	// Assert
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(string(fresh), argon2idPrefix) {
		t.Fatalf("new hash %q is not argon2id", fresh)
	}
	if !p.Verify(string(fresh), "s3cret!") || !p.Verify(string(legacy), "s3cret!") {
		t.Fatal("expected both digests to verify")
	}
	if p.Verify(string(legacy), "other") || p.Verify("plain-text", "plain-text") {
		t.Fatal("expected mismatches to fail")
	}
}

func TestNewPasswordUnknownAlgorithm(t *testing.T) {
	if _, err := NewPassword("md5", nil, nil); !errors.Is(err, ErrUnknownPasswordAlgorithm) {
		t.Fatalf("NewPassword() error = %v, want %v", err, ErrUnknownPasswordAlgorithm)
	}
}
