package secrets

import (
	"strings"
	"testing"
)

func TestSealRoundTrip(t *testing.T) {
	s, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	sealed, err := s.Seal("platform-token-xyz")
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if strings.Contains(sealed, "platform-token") {
		t.Error("sealed value leaks plaintext")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if got != "platform-token-xyz" {
		t.Errorf("Open() = %q, want original plaintext", got)
	}
}

func TestSealNonDeterministic(t *testing.T) {
	s, err := New([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	a, _ := s.Seal("same input")
	b, _ := s.Seal("same input")
	if a == b {
		t.Error("two seals of the same plaintext produced identical ciphertext")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := s.Open("bm90LXZhbGlk"); err == nil {
		t.Error("Open() accepted garbage ciphertext")
	}
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Error("New() accepted a 5-byte key")
	}
}
