package domain

import (
	"crypto/rand"
	"strings"
	"testing"
)

func TestNewTokenShape(t *testing.T) {
	tok, err := NewToken(rand.Reader)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if len(tok) != TokenLength {
		t.Fatalf("token length = %d, want %d", len(tok), TokenLength)
	}
	for _, r := range tok {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Fatalf("token %q contains %q outside the alphabet", tok, r)
		}
	}
}

func TestNewTokenUniqueness(t *testing.T) {
	const n = 20000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		tok, err := NewToken(rand.Reader)
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if _, ok := seen[tok]; ok {
			t.Fatalf("duplicate token %q after %d draws", tok, i)
		}
		seen[tok] = struct{}{}
	}
}

func TestQRPayload(t *testing.T) {
	got := QRPayload("abcd2345wxyz")
	want := `{"t":"abcd2345wxyz"}`
	if got != want {
		t.Fatalf("QRPayload = %q, want %q", got, want)
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "abcd2345wxyz", "abcd2345wxyz"},
		{"whitespace", "  abcd2345wxyz \n", "abcd2345wxyz"},
		{"verify url", "https://invites.example.com/verify/abcd2345wxyz", "abcd2345wxyz"},
		{"verify url with query", "https://invites.example.com/verify/abcd2345wxyz?mark=1", "abcd2345wxyz"},
		{"qr json payload", `{"t":"abcd2345wxyz"}`, "abcd2345wxyz"},
		{"stray punctuation", "abcd-2345_wxyz!", "abcd-2345_wxyz"},
		{"empty", "", ""},
		{"only junk", "?!#%", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeToken(tt.in); got != tt.want {
				t.Fatalf("NormalizeToken(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTokenIdempotent(t *testing.T) {
	in := `{"t":"abcd2345wxyz"}`
	once := NormalizeToken(in)
	if twice := NormalizeToken(once); twice != once {
		t.Fatalf("normalizing twice changed the token: %q -> %q", once, twice)
	}
}
