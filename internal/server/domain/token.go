package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// tokenAlphabet leaves out 0, 1, l and o so tokens survive being read
// aloud or retyped from a printed invite. 32 characters, so sampling a
// byte modulo the alphabet stays uniform.
const tokenAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

const TokenLength = 12

// NewToken draws a fresh invite token from rnd. Tokens are URL-safe and
// independent per call; uniqueness at event scale comes from the 60 bits
// of entropy, with the store's unique key as the backstop.
func NewToken(rnd io.Reader) (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

type qrPayload struct {
	T string `json:"t"`
}

// QRPayload is the canonical content of an invite QR code.
func QRPayload(token string) string {
	b, _ := json.Marshal(qrPayload{T: token})
	return string(b)
}

// NormalizeToken is applied at every boundary that accepts a token from
// outside: scanner payloads, request bodies, URL paths and manual entry.
// It accepts a bare token, a full verification URL, or the QR JSON
// payload, and strips everything a token cannot contain.
func NormalizeToken(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") {
		var p qrPayload
		if err := json.Unmarshal([]byte(s), &p); err == nil && p.T != "" {
			s = p.T
		}
	}
	if i := strings.LastIndex(s, "/verify/"); i >= 0 {
		s = s[i+len("/verify/"):]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
