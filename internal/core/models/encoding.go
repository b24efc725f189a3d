package models

import (
	"encoding/hex"
	"fmt"
)

// EncodingSize ist die Länge einer Kodierung in Bytes (SHA-256)
const EncodingSize = 32

// Encoding ist der exakte Suchschlüssel, abgeleitet aus einem normalisierten Gesichtsbild
type Encoding [EncodingSize]byte

// String liefert die Hex-Form in Kleinbuchstaben, wie sie in der Registry steht
func (e Encoding) String() string {
	return hex.EncodeToString(e[:])
}

// IsZero meldet, ob e nie gesetzt wurde
func (e Encoding) IsZero() bool {
	return e == Encoding{}
}

// ParseEncoding liest die Hex-Form einer Kodierung
func ParseEncoding(s string) (Encoding, error) {
	var e Encoding
	if len(s) != hex.EncodedLen(EncodingSize) {
		return e, fmt.Errorf("invalid encoding length %d, want %d", len(s), hex.EncodedLen(EncodingSize))
	}
	if _, err := hex.Decode(e[:], []byte(s)); err != nil {
		return e, fmt.Errorf("invalid encoding %q: %w", s, err)
	}
	return e, nil
}
