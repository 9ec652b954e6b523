package tabula

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// DefaultIDLength is the number of hex characters after the prefix of a
// generated identifier.
const DefaultIDLength = 13

// IDGenerator creates identifiers for records written without one.
type IDGenerator interface {
	NewID(prefix string) (string, error)
}

// GenerateID returns prefix followed by length random hex characters read
// from crypto/rand. A length <= 0 means DefaultIDLength.
func GenerateID(prefix string, length int) (string, error) {
	return HexIDs{Length: length}.NewID(prefix)
}

// HexIDs generates prefix + hex(random bytes) identifiers. It is the
// default IDGenerator.
type HexIDs struct {
	// Length of the hex suffix. Zero means DefaultIDLength.
	Length int
	// Rand overrides the random source. Nil means crypto/rand.Reader;
	// only tests should set it.
	Rand io.Reader
}

// NewID implements IDGenerator.
func (g HexIDs) NewID(prefix string) (string, error) {
	n := g.Length
	if n <= 0 {
		n = DefaultIDLength
	}
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, (n+1)/2)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return prefix + hex.EncodeToString(b)[:n], nil
}

// UUIDs generates prefix + random (version 4) UUID identifiers.
type UUIDs struct{}

// NewID implements IDGenerator.
func (UUIDs) NewID(prefix string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return prefix + id.String(), nil
}
