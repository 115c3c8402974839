package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Commitment is the secret half of a dice commit-reveal. The hash goes out
// with the commit; the secret goes out with the reveal.
type Commitment struct {
	Secret *uint256.Int
	Hash   [32]byte
}

// NewCommitment draws a fresh 256-bit secret.
func NewCommitment() (*Commitment, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("draw secret: %w", err)
	}
	return CommitmentFor(new(uint256.Int).SetBytes32(buf[:])), nil
}

// CommitmentFor hashes a known secret: keccak256 over its 32-byte big-endian
// word, the same packing the program uses for a uint256.
func CommitmentFor(secret *uint256.Int) *Commitment {
	word := secret.Bytes32()
	h := sha3.NewLegacyKeccak256()
	h.Write(word[:])
	c := &Commitment{Secret: new(uint256.Int).Set(secret)}
	copy(c.Hash[:], h.Sum(nil))
	return c
}

// HashHex is the commit hash as 0x-prefixed hex.
func (c *Commitment) HashHex() string {
	return "0x" + hex.EncodeToString(c.Hash[:])
}

// SecretDecimal is the secret in base 10, as the reveal call expects.
func (c *Commitment) SecretDecimal() string {
	return c.Secret.Dec()
}
