package dump

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/boundc/internal/bound"
)

// Domain prefixes for content hashes. The version suffix allows the
// snapshot shape to change without colliding with older hashes.
const (
	DomainTree    = "boundc/tree/v1"
	DomainRoutine = "boundc/routine/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a snapshot value.
func Hash(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// TreeHash returns the content hash of a whole bound unit. Two bindings
// of the same source against the same library produce the same hash.
func TreeHash(u *bound.Unit) (string, error) {
	v, err := Unit(u)
	if err != nil {
		return "", err
	}
	return Hash(DomainTree, v)
}

// RoutineHash returns the content hash of one routine.
func RoutineHash(r *bound.Routine) (string, error) {
	v, err := Routine(r)
	if err != nil {
		return "", err
	}
	return Hash(DomainRoutine, v)
}
