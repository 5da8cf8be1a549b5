// Package random provides seeding helpers for the sequencer's
// pseudo-random sources.
//
// Seeds come from crypto/rand so two overlays opened in the same instant
// still scatter differently; a fixed seed reproduces a run exactly.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// New returns a generator seeded from seed. The same seed yields the same
// sequence of draws.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom returns a generator with a fresh crypto seed, falling back to
// the runtime's global source when crypto/rand is unavailable.
func NewRandom() *rand.Rand {
	seed, err := NewSeed()
	if err != nil {
		seed = rand.Uint64()
	}
	return New(seed)
}
