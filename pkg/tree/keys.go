package tree

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// KeyGen issues fresh 8-hex-char node keys for one run. Keys combine a
// per-run random seed with a monotonic counter so that two runs never
// collide even if their counters are in lockstep.
type KeyGen struct {
	seed    uint32
	counter uint32
}

// NewKeyGen creates a generator seeded from crypto/rand. Falls back to a
// fixed seed only if the system RNG is unavailable, which never happens in
// practice but keeps the constructor error-free for callers.
func NewKeyGen() *KeyGen {
	var buf [4]byte
	seed := uint32(0x9e3779b9)
	if _, err := rand.Read(buf[:]); err == nil {
		seed = binary.BigEndian.Uint32(buf[:])
	}
	return &KeyGen{seed: seed}
}

// Next returns a fresh 8-hex-char key, unique within this generator's run.
func (g *KeyGen) Next() string {
	g.counter++
	mixed := (g.seed ^ (g.counter * 0x85ebca6b)) + (g.counter << 13)
	return fmt.Sprintf("%08x", mixed)
}
