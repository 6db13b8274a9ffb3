package shachain

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Producer is the interface implemented by a shachain secret generator: a
// type able to produce the secret for any commitment index from a single
// seed, per BOLT #3's "efficient per-commitment secret" scheme.
type Producer interface {
	// AtIndex returns the shachain secret for commitment index n.
	AtIndex(n uint64) (*chainhash.Hash, error)
}

// RevocationProducer generates shachain secrets from a single 32-byte seed.
// The seed is treated as the hash of the virtual root element at index 0;
// every other index is derived from it by flipping and re-hashing the bits
// that differ between the root index and the target index.
type RevocationProducer struct {
	root element
}

// A compile time check to ensure RevocationProducer implements the Producer
// interface.
var _ Producer = (*RevocationProducer)(nil)

// NewRevocationProducer creates a producer seeded with the given 32-byte
// secret. The seed itself is never revealed to a channel peer; only the
// secrets it produces are.
func NewRevocationProducer(seed chainhash.Hash) *RevocationProducer {
	return &RevocationProducer{
		root: element{
			index: rootIndex,
			hash:  seed,
		},
	}
}

// AtIndex derives the secret for commitment number n, counting up from 0.
// Commitment n uses BOLT #3 shachain index MaxIndex-n, so the first
// commitment (n = 0) gets index MaxIndex and the last (n = MaxIndex) gets
// index 0.
func (p *RevocationProducer) AtIndex(n uint64) (*chainhash.Hash, error) {
	e, err := p.root.derive(newIndex(n))
	if err != nil {
		return nil, err
	}

	return &e.hash, nil
}

// FirstSecretFromSeed derives the per-commitment secret a channel uses for
// its very first commitment transaction (commitment number 0, BOLT #3
// shachain index MaxIndex) directly from the raw 32-byte seed.
func FirstSecretFromSeed(seed [32]byte) [32]byte {
	producer := NewRevocationProducer(chainhash.Hash(seed))

	secret, err := producer.AtIndex(0)
	if err != nil {
		// AtIndex(0) derives from the root index, which is always
		// derivable to any other index; this can never fail.
		panic(err)
	}

	return *secret
}
