package shachain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestFirstSecretFromSeedDeterministic(t *testing.T) {
	seed := chainhash.DoubleHashH([]byte("deterministic-seed"))

	first := FirstSecretFromSeed(seed)
	again := FirstSecretFromSeed(seed)
	require.Equal(t, first, again)

	producer := NewRevocationProducer(seed)
	secret, err := producer.AtIndex(0)
	require.NoError(t, err)
	require.Equal(t, [32]byte(*secret), first)
}

func TestFirstSecretFromSeedDiffersPerSeed(t *testing.T) {
	seedA := chainhash.DoubleHashH([]byte("seed-a"))
	seedB := chainhash.DoubleHashH([]byte("seed-b"))

	require.NotEqual(t, FirstSecretFromSeed(seedA), FirstSecretFromSeed(seedB))
}

func TestMaxIndexMatchesBolt3(t *testing.T) {
	require.Equal(t, uint64(281474976710655), MaxIndex)
}
