package input

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func randCompressedPubKey(t *testing.T) []byte {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return priv.PubKey().SerializeCompressed()
}

func TestGenMultiSigScriptSortsKeys(t *testing.T) {
	aPub := randCompressedPubKey(t)
	bPub := randCompressedPubKey(t)

	script1, err := GenMultiSigScript(aPub, bPub)
	require.NoError(t, err)

	script2, err := GenMultiSigScript(bPub, aPub)
	require.NoError(t, err)

	require.Equal(t, script1, script2)
}

func TestGenMultiSigScriptRejectsBadKeyLength(t *testing.T) {
	_, err := GenMultiSigScript([]byte{0x01, 0x02}, randCompressedPubKey(t))
	require.Error(t, err)
}

func TestGenFundingPkScript(t *testing.T) {
	aPub := randCompressedPubKey(t)
	bPub := randCompressedPubKey(t)

	witnessScript, txOut, err := GenFundingPkScript(aPub, bPub, 100000)
	require.NoError(t, err)
	require.NotEmpty(t, witnessScript)
	require.Equal(t, int64(100000), txOut.Value)

	expectedPkScript, err := WitnessScriptHash(witnessScript)
	require.NoError(t, err)
	require.Equal(t, expectedPkScript, txOut.PkScript)
}

func TestGenFundingPkScriptRejectsNonPositiveAmount(t *testing.T) {
	aPub := randCompressedPubKey(t)
	bPub := randCompressedPubKey(t)

	_, _, err := GenFundingPkScript(aPub, bPub, 0)
	require.Error(t, err)

	_, _, err = GenFundingPkScript(aPub, bPub, -1)
	require.Error(t, err)
}

func TestSpendMultiSigOrdersSignatures(t *testing.T) {
	aPub := randCompressedPubKey(t)
	bPub := randCompressedPubKey(t)
	witnessScript, _, err := GenFundingPkScript(aPub, bPub, 1000)
	require.NoError(t, err)

	sigA := []byte("sig-a")
	sigB := []byte("sig-b")

	witness := SpendMultiSig(witnessScript, aPub, sigA, bPub, sigB)
	require.Len(t, witness, 4)
	require.Nil(t, witness[0])
	require.Equal(t, witnessScript, witness[3])

	// The signature for the lexicographically smaller pubkey comes first,
	// matching the key order in the witness script.
	firstSig, secondSig := sigA, sigB
	if bytes.Compare(aPub, bPub) == 1 {
		firstSig, secondSig = sigB, sigA
	}
	require.Equal(t, firstSig, witness[1])
	require.Equal(t, secondSig, witness[2])
}

func TestTweakPubKeyMatchesTweakPrivKey(t *testing.T) {
	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	commitPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	commitPoint := commitPriv.PubKey()

	tweakedPub := TweakPubKey(basePriv.PubKey(), commitPoint)

	tweakBytes := SingleTweakBytes(commitPoint, basePriv.PubKey())
	tweakedPriv := TweakPrivKey(basePriv, tweakBytes)

	require.Equal(t, tweakedPub.SerializeCompressed(),
		tweakedPriv.PubKey().SerializeCompressed())
}

func TestDeriveRevocationPubkeyDeterministic(t *testing.T) {
	revokeBase, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	commitPoint, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	key1 := DeriveRevocationPubkey(revokeBase.PubKey(), commitPoint.PubKey())
	key2 := DeriveRevocationPubkey(revokeBase.PubKey(), commitPoint.PubKey())
	require.Equal(t, key1.SerializeCompressed(), key2.SerializeCompressed())
}
