package chancommit

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func randPrivKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return priv
}

func TestFundingScriptDeterministic(t *testing.T) {
	localKey := randPrivKey(t).PubKey()
	remoteKey := randPrivKey(t).PubKey()

	script1, txOut1, err := FundingScript(localKey, remoteKey, 100000)
	require.NoError(t, err)

	script2, txOut2, err := FundingScript(remoteKey, localKey, 100000)
	require.NoError(t, err)

	require.Equal(t, script1, script2)
	require.Equal(t, txOut1.PkScript, txOut2.PkScript)
}

func TestBuildCommitTxOmitsDustOutputs(t *testing.T) {
	delayedKey := randPrivKey(t).PubKey()
	revocationKey := randPrivKey(t).PubKey()
	remoteKey := randPrivKey(t).PubKey()

	params := CommitParams{
		FundingOutpoint:   wire.OutPoint{Index: 0},
		FundingAmount:     100000,
		ToLocalSat:        99000,
		ToRemoteSat:       100,
		CSVDelay:          144,
		DelayedPaymentKey: delayedKey,
		RevocationKey:     revocationKey,
		RemotePaymentKey:  remoteKey,
		DustLimit:         546,
	}

	tx, err := BuildCommitTx(params)
	require.NoError(t, err)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, int64(99000), tx.TxOut[0].Value)
}

func TestBuildCommitTxBothOutputs(t *testing.T) {
	delayedKey := randPrivKey(t).PubKey()
	revocationKey := randPrivKey(t).PubKey()
	remoteKey := randPrivKey(t).PubKey()

	params := CommitParams{
		FundingOutpoint:   wire.OutPoint{Index: 0},
		FundingAmount:     100000,
		ToLocalSat:        60000,
		ToRemoteSat:       39000,
		CSVDelay:          144,
		DelayedPaymentKey: delayedKey,
		RevocationKey:     revocationKey,
		RemotePaymentKey:  remoteKey,
		DustLimit:         546,
	}

	tx, err := BuildCommitTx(params)
	require.NoError(t, err)
	require.Len(t, tx.TxOut, 2)
}

func TestSignAndVerifyCommitSig(t *testing.T) {
	localFundingPriv := randPrivKey(t)
	remoteFundingPriv := randPrivKey(t)

	witnessScript, _, err := FundingScript(
		localFundingPriv.PubKey(), remoteFundingPriv.PubKey(), 100000,
	)
	require.NoError(t, err)

	params := CommitParams{
		FundingOutpoint:   wire.OutPoint{Index: 0},
		FundingAmount:     100000,
		ToLocalSat:        60000,
		ToRemoteSat:       39000,
		CSVDelay:          144,
		DelayedPaymentKey: randPrivKey(t).PubKey(),
		RevocationKey:     randPrivKey(t).PubKey(),
		RemotePaymentKey:  randPrivKey(t).PubKey(),
		DustLimit:         546,
	}

	commitTx, err := BuildCommitTx(params)
	require.NoError(t, err)

	// The remote party signs our commitment transaction with their
	// funding key.
	sig, err := SignRemoteCommit(
		commitTx, witnessScript, btcutil.Amount(100000), remoteFundingPriv,
	)
	require.NoError(t, err)

	err = VerifyCommitSig(
		commitTx, witnessScript, btcutil.Amount(100000),
		remoteFundingPriv.PubKey(), sig,
	)
	require.NoError(t, err)

	// A signature from the wrong key must not verify.
	wrongSig, err := SignRemoteCommit(
		commitTx, witnessScript, btcutil.Amount(100000), localFundingPriv,
	)
	require.NoError(t, err)

	err = VerifyCommitSig(
		commitTx, witnessScript, btcutil.Amount(100000),
		remoteFundingPriv.PubKey(), wrongSig,
	)
	require.Error(t, err)
}

func TestSignRemoteCommitDeterministicHash(t *testing.T) {
	// Signing the same commitment twice with the same key must produce
	// byte-identical signatures (ECDSA signing here is deterministic),
	// proving the sighash computation is stable across calls.
	remoteFundingPriv := randPrivKey(t)
	localFundingPriv := randPrivKey(t)

	witnessScript, _, err := FundingScript(
		localFundingPriv.PubKey(), remoteFundingPriv.PubKey(), 50000,
	)
	require.NoError(t, err)

	params := CommitParams{
		FundingOutpoint:   wire.OutPoint{Index: 0},
		FundingAmount:     50000,
		ToLocalSat:        50000,
		CSVDelay:          144,
		DelayedPaymentKey: randPrivKey(t).PubKey(),
		RevocationKey:     randPrivKey(t).PubKey(),
		RemotePaymentKey:  randPrivKey(t).PubKey(),
		DustLimit:         546,
	}

	commitTx, err := BuildCommitTx(params)
	require.NoError(t, err)

	sig1, err := SignRemoteCommit(commitTx, witnessScript, 50000, remoteFundingPriv)
	require.NoError(t, err)
	sig2, err := SignRemoteCommit(commitTx, witnessScript, 50000, remoteFundingPriv)
	require.NoError(t, err)

	require.True(t, bytes.Equal(sig1.Serialize(), sig2.Serialize()))
}
