// Package chancommit builds the 2-of-2 funding redeem script and the
// no-HTLC commitment transaction exchanged during channel opening, and
// signs/verifies commitment signatures over it.
package chancommit

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnopeningd/openingd/input"
)

// FundingScript returns the 2-of-2 multisig redeem script for the funding
// output together with the p2wsh funding output itself (value fundingSat),
// given the two sides' funding pubkeys.
func FundingScript(localFundingKey, remoteFundingKey *btcec.PublicKey, fundingSat btcutil.Amount) (witnessScript []byte, fundingTxOut *wire.TxOut, err error) {
	return input.GenFundingPkScript(
		localFundingKey.SerializeCompressed(),
		remoteFundingKey.SerializeCompressed(),
		int64(fundingSat),
	)
}

// CommitParams bundles everything needed to materialize one side's view of
// the first commitment transaction. There are no HTLCs at channel-open time,
// so the transaction always has exactly one "to-local" and one "to-remote"
// output (either may be omitted if it would be dust).
type CommitParams struct {
	FundingOutpoint wire.OutPoint
	FundingAmount   btcutil.Amount

	// ToLocalSat/ToRemoteSat are the balances of the side the
	// commitment belongs to and its counterparty, respectively.
	ToLocalSat  btcutil.Amount
	ToRemoteSat btcutil.Amount

	// CSVDelay is the to_self_delay the *owner* of this commitment must
	// wait before sweeping their to-local output.
	CSVDelay uint32

	// DelayedPaymentKey is the commitment owner's delayed payment key
	// (for the to-local output) and RemotePaymentKey is the
	// counterparty's payment key (for the to-remote output), both
	// tweaked per-commitment by the caller; RevocationKey is the
	// revocation key for this commitment, derived from the
	// counterparty's revocation basepoint and likewise already tweaked.
	DelayedPaymentKey *btcec.PublicKey
	RevocationKey     *btcec.PublicKey
	RemotePaymentKey  *btcec.PublicKey

	DustLimit btcutil.Amount
}

// BuildCommitTx constructs the commitment transaction described by params.
// The single input spends the funding outpoint; OP_CHECKSEQUENCEVERIFY on
// the to-local output makes the transaction itself a plain version-2,
// unlocked (sequence/locktime carry no state-hint encoding, since this
// engine never advances past the first commitment).
func BuildCommitTx(params CommitParams) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: params.FundingOutpoint,
		Sequence:         wire.MaxTxInSequenceNum,
	})

	if params.ToLocalSat >= params.DustLimit {
		toLocalScript, err := input.CommitScriptToSelf(
			params.CSVDelay, params.DelayedPaymentKey, params.RevocationKey,
		)
		if err != nil {
			return nil, fmt.Errorf("to-local script: %w", err)
		}
		toLocalPkScript, err := input.WitnessScriptHash(toLocalScript)
		if err != nil {
			return nil, fmt.Errorf("to-local pkscript: %w", err)
		}
		tx.AddTxOut(&wire.TxOut{
			Value:    int64(params.ToLocalSat),
			PkScript: toLocalPkScript,
		})
	}

	if params.ToRemoteSat >= params.DustLimit {
		toRemoteScript, err := input.CommitScriptUnencumbered(params.RemotePaymentKey)
		if err != nil {
			return nil, fmt.Errorf("to-remote script: %w", err)
		}
		tx.AddTxOut(&wire.TxOut{
			Value:    int64(params.ToRemoteSat),
			PkScript: toRemoteScript,
		})
	}

	return tx, nil
}

// SignRemoteCommit produces our signature over the peer's version of the
// first commitment transaction, spending the funding output with our
// funding private key.
func SignRemoteCommit(commitTx *wire.MsgTx, witnessScript []byte, fundingAmt btcutil.Amount, fundingKey *btcec.PrivateKey) (*ecdsa.Signature, error) {
	hashCache := txscript.NewTxSigHashes(
		commitTx, txscript.NewCannedPrevOutputFetcher(witnessScript, int64(fundingAmt)),
	)

	sigHash, err := txscript.CalcWitnessSigHash(
		witnessScript, hashCache, txscript.SigHashAll, commitTx, 0,
		int64(fundingAmt),
	)
	if err != nil {
		return nil, fmt.Errorf("calc sighash: %w", err)
	}

	return ecdsa.Sign(fundingKey, sigHash), nil
}

// VerifyCommitSig checks that sig is a valid signature by remoteFundingKey
// over ourCommitTx's single funding-spending input.
func VerifyCommitSig(ourCommitTx *wire.MsgTx, witnessScript []byte, fundingAmt btcutil.Amount, remoteFundingKey *btcec.PublicKey, sig *ecdsa.Signature) error {
	hashCache := txscript.NewTxSigHashes(
		ourCommitTx, txscript.NewCannedPrevOutputFetcher(witnessScript, int64(fundingAmt)),
	)

	sigHash, err := txscript.CalcWitnessSigHash(
		witnessScript, hashCache, txscript.SigHashAll, ourCommitTx, 0,
		int64(fundingAmt),
	)
	if err != nil {
		return fmt.Errorf("calc sighash: %w", err)
	}

	if !sig.Verify(sigHash, remoteFundingKey) {
		return fmt.Errorf("signature does not verify against funding pubkey")
	}

	return nil
}
