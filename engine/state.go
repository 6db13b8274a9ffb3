// Package engine drives the four-way channel-opening dialogue
// (open_channel ⇄ accept_channel ⇄ funding_created ⇄ funding_signed) to
// completion, playing either the funder or the fundee role for exactly one
// negotiation, then terminates.
package engine

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnopeningd/openingd/chanconfig"
	"github.com/lnopeningd/openingd/chancommit"
	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/input"
	"github.com/lnopeningd/openingd/keychain"
	"github.com/lnopeningd/openingd/lnwire"
)

// Supervisor is the engine's handle on the control wire to its parent: a
// strictly request/response framed channel, read and written synchronously.
type Supervisor interface {
	Send(msg ctrlwire.Message) error
	Recv() (ctrlwire.Message, error)
}

// Config bundles everything RunFunder/RunFundee need that does not change
// across the lifetime of the process: the derived key material, the chain
// this process negotiates on, and the policy bounds handed down at init.
type Config struct {
	Keys *keychain.Derived

	ChainHash [32]byte

	LocalBase chanconfig.ChannelConfig
	Bounds    chanconfig.Bounds
}

// NewConfig derives key material from init.Seed and assembles the policy
// baseline carried by init. Returns a *LocalError on key derivation
// failure.
func NewConfig(init *ctrlwire.Init) (*Config, error) {
	keys, err := keychain.DeriveAll(init.Seed)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindKeyDerivationFailed,
			"derive keys from seed: %v", err)
	}

	return &Config{
		Keys:      keys,
		ChainHash: init.ChainHash,
		LocalBase: chanconfig.ChannelConfig{
			DustLimitSatoshis:        btcutil.Amount(init.LocalDustLimitSatoshis),
			MaxHTLCValueInFlightMSat: init.LocalMaxHTLCValueInFlightMSat,
			HTLCMinimumMSat:          init.LocalHTLCMinimumMSat,
			ToSelfDelay:              init.LocalToSelfDelay,
			MaxAcceptedHTLCs:         init.LocalMaxAcceptedHTLCs,
			MinimumDepth:             init.LocalMinimumDepth,
		},
		Bounds: chanconfig.Bounds{
			MaxToSelfDelay:               init.MaxToSelfDelay,
			MinEffectiveHTLCCapacityMsat: init.MinEffectiveHTLCCapacityMsat,
		},
	}, nil
}

// newTemporaryChannelID returns 32 bytes of 0xFF. BOLT #2 only requires
// uniqueness per peer; this engine negotiates exactly one channel per
// process, so a fixed value is sufficient by construction.
func newTemporaryChannelID() [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = 0xFF
	}
	return id
}

// firstCommitTx builds one side's view of the first (HTLC-less) commitment
// transaction, given the funding outpoint/amount, each side's balance, and
// the keys involved.
//
// The built transaction pays ownerDelayKey (delayed by toSelfDelay,
// revocable by ownerRevokeKey) to the commitment's owner, and
// counterpartyKey (immediately spendable) to the other side.
func firstCommitTx(
	fundingOutpoint wire.OutPoint,
	fundingAmt btcutil.Amount,
	ownerToSelf, counterpartyToSelf btcutil.Amount,
	toSelfDelay uint32,
	ownerDelayKey, ownerRevokeKey, counterpartyKey *btcec.PublicKey,
	dustLimit btcutil.Amount,
) (*wire.MsgTx, error) {
	return chancommit.BuildCommitTx(chancommit.CommitParams{
		FundingOutpoint:   fundingOutpoint,
		FundingAmount:     fundingAmt,
		ToLocalSat:        ownerToSelf,
		ToRemoteSat:       counterpartyToSelf,
		CSVDelay:          toSelfDelay,
		DelayedPaymentKey: ownerDelayKey,
		RevocationKey:     ownerRevokeKey,
		RemotePaymentKey:  counterpartyKey,
		DustLimit:         dustLimit,
	})
}

// remoteConfigFromOpen extracts the ChannelConfig half of an open_channel
// message's fields, for validation purposes.
func remoteConfigFromOpen(o *lnwire.OpenChannel) chanconfig.ChannelConfig {
	return chanconfig.ChannelConfig{
		DustLimitSatoshis:        btcutil.Amount(o.DustLimitSatoshis),
		MaxHTLCValueInFlightMSat: o.MaxHTLCValueInFlightMSat,
		ChannelReserveSatoshis:   btcutil.Amount(o.ChannelReserveSatoshis),
		HTLCMinimumMSat:          o.HTLCMinimumMSat,
		ToSelfDelay:              o.ToSelfDelay,
		MaxAcceptedHTLCs:         o.MaxAcceptedHTLCs,
	}
}

// remoteConfigFromAccept extracts the ChannelConfig half of an
// accept_channel message's fields, for validation purposes.
func remoteConfigFromAccept(a *lnwire.AcceptChannel) chanconfig.ChannelConfig {
	return chanconfig.ChannelConfig{
		DustLimitSatoshis:        btcutil.Amount(a.DustLimitSatoshis),
		MaxHTLCValueInFlightMSat: a.MaxHTLCValueInFlightMSat,
		ChannelReserveSatoshis:   btcutil.Amount(a.ChannelReserveSatoshis),
		HTLCMinimumMSat:          a.HTLCMinimumMSat,
		ToSelfDelay:              a.ToSelfDelay,
		MaxAcceptedHTLCs:         a.MaxAcceptedHTLCs,
		MinimumDepth:             a.MinimumDepth,
	}
}

// sendPeer gives every peer write a uniform PEER_WRITE_FAILED mapping.
func sendPeer(peer PeerConn, msg lnwire.Message) error {
	if err := lnwire.WriteMessage(peer, msg); err != nil {
		return newChannelError(ctrlwire.KindPeerWriteFailed,
			"write %v: %v", msg.MsgType(), err)
	}
	return nil
}

// recvPeer is the read-side counterpart of sendPeer: any I/O or decode
// failure is reported as PEER_READ_FAILED, since from the state machine's
// point of view a malformed frame and a dead connection are both "we did
// not get the message we needed".
func recvPeer(peer PeerConn) (lnwire.Message, error) {
	msg, err := lnwire.ReadMessage(peer)
	if err != nil {
		return nil, newChannelError(ctrlwire.KindPeerReadFailed,
			"read peer message: %v", err)
	}
	return msg, nil
}

// recvSupervisor maps any control-channel read failure to a *LocalError:
// an unreadable control channel is never the peer's fault.
func recvSupervisor(sup Supervisor) (ctrlwire.Message, error) {
	msg, err := sup.Recv()
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadCommand,
			"read supervisor message: %v", err)
	}
	return msg, nil
}

// ownerCommitKeys derives the three keys that appear in one side's
// commitment transaction from that side's delayed-payment basepoint, the
// counterparty's revocation and payment basepoints, and the commitment's
// per-commitment point.
//
// The revocation key is derived from the *counterparty's* revocation
// basepoint so that, once the per-commitment secret is later revealed, the
// counterparty (who already holds that basepoint's private half) can
// compute the revocation private key and sweep a breached commitment.
func ownerCommitKeys(
	ownerDelayedBasepoint, counterpartyRevocationBasepoint,
	counterpartyPaymentBasepoint, perCommitPoint *btcec.PublicKey,
) (delayKey, revokeKey, remoteKey *btcec.PublicKey) {
	delayKey = input.TweakPubKey(ownerDelayedBasepoint, perCommitPoint)
	revokeKey = input.DeriveRevocationPubkey(counterpartyRevocationBasepoint, perCommitPoint)
	remoteKey = input.TweakPubKey(counterpartyPaymentBasepoint, perCommitPoint)
	return delayKey, revokeKey, remoteKey
}

// splitBalance divides fundingSat between the funder and the fundee given
// push_msat, in whole satoshis (floor division discards sub-satoshi
// remainders, which have no on-chain representation anyway).
func splitBalance(fundingSat btcutil.Amount, pushMSat uint64) (funderSat, fundeeSat btcutil.Amount) {
	totalMSat := uint64(fundingSat) * 1000
	fundeeSat = btcutil.Amount(pushMSat / 1000)
	funderSat = btcutil.Amount((totalMSat - pushMSat) / 1000)
	return funderSat, fundeeSat
}
