package engine

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnopeningd/openingd/chanconfig"
	"github.com/lnopeningd/openingd/chancommit"
	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/lnwire"
)

// RunFundee drives the "we accept" path of the opening dialogue: validate
// an already-received open_channel, send accept_channel, verify the
// funder's funding_created, and reply with funding_signed.
//
// It implements states T0 through T2 of the fundee state machine.
func RunFundee(cfg *Config, peer PeerConn, req *ctrlwire.Accept) (*ctrlwire.Result, error) {
	// T0 GOT_OPEN.
	parsed, err := lnwire.ReadMessage(bytes.NewReader(req.OpenChannelBytes))
	if err != nil {
		return nil, newChannelError(ctrlwire.KindPeerBadInitialMessage,
			"parse open_channel: %v", err)
	}
	openMsg, ok := parsed.(*lnwire.OpenChannel)
	if !ok {
		return nil, newChannelError(ctrlwire.KindPeerBadInitialMessage,
			"expected open_channel, got %v", parsed.MsgType())
	}

	fundingSat := btcutil.Amount(openMsg.FundingSatoshis)
	tempID := openMsg.TemporaryChannelID

	if openMsg.ChainHash != cfg.ChainHash {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadInitialMessage,
			"open_channel chain_hash does not match")
	}

	if err := chanconfig.ValidateLocalFunding(fundingSat, openMsg.PushMSat); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadFunding, "%v", err)
	}

	feerateBounds := chanconfig.Bounds{MinFeerate: req.MinFeerate, MaxFeerate: req.MaxFeerate}
	if err := chanconfig.ValidateFeerate(openMsg.FeeratePerKW, feerateBounds); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadFunding, "%v", err)
	}

	local := cfg.LocalBase
	local.ChannelReserveSatoshis = chanconfig.ReserveForFunding(fundingSat)

	remote := remoteConfigFromOpen(openMsg)
	if err := chanconfig.Validate(local, remote, fundingSat, cfg.Bounds); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadConfig, "%v", err)
	}

	acceptMsg := &lnwire.AcceptChannel{
		TemporaryChannelID:       tempID,
		DustLimitSatoshis:        uint64(local.DustLimitSatoshis),
		MaxHTLCValueInFlightMSat: local.MaxHTLCValueInFlightMSat,
		ChannelReserveSatoshis:   uint64(local.ChannelReserveSatoshis),
		MinimumDepth:             local.MinimumDepth,
		HTLCMinimumMSat:          local.HTLCMinimumMSat,
		ToSelfDelay:              local.ToSelfDelay,
		MaxAcceptedHTLCs:         local.MaxAcceptedHTLCs,
		FundingKey:               cfg.Keys.Points.FundingKey,
		RevocationBasepoint:      cfg.Keys.Points.RevocationBasepoint,
		PaymentBasepoint:         cfg.Keys.Points.PaymentBasepoint,
		DelayedPaymentBasepoint:  cfg.Keys.Points.DelayedPaymentBasepoint,
		FirstPerCommitmentPoint:  cfg.Keys.FirstPerCommit,
	}
	if err := sendPeer(peer, acceptMsg); err != nil {
		return nil, err
	}

	// T1 SENT_ACCEPT.
	createdReply, err := recvPeer(peer)
	if err != nil {
		return nil, err
	}
	created, ok := createdReply.(*lnwire.FundingCreated)
	if !ok {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"expected funding_created, got %v", createdReply.MsgType())
	}
	if created.TemporaryChannelID != tempID {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"funding_created carries wrong temporary_channel_id")
	}

	witnessScript, _, err := chancommit.FundingScript(
		openMsg.FundingKey, cfg.Keys.Points.FundingKey, fundingSat,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "funding script: %v", err)
	}

	funderSat, fundeeSat := splitBalance(fundingSat, openMsg.PushMSat)

	// Our (the fundee's) first commitment transaction: we own it.
	ourDelay, ourRevoke, ourRemote := ownerCommitKeys(
		cfg.Keys.Points.DelayedPaymentBasepoint, openMsg.RevocationBasepoint,
		openMsg.PaymentBasepoint, cfg.Keys.FirstPerCommit,
	)
	ourCommitTx, err := firstCommitTx(
		created.FundingPoint, fundingSat, fundeeSat, funderSat,
		uint32(local.ToSelfDelay), ourDelay, ourRevoke, ourRemote,
		local.DustLimitSatoshis,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "build our commit tx: %v", err)
	}

	theirSig, err := created.CommitSig.ToSignature()
	if err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"malformed signature in funding_created: %v", err)
	}
	if err := chancommit.VerifyCommitSig(
		ourCommitTx, witnessScript, fundingSat, openMsg.FundingKey, theirSig,
	); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed, "%v", err)
	}

	// The funder's first commitment transaction: they own it.
	funderDelay, funderRevoke, funderRemote := ownerCommitKeys(
		openMsg.DelayedPaymentBasepoint, cfg.Keys.Points.RevocationBasepoint,
		cfg.Keys.Points.PaymentBasepoint, openMsg.FirstPerCommitmentPoint,
	)
	theirCommitTx, err := firstCommitTx(
		created.FundingPoint, fundingSat, funderSat, fundeeSat,
		uint32(remote.ToSelfDelay), funderDelay, funderRevoke, funderRemote,
		remote.DustLimitSatoshis,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "build their commit tx: %v", err)
	}

	sigForThem, err := chancommit.SignRemoteCommit(
		theirCommitTx, witnessScript, fundingSat, cfg.Keys.Secrets.FundingKey,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "sign their commit tx: %v", err)
	}
	sigForThemWire, err := lnwire.NewSigFromSignature(sigForThem)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "encode signature: %v", err)
	}

	if err := sendPeer(peer, &lnwire.FundingSigned{
		ChannelID: tempID,
		CommitSig: sigForThemWire,
	}); err != nil {
		return nil, err
	}

	// T2 DONE. NextPerCommitRemote carries the per-commitment point learned
	// from the peer's open_channel, not our own (wire-correct) next point
	// sent in accept_channel: see SPEC_FULL.md's note on this field.
	return &ctrlwire.Result{
		TemporaryChannelID:             tempID,
		RemoteDustLimitSatoshis:        uint64(remote.DustLimitSatoshis),
		RemoteMaxHTLCValueInFlightMSat: remote.MaxHTLCValueInFlightMSat,
		RemoteChannelReserveSatoshis:   uint64(remote.ChannelReserveSatoshis),
		RemoteHTLCMinimumMSat:          remote.HTLCMinimumMSat,
		RemoteToSelfDelay:              remote.ToSelfDelay,
		RemoteMaxAcceptedHTLCs:         remote.MaxAcceptedHTLCs,
		RemoteFundingKey:               openMsg.FundingKey,
		RemoteRevocationBasepoint:      openMsg.RevocationBasepoint,
		RemotePaymentBasepoint:         openMsg.PaymentBasepoint,
		RemoteDelayedPaymentBasepoint:  openMsg.DelayedPaymentBasepoint,
		NextPerCommitRemote:            openMsg.FirstPerCommitmentPoint,
		TheirSig:                       created.CommitSig,
		FundingTxid:                    [32]byte(created.FundingPoint.Hash),
		FundingTxout:                   uint16(created.FundingPoint.Index),
	}, nil
}
