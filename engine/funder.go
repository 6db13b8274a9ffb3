package engine

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnopeningd/openingd/chanconfig"
	"github.com/lnopeningd/openingd/chancommit"
	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/lnwire"
)

// RunFunder drives the "we initiate" path of the opening dialogue: send
// open_channel, validate the peer's accept_channel, hand the chosen
// funding pubkeys to the supervisor, build and sign the first commitment
// transactions once the supervisor supplies a funding outpoint, and verify
// the peer's funding_signed.
//
// It implements states S0 through S4 of the funder state machine.
func RunFunder(cfg *Config, peer PeerConn, sup Supervisor, open *ctrlwire.Open) (*ctrlwire.Result, error) {
	// S0 INIT.
	fundingSat := btcutil.Amount(open.FundingSatoshis)

	if err := chanconfig.ValidateLocalFunding(fundingSat, open.PushMSat); err != nil {
		return nil, newChannelError(ctrlwire.KindBadParam, "%v", err)
	}

	local := cfg.LocalBase
	local.ChannelReserveSatoshis = chanconfig.ReserveForFunding(fundingSat)

	tempID := newTemporaryChannelID()

	openMsg := &lnwire.OpenChannel{
		ChainHash:                cfg.ChainHash,
		TemporaryChannelID:       tempID,
		FundingSatoshis:          open.FundingSatoshis,
		PushMSat:                 open.PushMSat,
		DustLimitSatoshis:        uint64(local.DustLimitSatoshis),
		MaxHTLCValueInFlightMSat: local.MaxHTLCValueInFlightMSat,
		ChannelReserveSatoshis:   uint64(local.ChannelReserveSatoshis),
		HTLCMinimumMSat:          local.HTLCMinimumMSat,
		FeeratePerKW:             open.FeeratePerKW,
		ToSelfDelay:              local.ToSelfDelay,
		MaxAcceptedHTLCs:         local.MaxAcceptedHTLCs,
		FundingKey:               cfg.Keys.Points.FundingKey,
		RevocationBasepoint:      cfg.Keys.Points.RevocationBasepoint,
		PaymentBasepoint:         cfg.Keys.Points.PaymentBasepoint,
		DelayedPaymentBasepoint:  cfg.Keys.Points.DelayedPaymentBasepoint,
		FirstPerCommitmentPoint:  cfg.Keys.FirstPerCommit,
	}

	if err := sendPeer(peer, openMsg); err != nil {
		return nil, err
	}

	// S1 SENT_OPEN.
	reply, err := recvPeer(peer)
	if err != nil {
		return nil, err
	}

	accept, ok := reply.(*lnwire.AcceptChannel)
	if !ok {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadInitialMessage,
			"expected accept_channel, got %v", reply.MsgType())
	}

	if accept.TemporaryChannelID != tempID {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"accept_channel echoed wrong temporary_channel_id")
	}

	bounds := cfg.Bounds
	bounds.MaxMinimumDepth = open.MaxMinimumDepth
	if err := chanconfig.ValidateMinimumDepth(accept.MinimumDepth, bounds); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadConfig, "%v", err)
	}

	remote := remoteConfigFromAccept(accept)
	if err := chanconfig.Validate(local, remote, fundingSat, bounds); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerBadConfig, "%v", err)
	}

	if err := sup.Send(&ctrlwire.OpenResp{
		OurFundingPubkey:   cfg.Keys.Points.FundingKey,
		TheirFundingPubkey: accept.FundingKey,
	}); err != nil {
		return nil, newLocalError(ctrlwire.KindBadCommand, "send open_resp: %v", err)
	}

	// S2 AWAIT_OUTPOINT.
	fundingMsg, err := recvSupervisor(sup)
	if err != nil {
		return nil, err
	}

	fundingResp, ok := fundingMsg.(*ctrlwire.OpenFunding)
	if !ok {
		return nil, newLocalError(ctrlwire.KindBadCommand,
			"expected open_funding, got %T", fundingMsg)
	}

	fundingOutpoint := wire.OutPoint{
		Hash:  chainhash.Hash(fundingResp.FundingTxid),
		Index: uint32(fundingResp.FundingTxout),
	}

	witnessScript, _, err := chancommit.FundingScript(
		cfg.Keys.Points.FundingKey, accept.FundingKey, fundingSat,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "funding script: %v", err)
	}

	funderSat, fundeeSat := splitBalance(fundingSat, open.PushMSat)

	// Their (the fundee's) first commitment transaction: they own it.
	fundeeDelay, fundeeRevoke, fundeeRemote := ownerCommitKeys(
		accept.DelayedPaymentBasepoint, cfg.Keys.Points.RevocationBasepoint,
		cfg.Keys.Points.PaymentBasepoint, accept.FirstPerCommitmentPoint,
	)
	theirCommitTx, err := firstCommitTx(
		fundingOutpoint, fundingSat, fundeeSat, funderSat,
		uint32(remote.ToSelfDelay), fundeeDelay, fundeeRevoke, fundeeRemote,
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

	if err := sendPeer(peer, &lnwire.FundingCreated{
		TemporaryChannelID: tempID,
		FundingPoint:       fundingOutpoint,
		CommitSig:          sigForThemWire,
	}); err != nil {
		return nil, err
	}

	// S3 SENT_FUNDING_CREATED.
	signedReply, err := recvPeer(peer)
	if err != nil {
		return nil, err
	}

	signed, ok := signedReply.(*lnwire.FundingSigned)
	if !ok {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"expected funding_signed, got %v", signedReply.MsgType())
	}
	if signed.ChannelID != tempID {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"funding_signed carries wrong channel_id")
	}

	ourDelay, ourRevoke, ourRemote := ownerCommitKeys(
		cfg.Keys.Points.DelayedPaymentBasepoint, accept.RevocationBasepoint,
		accept.PaymentBasepoint, cfg.Keys.FirstPerCommit,
	)
	ourCommitTx, err := firstCommitTx(
		fundingOutpoint, fundingSat, funderSat, fundeeSat,
		uint32(local.ToSelfDelay), ourDelay, ourRevoke, ourRemote,
		local.DustLimitSatoshis,
	)
	if err != nil {
		return nil, newLocalError(ctrlwire.KindBadParam, "build our commit tx: %v", err)
	}

	sigForUs, err := signed.CommitSig.ToSignature()
	if err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed,
			"malformed signature in funding_signed: %v", err)
	}

	if err := chancommit.VerifyCommitSig(
		ourCommitTx, witnessScript, fundingSat, accept.FundingKey, sigForUs,
	); err != nil {
		return nil, failChannel(peer, tempID, ctrlwire.KindPeerReadFailed, "%v", err)
	}

	// S4 DONE.
	return &ctrlwire.Result{
		TemporaryChannelID:             tempID,
		RemoteDustLimitSatoshis:        uint64(remote.DustLimitSatoshis),
		RemoteMaxHTLCValueInFlightMSat: remote.MaxHTLCValueInFlightMSat,
		RemoteChannelReserveSatoshis:   uint64(remote.ChannelReserveSatoshis),
		RemoteHTLCMinimumMSat:          remote.HTLCMinimumMSat,
		RemoteToSelfDelay:              remote.ToSelfDelay,
		RemoteMaxAcceptedHTLCs:         remote.MaxAcceptedHTLCs,
		RemoteFundingKey:               accept.FundingKey,
		RemoteRevocationBasepoint:      accept.RevocationBasepoint,
		RemotePaymentBasepoint:         accept.PaymentBasepoint,
		RemoteDelayedPaymentBasepoint:  accept.DelayedPaymentBasepoint,
		NextPerCommitRemote:            accept.FirstPerCommitmentPoint,
		TheirSig:                       signed.CommitSig,
		FundingTxid:                    fundingResp.FundingTxid,
		FundingTxout:                   fundingResp.FundingTxout,
	}, nil
}
