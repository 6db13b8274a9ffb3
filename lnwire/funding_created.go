package lnwire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// FundingCreated is sent by the funder once it has chosen the funding
// outpoint, carrying its signature for the fundee's first commitment
// transaction.
type FundingCreated struct {
	TemporaryChannelID [32]byte
	FundingPoint       wire.OutPoint
	CommitSig          Sig
}

var _ Message = (*FundingCreated)(nil)

func (f *FundingCreated) MsgType() MsgType { return MsgFundingCreated }

func (f *FundingCreated) Encode(w *bytes.Buffer) error {
	if err := WriteBytes(w, f.TemporaryChannelID[:]); err != nil {
		return err
	}
	if err := WriteOutPoint(w, f.FundingPoint); err != nil {
		return err
	}
	return WriteSig(w, f.CommitSig)
}

func (f *FundingCreated) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, f.TemporaryChannelID[:]); err != nil {
		return err
	}

	op, err := ReadOutPoint(r)
	if err != nil {
		return err
	}
	f.FundingPoint = op

	sig, err := ReadSig(r)
	if err != nil {
		return err
	}
	f.CommitSig = sig

	return nil
}
