package lnwire

import (
	"bytes"
	"io"
)

// FundingSigned is the fundee's reply to funding_created, carrying its
// signature for the funder's first commitment transaction. At this phase of
// the dialogue the channel ID equals the temporary channel ID.
type FundingSigned struct {
	ChannelID [32]byte
	CommitSig Sig
}

var _ Message = (*FundingSigned)(nil)

func (f *FundingSigned) MsgType() MsgType { return MsgFundingSigned }

func (f *FundingSigned) Encode(w *bytes.Buffer) error {
	if err := WriteBytes(w, f.ChannelID[:]); err != nil {
		return err
	}
	return WriteSig(w, f.CommitSig)
}

func (f *FundingSigned) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, f.ChannelID[:]); err != nil {
		return err
	}

	sig, err := ReadSig(r)
	if err != nil {
		return err
	}
	f.CommitSig = sig

	return nil
}
