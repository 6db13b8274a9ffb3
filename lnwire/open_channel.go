package lnwire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// OpenChannel is the first message of the channel-opening dialogue, sent by
// the funder to propose a new channel.
type OpenChannel struct {
	// ChainHash identifies the chain on which the proposed channel is to
	// be opened. Modern BOLT-2 requires this prefix; see SPEC_FULL.md
	// §6.1 for why it is present here.
	ChainHash [32]byte

	TemporaryChannelID [32]byte

	FundingSatoshis uint64
	PushMSat        uint64

	DustLimitSatoshis        uint64
	MaxHTLCValueInFlightMSat uint64
	ChannelReserveSatoshis   uint64
	HTLCMinimumMSat          uint32
	FeeratePerKW             uint32
	ToSelfDelay              uint16
	MaxAcceptedHTLCs         uint16

	FundingKey              *btcec.PublicKey
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
	FirstPerCommitmentPoint *btcec.PublicKey
}

// A compile-time check that OpenChannel implements Message.
var _ Message = (*OpenChannel)(nil)

func (o *OpenChannel) MsgType() MsgType { return MsgOpenChannel }

func (o *OpenChannel) Encode(w *bytes.Buffer) error {
	if err := WriteBytes(w, o.ChainHash[:]); err != nil {
		return err
	}
	if err := WriteBytes(w, o.TemporaryChannelID[:]); err != nil {
		return err
	}
	if err := WriteUint64(w, o.FundingSatoshis); err != nil {
		return err
	}
	if err := WriteUint64(w, o.PushMSat); err != nil {
		return err
	}
	if err := WriteUint64(w, o.DustLimitSatoshis); err != nil {
		return err
	}
	if err := WriteUint64(w, o.MaxHTLCValueInFlightMSat); err != nil {
		return err
	}
	if err := WriteUint64(w, o.ChannelReserveSatoshis); err != nil {
		return err
	}
	if err := WriteUint32(w, o.HTLCMinimumMSat); err != nil {
		return err
	}
	if err := WriteUint32(w, o.FeeratePerKW); err != nil {
		return err
	}
	if err := WriteUint16(w, o.ToSelfDelay); err != nil {
		return err
	}
	if err := WriteUint16(w, o.MaxAcceptedHTLCs); err != nil {
		return err
	}
	for _, k := range []*btcec.PublicKey{
		o.FundingKey, o.RevocationBasepoint, o.PaymentBasepoint,
		o.DelayedPaymentBasepoint, o.FirstPerCommitmentPoint,
	} {
		if err := WritePublicKey(w, k); err != nil {
			return err
		}
	}
	return nil
}

func (o *OpenChannel) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, o.ChainHash[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, o.TemporaryChannelID[:]); err != nil {
		return err
	}

	var err error
	if o.FundingSatoshis, err = ReadUint64(r); err != nil {
		return err
	}
	if o.PushMSat, err = ReadUint64(r); err != nil {
		return err
	}
	if o.DustLimitSatoshis, err = ReadUint64(r); err != nil {
		return err
	}
	if o.MaxHTLCValueInFlightMSat, err = ReadUint64(r); err != nil {
		return err
	}
	if o.ChannelReserveSatoshis, err = ReadUint64(r); err != nil {
		return err
	}
	if o.HTLCMinimumMSat, err = ReadUint32(r); err != nil {
		return err
	}
	if o.FeeratePerKW, err = ReadUint32(r); err != nil {
		return err
	}
	if o.ToSelfDelay, err = ReadUint16(r); err != nil {
		return err
	}
	if o.MaxAcceptedHTLCs, err = ReadUint16(r); err != nil {
		return err
	}

	keys := make([]**btcec.PublicKey, 5)
	keys[0] = &o.FundingKey
	keys[1] = &o.RevocationBasepoint
	keys[2] = &o.PaymentBasepoint
	keys[3] = &o.DelayedPaymentBasepoint
	keys[4] = &o.FirstPerCommitmentPoint
	for _, k := range keys {
		pub, err := ReadPublicKey(r)
		if err != nil {
			return err
		}
		*k = pub
	}

	return nil
}
