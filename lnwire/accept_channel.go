package lnwire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// AcceptChannel is the fundee's reply to open_channel.
type AcceptChannel struct {
	TemporaryChannelID [32]byte

	DustLimitSatoshis        uint64
	MaxHTLCValueInFlightMSat uint64
	ChannelReserveSatoshis   uint64
	MinimumDepth             uint32
	HTLCMinimumMSat          uint32
	ToSelfDelay              uint16
	MaxAcceptedHTLCs         uint16

	FundingKey              *btcec.PublicKey
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
	FirstPerCommitmentPoint *btcec.PublicKey
}

var _ Message = (*AcceptChannel)(nil)

func (a *AcceptChannel) MsgType() MsgType { return MsgAcceptChannel }

func (a *AcceptChannel) Encode(w *bytes.Buffer) error {
	if err := WriteBytes(w, a.TemporaryChannelID[:]); err != nil {
		return err
	}
	if err := WriteUint64(w, a.DustLimitSatoshis); err != nil {
		return err
	}
	if err := WriteUint64(w, a.MaxHTLCValueInFlightMSat); err != nil {
		return err
	}
	if err := WriteUint64(w, a.ChannelReserveSatoshis); err != nil {
		return err
	}
	if err := WriteUint32(w, a.MinimumDepth); err != nil {
		return err
	}
	if err := WriteUint32(w, a.HTLCMinimumMSat); err != nil {
		return err
	}
	if err := WriteUint16(w, a.ToSelfDelay); err != nil {
		return err
	}
	if err := WriteUint16(w, a.MaxAcceptedHTLCs); err != nil {
		return err
	}
	for _, k := range []*btcec.PublicKey{
		a.FundingKey, a.RevocationBasepoint, a.PaymentBasepoint,
		a.DelayedPaymentBasepoint, a.FirstPerCommitmentPoint,
	} {
		if err := WritePublicKey(w, k); err != nil {
			return err
		}
	}
	return nil
}

func (a *AcceptChannel) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, a.TemporaryChannelID[:]); err != nil {
		return err
	}

	var err error
	if a.DustLimitSatoshis, err = ReadUint64(r); err != nil {
		return err
	}
	if a.MaxHTLCValueInFlightMSat, err = ReadUint64(r); err != nil {
		return err
	}
	if a.ChannelReserveSatoshis, err = ReadUint64(r); err != nil {
		return err
	}
	if a.MinimumDepth, err = ReadUint32(r); err != nil {
		return err
	}
	if a.HTLCMinimumMSat, err = ReadUint32(r); err != nil {
		return err
	}
	if a.ToSelfDelay, err = ReadUint16(r); err != nil {
		return err
	}
	if a.MaxAcceptedHTLCs, err = ReadUint16(r); err != nil {
		return err
	}

	keys := []**btcec.PublicKey{
		&a.FundingKey, &a.RevocationBasepoint, &a.PaymentBasepoint,
		&a.DelayedPaymentBasepoint, &a.FirstPerCommitmentPoint,
	}
	for _, k := range keys {
		pub, err := ReadPublicKey(r)
		if err != nil {
			return err
		}
		*k = pub
	}

	return nil
}
