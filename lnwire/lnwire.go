// Package lnwire implements the BOLT-2 peer wire messages exchanged during
// the channel-opening dialogue: open_channel, accept_channel,
// funding_created, and funding_signed.
package lnwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MilliSatoshi is the unit used for channel balances and HTLC bounds; it
// represents 1/1000th of a satoshi.
type MilliSatoshi uint64

// NewMSatFromSatoshis converts a satoshi amount into its millisatoshi
// equivalent.
func NewMSatFromSatoshis(sat int64) MilliSatoshi {
	return MilliSatoshi(sat * 1000)
}

// Sig is a fixed-size 64-byte compact ECDSA signature, as placed on the
// wire by funding_created and funding_signed.
type Sig [64]byte

// NewSigFromSignature converts an ECDSA signature into the compact 64-byte
// wire representation (32-byte R, 32-byte S).
func NewSigFromSignature(sig *ecdsa.Signature) (Sig, error) {
	var b Sig

	r := sig.R()
	s := sig.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()

	copy(b[0:32], rBytes[:])
	copy(b[32:64], sBytes[:])

	return b, nil
}

// ToSignature parses the compact 64-byte wire representation back into an
// ECDSA signature usable for verification.
func (s Sig) ToSignature() (*ecdsa.Signature, error) {
	var r, sVal btcec.ModNScalar
	if overflow := r.SetByteSlice(s[0:32]); overflow {
		return nil, fmt.Errorf("R value overflows mod N scalar")
	}
	if overflow := sVal.SetByteSlice(s[32:64]); overflow {
		return nil, fmt.Errorf("S value overflows mod N scalar")
	}

	return ecdsa.NewSignature(&r, &sVal), nil
}

// ChainHash identifies the blockchain the channel will be opened on.
type ChainHash chainhash.Hash

// WriteBytes appends the given bytes to the provided buffer.
func WriteBytes(w *bytes.Buffer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// WriteUint16 appends a big-endian uint16.
func WriteUint16(w *bytes.Buffer, n uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], n)
	_, err := w.Write(b[:])
	return err
}

// WriteUint32 appends a big-endian uint32.
func WriteUint32(w *bytes.Buffer, n uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	_, err := w.Write(b[:])
	return err
}

// WriteUint64 appends a big-endian uint64.
func WriteUint64(w *bytes.Buffer, n uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	_, err := w.Write(b[:])
	return err
}

// WriteMilliSatoshi appends a MilliSatoshi as a big-endian uint64.
func WriteMilliSatoshi(w *bytes.Buffer, m MilliSatoshi) error {
	return WriteUint64(w, uint64(m))
}

// WritePublicKey appends the 33-byte compressed serialization of pub.
func WritePublicKey(w *bytes.Buffer, pub *btcec.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("cannot write nil pubkey")
	}
	return WriteBytes(w, pub.SerializeCompressed())
}

// WriteSig appends the 64-byte compact signature.
func WriteSig(w *bytes.Buffer, sig Sig) error {
	return WriteBytes(w, sig[:])
}

// WriteOutPoint appends a funding outpoint as a 32-byte txid followed by a
// 2-byte big-endian output index.
func WriteOutPoint(w *bytes.Buffer, p wire.OutPoint) error {
	if p.Index > math.MaxUint16 {
		return fmt.Errorf("outpoint index %d exceeds uint16 range", p.Index)
	}

	if err := WriteBytes(w, p.Hash[:]); err != nil {
		return err
	}

	return WriteUint16(w, uint16(p.Index))
}

// ReadUint16 reads a big-endian uint16.
func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// ReadUint32 reads a big-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadUint64 reads a big-endian uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// ReadMilliSatoshi reads a MilliSatoshi encoded as a big-endian uint64.
func ReadMilliSatoshi(r io.Reader) (MilliSatoshi, error) {
	v, err := ReadUint64(r)
	return MilliSatoshi(v), err
}

// ReadPublicKey reads a 33-byte compressed secp256k1 public key.
func ReadPublicKey(r io.Reader) (*btcec.PublicKey, error) {
	var b [33]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}

	return btcec.ParsePubKey(b[:])
}

// ReadSig reads a 64-byte compact signature.
func ReadSig(r io.Reader) (Sig, error) {
	var s Sig
	_, err := io.ReadFull(r, s[:])
	return s, err
}

// ReadOutPoint reads a funding outpoint (32-byte txid, 2-byte index).
func ReadOutPoint(r io.Reader) (wire.OutPoint, error) {
	var op wire.OutPoint

	var h [32]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return op, err
	}
	hash, err := chainhash.NewHash(h[:])
	if err != nil {
		return op, err
	}

	index, err := ReadUint16(r)
	if err != nil {
		return op, err
	}

	op.Hash = *hash
	op.Index = uint32(index)

	return op, nil
}
