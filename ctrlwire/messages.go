package ctrlwire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Init is the first message the supervisor sends: the fixed policy baseline
// and secret material for the lifetime of the process. The peer byte
// stream itself arrives out of band on fd 3, not over this channel.
//
// LocalDustLimitSatoshis through LocalMinimumDepth are the fields of our own
// ChannelConfig that are fixed policy rather than derived per-negotiation
// (channel_reserve_satoshis is always recomputed from funding_satoshis at
// S0/T0 and is not carried here).
type Init struct {
	ChainHash [32]byte

	LocalDustLimitSatoshis        uint64
	LocalMaxHTLCValueInFlightMSat uint64
	LocalHTLCMinimumMSat          uint32
	LocalToSelfDelay              uint16
	LocalMaxAcceptedHTLCs         uint16
	LocalMinimumDepth             uint32

	MaxToSelfDelay               uint16
	MinEffectiveHTLCCapacityMsat uint64

	Seed [32]byte
}

var _ Message = (*Init)(nil)

func (m *Init) MsgType() MsgType { return MsgInit }

func (m *Init) Encode(w *bytes.Buffer) error {
	if err := writeBytes(w, m.ChainHash[:]); err != nil {
		return err
	}
	if err := writeUint64(w, m.LocalDustLimitSatoshis); err != nil {
		return err
	}
	if err := writeUint64(w, m.LocalMaxHTLCValueInFlightMSat); err != nil {
		return err
	}
	if err := writeUint32(w, m.LocalHTLCMinimumMSat); err != nil {
		return err
	}
	if err := writeUint16(w, m.LocalToSelfDelay); err != nil {
		return err
	}
	if err := writeUint16(w, m.LocalMaxAcceptedHTLCs); err != nil {
		return err
	}
	if err := writeUint32(w, m.LocalMinimumDepth); err != nil {
		return err
	}
	if err := writeUint16(w, m.MaxToSelfDelay); err != nil {
		return err
	}
	if err := writeUint64(w, m.MinEffectiveHTLCCapacityMsat); err != nil {
		return err
	}
	return writeBytes(w, m.Seed[:])
}

func (m *Init) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, m.ChainHash[:]); err != nil {
		return err
	}

	var err error
	if m.LocalDustLimitSatoshis, err = readUint64(r); err != nil {
		return err
	}
	if m.LocalMaxHTLCValueInFlightMSat, err = readUint64(r); err != nil {
		return err
	}
	if m.LocalHTLCMinimumMSat, err = readUint32(r); err != nil {
		return err
	}
	if m.LocalToSelfDelay, err = readUint16(r); err != nil {
		return err
	}
	if m.LocalMaxAcceptedHTLCs, err = readUint16(r); err != nil {
		return err
	}
	if m.LocalMinimumDepth, err = readUint32(r); err != nil {
		return err
	}
	if m.MaxToSelfDelay, err = readUint16(r); err != nil {
		return err
	}
	if m.MinEffectiveHTLCCapacityMsat, err = readUint64(r); err != nil {
		return err
	}
	_, err = io.ReadFull(r, m.Seed[:])
	return err
}

// Open triggers the funder path.
type Open struct {
	FundingSatoshis uint64
	PushMSat        uint64
	FeeratePerKW    uint32
	MaxMinimumDepth uint32
}

var _ Message = (*Open)(nil)

func (m *Open) MsgType() MsgType { return MsgOpen }

func (m *Open) Encode(w *bytes.Buffer) error {
	if err := writeUint64(w, m.FundingSatoshis); err != nil {
		return err
	}
	if err := writeUint64(w, m.PushMSat); err != nil {
		return err
	}
	if err := writeUint32(w, m.FeeratePerKW); err != nil {
		return err
	}
	return writeUint32(w, m.MaxMinimumDepth)
}

func (m *Open) Decode(r io.Reader) error {
	var err error
	if m.FundingSatoshis, err = readUint64(r); err != nil {
		return err
	}
	if m.PushMSat, err = readUint64(r); err != nil {
		return err
	}
	if m.FeeratePerKW, err = readUint32(r); err != nil {
		return err
	}
	m.MaxMinimumDepth, err = readUint32(r)
	return err
}

// Accept triggers the fundee path, carrying the already-received
// open_channel bytes verbatim (the wire decode happens inside the engine
// so validation failures are reported uniformly).
type Accept struct {
	MinFeerate       uint32
	MaxFeerate       uint32
	OpenChannelBytes []byte
}

var _ Message = (*Accept)(nil)

func (m *Accept) MsgType() MsgType { return MsgAccept }

func (m *Accept) Encode(w *bytes.Buffer) error {
	if err := writeUint32(w, m.MinFeerate); err != nil {
		return err
	}
	if err := writeUint32(w, m.MaxFeerate); err != nil {
		return err
	}
	return writeVarBytes(w, m.OpenChannelBytes)
}

func (m *Accept) Decode(r io.Reader) error {
	var err error
	if m.MinFeerate, err = readUint32(r); err != nil {
		return err
	}
	if m.MaxFeerate, err = readUint32(r); err != nil {
		return err
	}
	m.OpenChannelBytes, err = readVarBytes(r)
	return err
}

// OpenResp is sent by the engine mid-flow (funder path only) once it knows
// both funding pubkeys, asking the supervisor to fund and broadcast the
// transaction.
type OpenResp struct {
	OurFundingPubkey   *btcec.PublicKey
	TheirFundingPubkey *btcec.PublicKey
}

var _ Message = (*OpenResp)(nil)

func (m *OpenResp) MsgType() MsgType { return MsgOpenResp }

func (m *OpenResp) Encode(w *bytes.Buffer) error {
	if err := writePublicKey(w, m.OurFundingPubkey); err != nil {
		return err
	}
	return writePublicKey(w, m.TheirFundingPubkey)
}

func (m *OpenResp) Decode(r io.Reader) error {
	pub, err := readPublicKey(r)
	if err != nil {
		return err
	}
	m.OurFundingPubkey = pub

	pub, err = readPublicKey(r)
	if err != nil {
		return err
	}
	m.TheirFundingPubkey = pub

	return nil
}

// OpenFunding is the supervisor's mid-flow reply to OpenResp: the outpoint
// of the (not yet confirmed) funding transaction it has constructed.
type OpenFunding struct {
	FundingTxid  [32]byte
	FundingTxout uint16
}

var _ Message = (*OpenFunding)(nil)

func (m *OpenFunding) MsgType() MsgType { return MsgOpenFunding }

func (m *OpenFunding) Encode(w *bytes.Buffer) error {
	if err := writeBytes(w, m.FundingTxid[:]); err != nil {
		return err
	}
	return writeUint16(w, m.FundingTxout)
}

func (m *OpenFunding) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, m.FundingTxid[:]); err != nil {
		return err
	}
	var err error
	m.FundingTxout, err = readUint16(r)
	return err
}

// Result is the terminal success payload, sent as open_funding_resp (funder)
// or accept_resp (fundee). It carries everything the supervisor needs to
// persist the new channel.
type Result struct {
	TemporaryChannelID [32]byte

	RemoteDustLimitSatoshis        uint64
	RemoteMaxHTLCValueInFlightMSat uint64
	RemoteChannelReserveSatoshis   uint64
	RemoteHTLCMinimumMSat          uint32
	RemoteToSelfDelay              uint16
	RemoteMaxAcceptedHTLCs         uint16

	RemoteFundingKey              *btcec.PublicKey
	RemoteRevocationBasepoint     *btcec.PublicKey
	RemotePaymentBasepoint        *btcec.PublicKey
	RemoteDelayedPaymentBasepoint *btcec.PublicKey

	// NextPerCommitRemote is the remote's next per-commitment point, as
	// learned from the peer's accept_channel (funder path) or open_channel
	// (fundee path).
	NextPerCommitRemote *btcec.PublicKey

	// TheirSig is the peer's signature on our first commitment
	// transaction.
	TheirSig [64]byte

	FundingTxid  [32]byte
	FundingTxout uint16
}

var _ Message = (*Result)(nil)

func (m *Result) MsgType() MsgType { return MsgResult }

func (m *Result) Encode(w *bytes.Buffer) error {
	if err := writeBytes(w, m.TemporaryChannelID[:]); err != nil {
		return err
	}
	if err := writeUint64(w, m.RemoteDustLimitSatoshis); err != nil {
		return err
	}
	if err := writeUint64(w, m.RemoteMaxHTLCValueInFlightMSat); err != nil {
		return err
	}
	if err := writeUint64(w, m.RemoteChannelReserveSatoshis); err != nil {
		return err
	}
	if err := writeUint32(w, m.RemoteHTLCMinimumMSat); err != nil {
		return err
	}
	if err := writeUint16(w, m.RemoteToSelfDelay); err != nil {
		return err
	}
	if err := writeUint16(w, m.RemoteMaxAcceptedHTLCs); err != nil {
		return err
	}
	for _, k := range []*btcec.PublicKey{
		m.RemoteFundingKey, m.RemoteRevocationBasepoint,
		m.RemotePaymentBasepoint, m.RemoteDelayedPaymentBasepoint,
		m.NextPerCommitRemote,
	} {
		if err := writePublicKey(w, k); err != nil {
			return err
		}
	}
	if err := writeBytes(w, m.TheirSig[:]); err != nil {
		return err
	}
	if err := writeBytes(w, m.FundingTxid[:]); err != nil {
		return err
	}
	return writeUint16(w, m.FundingTxout)
}

func (m *Result) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, m.TemporaryChannelID[:]); err != nil {
		return err
	}

	var err error
	if m.RemoteDustLimitSatoshis, err = readUint64(r); err != nil {
		return err
	}
	if m.RemoteMaxHTLCValueInFlightMSat, err = readUint64(r); err != nil {
		return err
	}
	if m.RemoteChannelReserveSatoshis, err = readUint64(r); err != nil {
		return err
	}
	if m.RemoteHTLCMinimumMSat, err = readUint32(r); err != nil {
		return err
	}
	if m.RemoteToSelfDelay, err = readUint16(r); err != nil {
		return err
	}
	if m.RemoteMaxAcceptedHTLCs, err = readUint16(r); err != nil {
		return err
	}

	keys := []**btcec.PublicKey{
		&m.RemoteFundingKey, &m.RemoteRevocationBasepoint,
		&m.RemotePaymentBasepoint, &m.RemoteDelayedPaymentBasepoint,
		&m.NextPerCommitRemote,
	}
	for _, k := range keys {
		pub, err := readPublicKey(r)
		if err != nil {
			return err
		}
		*k = pub
	}

	if _, err := io.ReadFull(r, m.TheirSig[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, m.FundingTxid[:]); err != nil {
		return err
	}
	m.FundingTxout, err = readUint16(r)
	return err
}

// ExitReq is sent by the supervisor once it has taken ownership of the peer
// descriptor, telling the engine it may terminate.
type ExitReq struct{}

var _ Message = (*ExitReq)(nil)

func (m *ExitReq) MsgType() MsgType           { return MsgExitReq }
func (m *ExitReq) Encode(*bytes.Buffer) error { return nil }
func (m *ExitReq) Decode(io.Reader) error     { return nil }

// FatalKind enumerates the structured failure kinds reported to the
// supervisor. The numeric values are wire-stable.
type FatalKind uint8

const (
	KindPeerBadInitialMessage FatalKind = iota + 1
	KindPeerBadFunding
	KindPeerBadConfig
	KindPeerReadFailed
	KindPeerWriteFailed
	KindBadParam
	KindBadCommand
	KindKeyDerivationFailed
)

// Fatal reports the terminal failure kind and a human-readable message to
// the supervisor. It is always the last message the engine sends before
// exiting nonzero, except on success.
type Fatal struct {
	Kind    FatalKind
	Message string
}

var _ Message = (*Fatal)(nil)

func (m *Fatal) MsgType() MsgType { return MsgFatal }

func (m *Fatal) Encode(w *bytes.Buffer) error {
	if err := w.WriteByte(byte(m.Kind)); err != nil {
		return err
	}
	return writeVarBytes(w, []byte(m.Message))
}

func (m *Fatal) Decode(r io.Reader) error {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return err
	}
	m.Kind = FatalKind(kind[0])

	msg, err := readVarBytes(r)
	if err != nil {
		return err
	}
	m.Message = string(msg)

	return nil
}

func writePublicKey(w *bytes.Buffer, pub *btcec.PublicKey) error {
	return writeBytes(w, pub.SerializeCompressed())
}

func readPublicKey(r io.Reader) (*btcec.PublicKey, error) {
	var b [33]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(b[:])
}
