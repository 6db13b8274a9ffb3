package engine

import (
	"bytes"
	"crypto/rand"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/lnwire"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	var seed [32]byte
	_, err := rand.Read(seed[:])
	require.NoError(t, err)

	cfg, err := NewConfig(&ctrlwire.Init{
		LocalDustLimitSatoshis:        546,
		LocalMaxHTLCValueInFlightMSat: 4_294_967_295,
		LocalHTLCMinimumMSat:          1,
		LocalToSelfDelay:              144,
		LocalMaxAcceptedHTLCs:         30,
		LocalMinimumDepth:             3,
		MaxToSelfDelay:                2016,
		MinEffectiveHTLCCapacityMsat:  1,
		Seed:                          seed,
	})
	require.NoError(t, err)

	return cfg
}

// fakeSupervisor is a stub Supervisor: Send just records, Recv drains a
// preloaded queue.
type fakeSupervisor struct {
	sent  []ctrlwire.Message
	queue []ctrlwire.Message
}

func (f *fakeSupervisor) Send(msg ctrlwire.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSupervisor) Recv() (ctrlwire.Message, error) {
	if len(f.queue) == 0 {
		return nil, io.EOF
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

// panicPeer fails the test immediately on any use: it stands in for "no
// peer I/O must happen on this path".
type panicPeer struct{}

func (panicPeer) Read([]byte) (int, error)      { panic("unexpected peer read") }
func (panicPeer) Write([]byte) (int, error)     { panic("unexpected peer write") }
func (panicPeer) SendErr([32]byte, string) error { panic("unexpected peer error frame") }

// netPeer adapts a net.Conn to PeerConn for tests that want a real
// bidirectional byte stream between two state machines.
func netPeer(c net.Conn) PeerConn { return NewPeerConn(c) }

func TestHappyFunderFundeeDialogue(t *testing.T) {
	cfgFunder := testConfig(t)
	cfgFundee := testConfig(t)

	connFunder, connFundee := net.Pipe()
	peerFunder := netPeer(connFunder)
	peerFundee := netPeer(connFundee)

	openReq := &ctrlwire.Open{
		FundingSatoshis: 1_000_000,
		PushMSat:        0,
		FeeratePerKW:    15000,
		MaxMinimumDepth: 10,
	}

	supFunder := &fakeSupervisor{
		queue: []ctrlwire.Message{
			&ctrlwire.OpenFunding{
				FundingTxid:  [32]byte{1, 2, 3, 4},
				FundingTxout: 0,
			},
		},
	}

	type funderOutcome struct {
		result *ctrlwire.Result
		err    error
	}
	funderDone := make(chan funderOutcome, 1)
	go func() {
		res, err := RunFunder(cfgFunder, peerFunder, supFunder, openReq)
		funderDone <- funderOutcome{res, err}
	}()

	// Act as the supervisor delivering a freshly-received open_channel to
	// a fundee process: read it straight off the wire and re-frame it as
	// the Accept payload.
	openOnWire, err := lnwire.ReadMessage(peerFundee)
	require.NoError(t, err)
	openChan, ok := openOnWire.(*lnwire.OpenChannel)
	require.True(t, ok)

	var openBuf bytes.Buffer
	require.NoError(t, lnwire.WriteMessage(&openBuf, openChan))

	fundeeResult, err := RunFundee(cfgFundee, peerFundee, &ctrlwire.Accept{
		MinFeerate:       253,
		MaxFeerate:       1_000_000,
		OpenChannelBytes: openBuf.Bytes(),
	})
	require.NoError(t, err)

	outcome := <-funderDone
	require.NoError(t, outcome.err)
	funderResult := outcome.result

	require.Equal(t, funderResult.FundingTxid, fundeeResult.FundingTxid)
	require.Equal(t, funderResult.FundingTxout, fundeeResult.FundingTxout)
	require.Equal(t, cfgFunder.Keys.Points.FundingKey.SerializeCompressed(),
		fundeeResult.RemoteFundingKey.SerializeCompressed())
	require.Equal(t, cfgFundee.Keys.Points.FundingKey.SerializeCompressed(),
		funderResult.RemoteFundingKey.SerializeCompressed())

	require.Len(t, supFunder.sent, 1)
	openResp, ok := supFunder.sent[0].(*ctrlwire.OpenResp)
	require.True(t, ok)
	require.Equal(t, cfgFunder.Keys.Points.FundingKey.SerializeCompressed(),
		openResp.OurFundingPubkey.SerializeCompressed())
}

func TestFunderBadPushRejectedBeforePeerIO(t *testing.T) {
	cfg := testConfig(t)

	openReq := &ctrlwire.Open{
		FundingSatoshis: 1000,
		PushMSat:        1_000_001,
		FeeratePerKW:    15000,
		MaxMinimumDepth: 10,
	}

	_, err := RunFunder(cfg, panicPeer{}, &fakeSupervisor{}, openReq)
	require.Error(t, err)

	var cerr *ChannelError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, ctrlwire.KindBadParam, cerr.Kind)
}

func TestFundeeToSelfDelayTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bounds.MaxToSelfDelay = 1008

	peerKeys := testConfig(t).Keys

	openChan := &lnwire.OpenChannel{
		ChainHash:                cfg.ChainHash,
		TemporaryChannelID:       [32]byte{0xFF},
		FundingSatoshis:          1_000_000,
		PushMSat:                 0,
		DustLimitSatoshis:        546,
		MaxHTLCValueInFlightMSat: 4_294_967_295,
		ChannelReserveSatoshis:   10_000,
		HTLCMinimumMSat:          1,
		FeeratePerKW:             15000,
		ToSelfDelay:              1009,
		MaxAcceptedHTLCs:         30,
		FundingKey:               peerKeys.Points.FundingKey,
		RevocationBasepoint:      peerKeys.Points.RevocationBasepoint,
		PaymentBasepoint:         peerKeys.Points.PaymentBasepoint,
		DelayedPaymentBasepoint:  peerKeys.Points.DelayedPaymentBasepoint,
		FirstPerCommitmentPoint:  peerKeys.FirstPerCommit,
	}

	var buf bytes.Buffer
	require.NoError(t, lnwire.WriteMessage(&buf, openChan))

	_, err := RunFundee(cfg, sendOnlyPeer{}, &ctrlwire.Accept{
		MinFeerate:       253,
		MaxFeerate:       1_000_000,
		OpenChannelBytes: buf.Bytes(),
	})
	require.Error(t, err)

	var cerr *ChannelError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, ctrlwire.KindPeerBadConfig, cerr.Kind)
}

// sendOnlyPeer allows the best-effort error-frame write a failChannel call
// makes, but panics on anything else: no other peer I/O should happen on
// a path that fails before accept_channel is sent.
type sendOnlyPeer struct{}

func (sendOnlyPeer) Read([]byte) (int, error)       { panic("unexpected peer read") }
func (sendOnlyPeer) Write([]byte) (int, error)      { panic("unexpected peer write") }
func (sendOnlyPeer) SendErr([32]byte, string) error { return nil }

func TestFunderSignatureMismatch(t *testing.T) {
	cfg := testConfig(t)
	peerKeys := testConfig(t).Keys

	openReq := &ctrlwire.Open{
		FundingSatoshis: 1_000_000,
		PushMSat:        0,
		FeeratePerKW:    15000,
		MaxMinimumDepth: 10,
	}

	tempID := newTemporaryChannelID()

	accept := &lnwire.AcceptChannel{
		TemporaryChannelID:       tempID,
		DustLimitSatoshis:        546,
		MaxHTLCValueInFlightMSat: 4_294_967_295,
		ChannelReserveSatoshis:   10_000,
		MinimumDepth:             3,
		HTLCMinimumMSat:          1,
		ToSelfDelay:              144,
		MaxAcceptedHTLCs:         30,
		FundingKey:               peerKeys.Points.FundingKey,
		RevocationBasepoint:      peerKeys.Points.RevocationBasepoint,
		PaymentBasepoint:         peerKeys.Points.PaymentBasepoint,
		DelayedPaymentBasepoint:  peerKeys.Points.DelayedPaymentBasepoint,
		FirstPerCommitmentPoint:  peerKeys.FirstPerCommit,
	}

	// A syntactically valid but cryptographically meaningless signature:
	// the all-zero compact signature never verifies against a real key.
	var badSig lnwire.Sig

	signed := &lnwire.FundingSigned{
		ChannelID: tempID,
		CommitSig: badSig,
	}

	peer := newScriptedPeer(t, accept, signed)

	sup := &fakeSupervisor{
		queue: []ctrlwire.Message{
			&ctrlwire.OpenFunding{
				FundingTxid:  [32]byte{9, 9, 9},
				FundingTxout: 0,
			},
		},
	}

	_, err := RunFunder(cfg, peer, sup, openReq)
	require.Error(t, err)

	var cerr *ChannelError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, ctrlwire.KindPeerReadFailed, cerr.Kind)
}

// scriptedPeer replays a fixed sequence of peer-wire messages on Read and
// discards writes, for tests that only need to control the counterparty's
// replies.
type scriptedPeer struct {
	incoming []io.Reader
	out      bytes.Buffer
}

func newScriptedPeer(t *testing.T, msgs ...lnwire.Message) *scriptedPeer {
	t.Helper()

	sp := &scriptedPeer{}
	for _, m := range msgs {
		var buf bytes.Buffer
		require.NoError(t, lnwire.WriteMessage(&buf, m))
		sp.incoming = append(sp.incoming, bytes.NewReader(buf.Bytes()))
	}
	return sp
}

func (s *scriptedPeer) Read(p []byte) (int, error) {
	for len(s.incoming) > 0 {
		n, err := s.incoming[0].Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			s.incoming = s.incoming[1:]
			continue
		}
		return n, err
	}
	return 0, io.EOF
}

func (s *scriptedPeer) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *scriptedPeer) SendErr([32]byte, string) error { return nil }
