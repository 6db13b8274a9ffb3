package engine

import (
	"io"

	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/lnwire"
)

// PeerConn is the engine's linear-ownership handle on the encrypted peer
// byte stream (fd 3). Once the terminal result has been sent to the
// supervisor, the engine must not read or write through PeerConn again;
// ownership of the underlying descriptor passes to the supervisor.
type PeerConn interface {
	io.ReadWriter

	// SendErr attempts a best-effort write of an error frame naming
	// channelID and msg. Failures are ignored by the caller: by the time
	// we're sending an error, the channel is already being abandoned.
	SendErr(channelID [32]byte, msg string) error
}

// peerConn is the concrete PeerConn backed by fd 3.
type peerConn struct {
	rw io.ReadWriter
}

// NewPeerConn wraps rw (normally os.NewFile(3, "peer")) as a PeerConn.
func NewPeerConn(rw io.ReadWriter) PeerConn {
	return &peerConn{rw: rw}
}

func (p *peerConn) Read(b []byte) (int, error)  { return p.rw.Read(b) }
func (p *peerConn) Write(b []byte) (int, error) { return p.rw.Write(b) }

func (p *peerConn) SendErr(channelID [32]byte, msg string) error {
	errMsg := &lnwire.Error{
		ChannelID: channelID,
		Data:      []byte(msg),
	}

	return lnwire.WriteMessage(p.rw, errMsg)
}

// failChannel sends a best-effort error frame to the peer and returns a
// *ChannelError describing the failure; callers should return its result
// directly.
func failChannel(peer PeerConn, channelID [32]byte, kind ctrlwire.FatalKind, format string, args ...interface{}) error {
	cerr := newChannelError(kind, format, args...)

	// Best-effort: a write failure here must not mask the original
	// protocol failure.
	_ = peer.SendErr(channelID, cerr.Msg)

	return cerr
}
