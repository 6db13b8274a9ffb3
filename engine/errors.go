package engine

import (
	"fmt"

	"github.com/lnopeningd/openingd/ctrlwire"
)

// ChannelError is a protocol failure: the peer violated a MUST in the BOLT,
// or something it sent does not verify. Handling a ChannelError means
// best-effort notifying the peer with an error frame, reporting the
// matching ctrlwire.FatalKind to the supervisor, and exiting nonzero.
type ChannelError struct {
	Kind ctrlwire.FatalKind
	Msg  string
}

func (e *ChannelError) Error() string {
	return e.Msg
}

func newChannelError(kind ctrlwire.FatalKind, format string, args ...interface{}) *ChannelError {
	return &ChannelError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// LocalError is a failure with no peer-protocol component: a malformed
// supervisor command, an unreadable control channel, or a key derivation
// that produced an invalid scalar. No error frame is sent to the peer.
type LocalError struct {
	Kind ctrlwire.FatalKind
	Msg  string
}

func (e *LocalError) Error() string {
	return e.Msg
}

func newLocalError(kind ctrlwire.FatalKind, format string, args ...interface{}) *LocalError {
	return &LocalError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
