package lnwire

import (
	"bytes"
	"io"
)

// Error is sent to fail a channel in progress. The peer receiving it must
// abandon the channel identified by ChannelID (or, if ChannelID is the
// all-zero value, every channel currently being negotiated with the sender).
// The engine sends this best-effort when a protocol failure is detected; see
// SPEC_FULL.md §7.1.
type Error struct {
	ChannelID [32]byte
	Data      []byte
}

var _ Message = (*Error)(nil)

func (e *Error) MsgType() MsgType { return MsgError }

func (e *Error) Encode(w *bytes.Buffer) error {
	if err := WriteBytes(w, e.ChannelID[:]); err != nil {
		return err
	}
	if err := WriteUint16(w, uint16(len(e.Data))); err != nil {
		return err
	}
	return WriteBytes(w, e.Data)
}

func (e *Error) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, e.ChannelID[:]); err != nil {
		return err
	}

	dataLen, err := ReadUint16(r)
	if err != nil {
		return err
	}

	e.Data = make([]byte, dataLen)
	if _, err := io.ReadFull(r, e.Data); err != nil {
		return err
	}

	return nil
}

// String renders Data as a string for logging. Data is converted as-is; it
// is not checked for valid UTF-8.
func (e *Error) String() string {
	return string(e.Data)
}
