package lnwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MsgType is the unique 2-byte big-endian integer identifying a message on
// the peer wire. Values mirror the BOLT-2 assignments for the funding
// subset of messages this engine speaks.
type MsgType uint16

const (
	MsgOpenChannel    MsgType = 32
	MsgAcceptChannel  MsgType = 33
	MsgFundingCreated MsgType = 34
	MsgFundingSigned  MsgType = 35
	MsgError          MsgType = 17
)

// String returns a human readable name for the message type.
func (t MsgType) String() string {
	switch t {
	case MsgOpenChannel:
		return "open_channel"
	case MsgAcceptChannel:
		return "accept_channel"
	case MsgFundingCreated:
		return "funding_created"
	case MsgFundingSigned:
		return "funding_signed"
	case MsgError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// Message is implemented by every peer-wire message this engine sends or
// receives.
type Message interface {
	// Encode serializes the message body (excluding the type prefix) into
	// w.
	Encode(w *bytes.Buffer) error

	// Decode populates the message from its wire body as found in r.
	Decode(r io.Reader) error

	// MsgType returns the wire type discriminant for this message.
	MsgType() MsgType
}

// UnknownMessageError is returned by ReadMessage when the 2-byte type
// prefix does not correspond to a message this engine understands.
type UnknownMessageError struct {
	Type MsgType
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown peer message type %v", e.Type)
}

func makeEmptyMessage(t MsgType) (Message, error) {
	switch t {
	case MsgOpenChannel:
		return &OpenChannel{}, nil
	case MsgAcceptChannel:
		return &AcceptChannel{}, nil
	case MsgFundingCreated:
		return &FundingCreated{}, nil
	case MsgFundingSigned:
		return &FundingSigned{}, nil
	case MsgError:
		return &Error{}, nil
	default:
		return nil, &UnknownMessageError{Type: t}
	}
}

// WriteMessage serializes msg, including its 2-byte type prefix, to w.
func WriteMessage(w io.Writer, msg Message) error {
	var buf bytes.Buffer

	var typeBytes [2]byte
	binary.BigEndian.PutUint16(typeBytes[:], uint16(msg.MsgType()))
	if _, err := buf.Write(typeBytes[:]); err != nil {
		return err
	}

	if err := msg.Encode(&buf); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadMessage reads and decodes the next peer-wire message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var typeBytes [2]byte
	if _, err := io.ReadFull(r, typeBytes[:]); err != nil {
		return nil, err
	}
	t := MsgType(binary.BigEndian.Uint16(typeBytes[:]))

	msg, err := makeEmptyMessage(t)
	if err != nil {
		return nil, err
	}

	if err := msg.Decode(r); err != nil {
		return nil, err
	}

	return msg, nil
}
