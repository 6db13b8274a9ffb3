// Package ctrlwire implements the framed request/response protocol between
// the opening engine and its supervisor, carried over stdin (control-in)
// and stdout (control-out). It deliberately mirrors the wire-message
// conventions of package lnwire, but uses its own framing: a 4-byte
// big-endian length prefix around a 1-byte type-tagged body, since the
// supervisor channel has no notion of protocol version.
package ctrlwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MsgType discriminates supervisor control-wire frames.
type MsgType uint8

const (
	MsgInit MsgType = iota + 1
	MsgOpen
	MsgAccept
	MsgOpenResp
	MsgOpenFunding
	MsgResult
	MsgExitReq
	MsgFatal
)

func (t MsgType) String() string {
	switch t {
	case MsgInit:
		return "init"
	case MsgOpen:
		return "open"
	case MsgAccept:
		return "accept"
	case MsgOpenResp:
		return "open_resp"
	case MsgOpenFunding:
		return "open_funding"
	case MsgResult:
		return "result"
	case MsgExitReq:
		return "exit_req"
	case MsgFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// maxFrameBody caps a single control frame body, guarding against a
// corrupt or hostile length prefix causing an unbounded allocation.
const maxFrameBody = 1 << 20

// Message is implemented by every supervisor control-wire frame.
type Message interface {
	Encode(w *bytes.Buffer) error
	Decode(r io.Reader) error
	MsgType() MsgType
}

// UnknownMessageError is returned by ReadMessage when a frame's type byte
// does not correspond to a known control message.
type UnknownMessageError struct {
	Type MsgType
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown control message type %v", e.Type)
}

func makeEmptyMessage(t MsgType) (Message, error) {
	switch t {
	case MsgInit:
		return &Init{}, nil
	case MsgOpen:
		return &Open{}, nil
	case MsgAccept:
		return &Accept{}, nil
	case MsgOpenResp:
		return &OpenResp{}, nil
	case MsgOpenFunding:
		return &OpenFunding{}, nil
	case MsgResult:
		return &Result{}, nil
	case MsgExitReq:
		return &ExitReq{}, nil
	case MsgFatal:
		return &Fatal{}, nil
	default:
		return nil, &UnknownMessageError{Type: t}
	}
}

// WriteMessage frames msg as [4-byte length][1-byte type][body] and writes
// it to w.
func WriteMessage(w io.Writer, msg Message) error {
	var body bytes.Buffer
	if err := msg.Encode(&body); err != nil {
		return err
	}

	if body.Len() > maxFrameBody {
		return fmt.Errorf("control message body of %d bytes exceeds max %d",
			body.Len(), maxFrameBody)
	}

	var frame bytes.Buffer
	frameLen := uint32(1 + body.Len())
	if err := binary.Write(&frame, binary.BigEndian, frameLen); err != nil {
		return err
	}
	if err := frame.WriteByte(byte(msg.MsgType())); err != nil {
		return err
	}
	if _, err := frame.Write(body.Bytes()); err != nil {
		return err
	}

	_, err := w.Write(frame.Bytes())
	return err
}

// ReadMessage reads and decodes the next framed control message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return nil, err
	}
	frameLen := binary.BigEndian.Uint32(lenBytes[:])
	if frameLen == 0 || frameLen > 1+maxFrameBody {
		return nil, fmt.Errorf("invalid control frame length %d", frameLen)
	}

	body := make([]byte, frameLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	msg, err := makeEmptyMessage(MsgType(body[0]))
	if err != nil {
		return nil, err
	}

	if err := msg.Decode(bytes.NewReader(body[1:])); err != nil {
		return nil, err
	}

	return msg, nil
}

// writeBytes writes a raw byte slice verbatim.
func writeBytes(w *bytes.Buffer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// writeVarBytes writes a length-prefixed (uint32) variable-length byte
// slice.
func writeVarBytes(w *bytes.Buffer, b []byte) error {
	if len(b) > math.MaxUint32 {
		return fmt.Errorf("byte slice of length %d too large", len(b))
	}
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	return writeBytes(w, b)
}

func readVarBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxFrameBody {
		return nil, fmt.Errorf("var bytes length %d exceeds max", n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeUint16(w *bytes.Buffer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint32(w *bytes.Buffer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w *bytes.Buffer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
