// Package wire implements the length-prefixed binary frame codec used on the
// bearcub TCP connection. A frame is the smallest unit of wire transfer;
// multiple frames are assembled into a message by the message package.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Magic is the 4-byte ASCII protocol version marker at the start of every frame.
const Magic = "c0.1"

// Header layout: magic(4) + length(4) + n_remaining_frames(4) + msg_type_flag(1).
const headerSize = 4 + 4 + 4 + 1

// UserIDLen is the fixed width of the user_id field, a canonical UUID string.
const UserIDLen = 36

// Message type flags (ASCII).
const (
	FlagGetByID   byte = 'G'
	FlagGetByPath byte = 'P'
	FlagPut       byte = 'p'
	FlagSet       byte = 's'
	FlagRemove    byte = 'R'
	FlagList      byte = 'L'
	FlagData      byte = 'd'
	FlagError     byte = 'e'
)

// RequiresUserID reports whether frames of this type carry a user_id field.
func RequiresUserID(flag byte) bool {
	switch flag {
	case FlagGetByID, FlagGetByPath, FlagPut, FlagSet, FlagRemove, FlagList:
		return true
	default:
		return false
	}
}

// Frame is one unit of wire transfer.
type Frame struct {
	UserID           string // empty iff not required for MsgTypeFlag
	HasUserID        bool
	NRemainingFrames uint32
	MsgTypeFlag      byte
	Data             []byte
}

// New builds a frame from its constituent fields.
func New(userID string, hasUserID bool, nRemaining uint32, flag byte, data []byte) *Frame {
	return &Frame{
		UserID:           userID,
		HasUserID:        hasUserID,
		NRemainingFrames: nRemaining,
		MsgTypeFlag:      flag,
		Data:             data,
	}
}

// Size returns the total serialized length of the frame, including the header.
func (f *Frame) Size() int {
	sz := headerSize
	if RequiresUserID(f.MsgTypeFlag) {
		sz += UserIDLen
	}
	return sz + len(f.Data)
}

// Encode serializes the frame to its wire representation.
//
// Encoding a user-id-required flag with no user_id set is a programming
// error on the caller's part: the wire format has nowhere to put "absent" for
// a required field, so this returns an error rather than writing garbage.
func (f *Frame) Encode() ([]byte, error) {
	if RequiresUserID(f.MsgTypeFlag) && !f.HasUserID {
		return nil, fmt.Errorf("wire: flag %q requires a user_id but none was set", f.MsgTypeFlag)
	}

	total := f.Size()
	buf := make([]byte, total)
	copy(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(total))
	binary.BigEndian.PutUint32(buf[8:12], f.NRemainingFrames)
	buf[12] = f.MsgTypeFlag

	off := headerSize
	if RequiresUserID(f.MsgTypeFlag) {
		if len(f.UserID) != UserIDLen {
			return nil, fmt.Errorf("wire: user_id must be %d bytes, got %d", UserIDLen, len(f.UserID))
		}
		copy(buf[off:off+UserIDLen], f.UserID)
		off += UserIDLen
	}
	copy(buf[off:], f.Data)
	return buf, nil
}

// Check reports the total frame length encoded in buf's header if and only if
// buf holds the 4-byte magic, a valid length field, and at least that many
// bytes total. It returns ok=false ("need more data") otherwise, without
// distinguishing "too short to tell" from "magic mismatch" — that
// distinction is TryParse's job.
func Check(buf []byte) (length int, ok bool) {
	if len(buf) < 8 || string(buf[0:4]) != Magic {
		return 0, false
	}
	sz := binary.BigEndian.Uint32(buf[4:8])
	if sz < headerSize || len(buf) < int(sz) {
		return 0, false
	}
	return int(sz), true
}

// TryParse consumes exactly one frame from the front of buf and returns it
// along with the number of bytes consumed. It returns an *Error whose Kind is
// ErrInvalidMagic, ErrShortBuffer, or ErrBadHeader on malformed input.
func TryParse(buf []byte) (*Frame, int, error) {
	if len(buf) < headerSize {
		return nil, 0, &Error{Kind: ErrShortBuffer, Message: "buffer shorter than frame header"}
	}
	if string(buf[0:4]) != Magic {
		return nil, 0, &Error{Kind: ErrInvalidMagic, Message: fmt.Sprintf("expected magic %q, got %q", Magic, buf[0:4])}
	}

	total := int(binary.BigEndian.Uint32(buf[4:8]))
	if total < headerSize {
		return nil, 0, &Error{Kind: ErrBadHeader, Message: fmt.Sprintf("frame length %d shorter than header", total)}
	}
	if len(buf) < total {
		return nil, 0, &Error{Kind: ErrShortBuffer, Message: fmt.Sprintf("need %d bytes, have %d", total, len(buf))}
	}

	nRemaining := binary.BigEndian.Uint32(buf[8:12])
	flag := buf[12]

	off := headerSize
	f := &Frame{NRemainingFrames: nRemaining, MsgTypeFlag: flag}
	if RequiresUserID(flag) {
		if total < off+UserIDLen {
			return nil, 0, &Error{Kind: ErrBadHeader, Message: "frame too short to hold required user_id"}
		}
		f.UserID = string(buf[off : off+UserIDLen])
		f.HasUserID = true
		off += UserIDLen
	}

	data := make([]byte, total-off)
	copy(data, buf[off:total])
	f.Data = data

	return f, total, nil
}
