// Package message implements the message layer: mapping Request and
// Response values to and from sequences of wire.Frame.
package message

import (
	"fmt"

	"github.com/machinefabric/bearcub/wire"
)

// DataBytesPerFrame is the chunk size for fragmenting a message body across
// frames: 4096 minus 128 bytes of slab headroom, leaving room for the
// largest possible frame header (13 base + 36 user_id = 49 bytes).
const DataBytesPerFrame = 4096 - 128

// Kind discriminates the variants of RequestMessage.
type Kind int

const (
	KindGet Kind = iota
	KindPut
	KindSet
	KindRemove
	KindList
)

// Request is a tagged RequestMessage: Get{id|path}, Put, Set, Remove, List.
// Only the fields relevant to Kind are meaningful.
type Request struct {
	Kind   Kind
	UserID string

	ID     string // Get (by id), Put, Set, Remove
	HasID  bool
	Path   string // Get (by path)
	HasPath bool

	Parent    string // Put only
	HasParent bool

	Data []byte // Put, Set

	BlobID    string // List: optional start-at id
	HasBlobID bool
}

// NewGetByID builds a Get request targeting a specific id.
func NewGetByID(userID, id string) Request {
	return Request{Kind: KindGet, UserID: userID, ID: id, HasID: true}
}

// NewGetByPath builds a Get request resolved via title-path lookup.
func NewGetByPath(userID, path string) Request {
	return Request{Kind: KindGet, UserID: userID, Path: path, HasPath: true}
}

// NewPut builds a Put request. parent is the empty string with hasParent
// false to mean "attach under root".
func NewPut(userID, id, parent string, hasParent bool, data []byte) Request {
	return Request{Kind: KindPut, UserID: userID, ID: id, HasID: true, Parent: parent, HasParent: hasParent, Data: data}
}

// NewSet builds a Set request.
func NewSet(userID, id string, data []byte) Request {
	return Request{Kind: KindSet, UserID: userID, ID: id, HasID: true, Data: data}
}

// NewRemove builds a Remove request. The wire format supports it; the core
// provider replies InvalidMessage because removal isn't implemented.
func NewRemove(userID, id string) Request {
	return Request{Kind: KindRemove, UserID: userID, ID: id, HasID: true}
}

// NewList builds a List request. An empty blobID (hasBlobID=false) lists from root.
func NewList(userID, blobID string, hasBlobID bool) Request {
	return Request{Kind: KindList, UserID: userID, BlobID: blobID, HasBlobID: hasBlobID}
}

var zero36 = make([]byte, wire.UserIDLen)

// ToFrames fragments the request into the frame sequence the wire protocol expects.
func (r Request) ToFrames() ([]*wire.Frame, error) {
	if len(r.UserID) != wire.UserIDLen {
		return nil, &Error{Kind: ErrInvalidUserID, Message: fmt.Sprintf("user_id must be %d bytes, got %d", wire.UserIDLen, len(r.UserID))}
	}

	switch r.Kind {
	case KindGet:
		// id takes precedence over path when a caller sets both.
		if r.HasID {
			return []*wire.Frame{wire.New(r.UserID, true, 1, wire.FlagGetByID, []byte(r.ID))}, nil
		}
		if r.HasPath {
			return []*wire.Frame{wire.New(r.UserID, true, 1, wire.FlagGetByPath, []byte(r.Path))}, nil
		}
		return nil, &Error{Kind: ErrMissingTarget, Message: "Get requires id or path"}

	case KindPut:
		prefix := make([]byte, 0, 2*wire.UserIDLen)
		prefix = append(prefix, padID(r.ID)...)
		if r.HasParent {
			prefix = append(prefix, padID(r.Parent)...)
		} else {
			prefix = append(prefix, zero36...)
		}
		return chunkFrames(r.UserID, wire.FlagPut, prefix, r.Data), nil

	case KindSet:
		prefix := padID(r.ID)
		return chunkFrames(r.UserID, wire.FlagSet, prefix, r.Data), nil

	case KindRemove:
		return []*wire.Frame{wire.New(r.UserID, true, 1, wire.FlagRemove, []byte(r.ID))}, nil

	case KindList:
		payload := []byte{}
		if r.HasBlobID {
			payload = []byte(r.BlobID)
		}
		return []*wire.Frame{wire.New(r.UserID, true, 1, wire.FlagList, payload)}, nil

	default:
		return nil, &Error{Kind: ErrUnknownKind, Message: fmt.Sprintf("unknown request kind %d", r.Kind)}
	}
}

func padID(id string) []byte {
	b := make([]byte, wire.UserIDLen)
	copy(b, id)
	return b
}

// chunkFrames builds the frame sequence for Put/Set: a header prefix glued to
// the front of frame 0's body, with the JSON body fragmented in
// DataBytesPerFrame chunks across as many frames as needed (minimum 1).
func chunkFrames(userID string, firstFlag byte, prefix []byte, data []byte) []*wire.Frame {
	nFrames := len(data) / DataBytesPerFrame
	if len(data)%DataBytesPerFrame != 0 || nFrames == 0 {
		nFrames++
	}

	frames := make([]*wire.Frame, 0, nFrames)
	offset := 0
	for i := 0; i < nFrames; i++ {
		end := offset + DataBytesPerFrame
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		offset = end

		remaining := uint32(nFrames - i)
		if i == 0 {
			payload := append(append([]byte{}, prefix...), chunk...)
			frames = append(frames, wire.New(userID, true, remaining, firstFlag, payload))
		} else {
			frames = append(frames, wire.New("", false, remaining, wire.FlagData, append([]byte{}, chunk...)))
		}
	}
	return frames
}

// RequestFromFrames reassembles a Request from a complete frame sequence
// (the reader has already collected frames up to n_remaining_frames == 1).
func RequestFromFrames(frames []*wire.Frame) (Request, error) {
	if len(frames) == 0 {
		return Request{}, &Error{Kind: ErrEmptyFrames, Message: "no frames to parse"}
	}
	first := frames[0]
	if !first.HasUserID {
		return Request{}, &Error{Kind: ErrMissingUserID, Message: "request frame missing required user_id"}
	}
	userID := first.UserID

	switch first.MsgTypeFlag {
	case wire.FlagGetByID:
		return NewGetByID(userID, string(first.Data)), nil
	case wire.FlagGetByPath:
		return NewGetByPath(userID, string(first.Data)), nil
	case wire.FlagRemove:
		return NewRemove(userID, string(first.Data)), nil
	case wire.FlagList:
		if len(first.Data) == 0 {
			return NewList(userID, "", false), nil
		}
		return NewList(userID, string(first.Data), true), nil

	case wire.FlagPut:
		if len(first.Data) < 2*wire.UserIDLen {
			return Request{}, &Error{Kind: ErrShortPrefix, Message: "Put frame shorter than id+parent prefix"}
		}
		id := trimID(first.Data[0:wire.UserIDLen])
		parentBytes := first.Data[wire.UserIDLen : 2*wire.UserIDLen]
		body := spliceBodies(first.Data[2*wire.UserIDLen:], frames[1:])
		if isZero(parentBytes) {
			return NewPut(userID, id, "", false, body), nil
		}
		return NewPut(userID, id, trimID(parentBytes), true, body), nil

	case wire.FlagSet:
		if len(first.Data) < wire.UserIDLen {
			return Request{}, &Error{Kind: ErrShortPrefix, Message: "Set frame shorter than id prefix"}
		}
		id := trimID(first.Data[0:wire.UserIDLen])
		body := spliceBodies(first.Data[wire.UserIDLen:], frames[1:])
		return NewSet(userID, id, body), nil

	default:
		return Request{}, &Error{Kind: ErrUnknownFlag, Message: fmt.Sprintf("unrecognized request flag %q", first.MsgTypeFlag)}
	}
}

func trimID(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

func spliceBodies(firstChunk []byte, rest []*wire.Frame) []byte {
	total := len(firstChunk)
	for _, f := range rest {
		total += len(f.Data)
	}
	body := make([]byte, 0, total)
	body = append(body, firstChunk...)
	for _, f := range rest {
		body = append(body, f.Data...)
	}
	return body
}

// ErrCode values are the wire error codes carried in Error responses.
const (
	ErrCodeFrameParse   uint32 = 2
	ErrCodeInvalidMsg   uint32 = 11
	ErrCodeNoSuchEntity uint32 = 12
)
