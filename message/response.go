package message

import (
	"encoding/binary"
	"fmt"

	"github.com/machinefabric/bearcub/wire"
)

// ResponseKind discriminates the variants of ResponseMessage.
type ResponseKind int

const (
	ResponseKindData ResponseKind = iota
	ResponseKindError
)

// Response is a tagged ResponseMessage: either a raw byte payload or an
// error code with a human-readable description.
type Response struct {
	Kind ResponseKind

	Data []byte

	Code        uint32
	Description string
}

// NewDataResponse builds a successful Data response.
func NewDataResponse(data []byte) Response {
	return Response{Kind: ResponseKindData, Data: data}
}

// NewErrorResponse builds an Error response with the given wire error code.
func NewErrorResponse(code uint32, description string) Response {
	return Response{Kind: ResponseKindError, Code: code, Description: description}
}

// ToFrames fragments the response into the frame sequence the wire protocol expects.
// Response frames never carry a user_id: the connection already knows which
// tenant's request it is answering.
func (r Response) ToFrames() ([]*wire.Frame, error) {
	switch r.Kind {
	case ResponseKindData:
		return chunkDataFrames(r.Data), nil

	case ResponseKindError:
		payload := make([]byte, 4+len(r.Description))
		binary.BigEndian.PutUint32(payload[0:4], r.Code)
		copy(payload[4:], r.Description)
		return []*wire.Frame{wire.New("", false, 1, wire.FlagError, payload)}, nil

	default:
		return nil, &Error{Kind: ErrUnknownKind, Message: fmt.Sprintf("unknown response kind %d", r.Kind)}
	}
}

func chunkDataFrames(data []byte) []*wire.Frame {
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
		chunk := make([]byte, end-offset)
		copy(chunk, data[offset:end])
		offset = end
		frames = append(frames, wire.New("", false, uint32(nFrames-i), wire.FlagData, chunk))
	}
	return frames
}

// ResponseFromFrames reassembles a Response from a complete frame sequence.
func ResponseFromFrames(frames []*wire.Frame) (Response, error) {
	if len(frames) == 0 {
		return Response{}, &Error{Kind: ErrEmptyFrames, Message: "no frames to parse"}
	}
	first := frames[0]

	switch first.MsgTypeFlag {
	case wire.FlagData:
		return NewDataResponse(spliceBodies(first.Data, frames[1:])), nil

	case wire.FlagError:
		if len(first.Data) < 4 {
			return Response{}, &Error{Kind: ErrShortErrorFrame, Message: "error frame shorter than code field"}
		}
		code := binary.BigEndian.Uint32(first.Data[0:4])
		return NewErrorResponse(code, string(first.Data[4:])), nil

	default:
		return Response{}, &Error{Kind: ErrUnknownFlag, Message: fmt.Sprintf("unrecognized response flag %q", first.MsgTypeFlag)}
	}
}
