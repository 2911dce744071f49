package message

import "fmt"

// ErrorKind discriminates message-layer decode and validation failures: a
// typed discriminant plus a message, so callers can switch on the failure
// category instead of matching on string content.
type ErrorKind int

const (
	// ErrInvalidUserID means a user_id field was the wrong length.
	ErrInvalidUserID ErrorKind = iota
	// ErrMissingTarget means a Get request set neither ID nor Path.
	ErrMissingTarget
	// ErrUnknownKind means a Request or Response carried an unrecognized Kind.
	ErrUnknownKind
	// ErrEmptyFrames means FromFrames was called with no frames.
	ErrEmptyFrames
	// ErrMissingUserID means the first frame of a request lacked a
	// required user_id.
	ErrMissingUserID
	// ErrShortPrefix means a Put or Set frame was too short to hold its
	// id(+parent) prefix.
	ErrShortPrefix
	// ErrUnknownFlag means a frame's MsgTypeFlag didn't match any known
	// request or response variant.
	ErrUnknownFlag
	// ErrShortErrorFrame means an Error response frame was too short to
	// hold its code field.
	ErrShortErrorFrame
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidUserID:
		return "InvalidUserID"
	case ErrMissingTarget:
		return "MissingTarget"
	case ErrUnknownKind:
		return "UnknownKind"
	case ErrEmptyFrames:
		return "EmptyFrames"
	case ErrMissingUserID:
		return "MissingUserID"
	case ErrShortPrefix:
		return "ShortPrefix"
	case ErrUnknownFlag:
		return "UnknownFlag"
	case ErrShortErrorFrame:
		return "ShortErrorFrame"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is returned by ToFrames and FromFrames on malformed requests,
// responses, or frame sequences.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("message: %s: %s", e.Kind, e.Message)
}

// Is lets callers use errors.Is(err, &message.Error{Kind: ...}) style
// checks by comparing Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
