package server

import (
	"fmt"

	"github.com/machinefabric/bearcub/message"
	"github.com/machinefabric/bearcub/wire"
)

// Envelope is a tagged union at the pump boundary: exactly one of Request
// or Response is set.
type Envelope struct {
	Request  *message.Request
	Response *message.Response
}

// RequestEnvelope wraps a Request as an outbound/inbound Envelope.
func RequestEnvelope(r message.Request) Envelope {
	return Envelope{Request: &r}
}

// ResponseEnvelope wraps a Response as an outbound/inbound Envelope.
func ResponseEnvelope(r message.Response) Envelope {
	return Envelope{Response: &r}
}

// Handler processes one inbound message and optionally produces an
// outbound one. Returning nil means "disconnect gracefully".
type Handler func(Envelope) *Envelope

// Pump runs the symmetric message-pump loop over conn until the handler
// signals disconnect, the peer closes the socket, or a fatal I/O or
// protocol error occurs. isClientSide selects which message kind is parsed
// off the wire and which kind the handler must answer with.
func Pump(conn *Connection, isClientSide bool, handler Handler) error {
	var frameBuf []*wire.Frame

	for {
		f, err := conn.ReadFrame()
		if err != nil {
			return err
		}
		if f == nil {
			return nil
		}
		frameBuf = append(frameBuf, f)
		if f.NRemainingFrames != 1 {
			continue
		}

		myFrames := frameBuf
		frameBuf = nil

		inbound, parseErr := parseInbound(myFrames, isClientSide)
		if parseErr != nil {
			if isClientSide {
				return fmt.Errorf("server: parsing response from peer: %w", parseErr)
			}
			errResp := message.NewErrorResponse(message.ErrCodeInvalidMsg, "invalid message: "+parseErr.Error())
			if werr := writeEnvelope(conn, ResponseEnvelope(errResp)); werr != nil {
				return werr
			}
			continue
		}

		reply := handler(inbound)
		if reply == nil {
			return nil
		}

		outbound, err := validateOutbound(*reply, isClientSide)
		if err != nil {
			return err
		}

		if err := writeEnvelope(conn, outbound); err != nil {
			return err
		}
	}
}

func parseInbound(frames []*wire.Frame, isClientSide bool) (Envelope, error) {
	if isClientSide {
		resp, err := message.ResponseFromFrames(frames)
		if err != nil {
			return Envelope{}, err
		}
		return ResponseEnvelope(resp), nil
	}
	req, err := message.RequestFromFrames(frames)
	if err != nil {
		return Envelope{}, err
	}
	return RequestEnvelope(req), nil
}

// validateOutbound enforces the side contract: the server must answer
// with a Response, the client must answer with a Request. A server handler
// that hands back a Request is a programming error reported to the peer as
// InvalidMessage rather than trusted onto the wire.
func validateOutbound(reply Envelope, isClientSide bool) (Envelope, error) {
	if !isClientSide {
		if reply.Response == nil {
			return ResponseEnvelope(message.NewErrorResponse(message.ErrCodeInvalidMsg, "handler returned a request on the server side")), nil
		}
		return reply, nil
	}
	if reply.Request == nil {
		return Envelope{}, fmt.Errorf("server: handler returned a response on the client side")
	}
	return reply, nil
}

func writeEnvelope(conn *Connection, e Envelope) error {
	var frames []*wire.Frame
	var err error
	if e.Request != nil {
		frames, err = e.Request.ToFrames()
	} else {
		frames, err = e.Response.ToFrames()
	}
	if err != nil {
		return fmt.Errorf("server: framing outbound message: %w", err)
	}
	for _, f := range frames {
		if err := conn.WriteFrame(f); err != nil {
			return err
		}
	}
	return nil
}
