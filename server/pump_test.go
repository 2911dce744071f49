package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/bearcub/message"
	"github.com/machinefabric/bearcub/wire"
)

const pumpTestUUID = "e17ca57f-a8db-4a0d-b9a9-6ff9edc983fd"
const pumpTestBlobID = "00000000-0000-4000-8000-000000000001"

// runServerPump drives Pump on the server half of a net.Pipe in the
// background and returns the client half for the test to drive directly.
func runServerPump(t *testing.T, handler Handler) (client *Connection, done <-chan error) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	ch := make(chan error, 1)
	go func() {
		ch <- Pump(New(serverConn), false, handler)
	}()
	return New(clientConn), ch
}

func sendRequest(t *testing.T, client *Connection, req message.Request) message.Response {
	t.Helper()
	frames, err := req.ToFrames()
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, client.WriteFrame(f))
	}

	var collected []*wire.Frame
	for {
		f, err := client.ReadFrame()
		require.NoError(t, err)
		require.NotNil(t, f)
		collected = append(collected, f)
		if f.NRemainingFrames == 1 {
			break
		}
	}
	resp, err := message.ResponseFromFrames(collected)
	require.NoError(t, err)
	return resp
}

func TestPumpEchoesDataResponse(t *testing.T) {
	handler := func(in Envelope) *Envelope {
		require.NotNil(t, in.Request)
		assert.Equal(t, pumpTestBlobID, in.Request.ID)
		resp := message.NewDataResponse([]byte("SUCCESS"))
		return &Envelope{Response: &resp}
	}
	client, done := runServerPump(t, handler)
	defer client.Close()

	req := message.NewGetByID(pumpTestUUID, pumpTestBlobID)
	resp := sendRequest(t, client, req)
	assert.Equal(t, message.ResponseKindData, resp.Kind)
	assert.Equal(t, []byte("SUCCESS"), resp.Data)

	client.Close()
	<-done
}

func TestPumpHandlerDisconnectClosesLoop(t *testing.T) {
	handler := func(in Envelope) *Envelope { return nil }
	client, done := runServerPump(t, handler)
	defer client.Close()

	req := message.NewGetByID(pumpTestUUID, pumpTestBlobID)
	frames, err := req.ToFrames()
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, client.WriteFrame(f))
	}

	err = <-done
	assert.NoError(t, err)
}

func TestPumpHandlerReturningRequestOnServerSideYieldsInvalidMessage(t *testing.T) {
	handler := func(in Envelope) *Envelope {
		bogus := message.NewGetByID(pumpTestUUID, pumpTestBlobID)
		return &Envelope{Request: &bogus}
	}
	client, done := runServerPump(t, handler)
	defer client.Close()

	req := message.NewGetByID(pumpTestUUID, pumpTestBlobID)
	resp := sendRequest(t, client, req)
	assert.Equal(t, message.ResponseKindError, resp.Kind)
	assert.Equal(t, message.ErrCodeInvalidMsg, resp.Code)

	client.Close()
	<-done
}
