package trans

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func startWSListener(t *testing.T, handler MessageHandler) *websocket.Conn {
	t.Helper()

	tr, err := New(KindWS, "127.0.0.1:0", handler)
	require.NoError(t, err)
	require.NoError(t, tr.Start())
	t.Cleanup(tr.Stop)

	addr := tr.(*wsTransport).lis.Addr().String()
	ws, err := websocket.Dial("ws://"+addr+"/", "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ws.Close()
	})
	return ws
}

func TestWSSession_badMessageKeepsSessionOpen(t *testing.T) {
	handler := func(data []byte, _ string, reply comm.ReplyFunc) error {
		if !json.Valid(data) {
			return fmt.Errorf("%w: invalid body", didcomm.ErrParse)
		}
		return reply([]byte(`{"echo":true}`))
	}
	ws := startWSListener(t, handler)

	// malformed input gets a structured failure reply
	require.NoError(t, websocket.Message.Send(ws, []byte("{not json")))
	var data []byte
	require.NoError(t, websocket.Message.Receive(ws, &data))

	var failure comm.FailureReply
	dto.FromJSON(data, &failure)
	require.False(t, failure.Success)
	require.Contains(t, failure.Message, "Could not parse message json:")

	// and the session still serves the next message
	require.NoError(t, websocket.Message.Send(ws, []byte(`{"@type":"x"}`)))
	require.NoError(t, websocket.Message.Receive(ws, &data))
	require.JSONEq(t, `{"echo":true}`, string(data))
}

func TestWSSession_closeSentinel(t *testing.T) {
	handler := func(data []byte, _ string, reply comm.ReplyFunc) error {
		return reply(data)
	}
	ws := startWSListener(t, handler)

	require.NoError(t, websocket.Message.Send(ws, []byte("close")))

	// the server ends the session without any further frame
	var data []byte
	require.Error(t, websocket.Message.Receive(ws, &data))
}
