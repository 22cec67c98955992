package trans

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"golang.org/x/net/websocket"
)

// closeSentinel ends a websocket session co-operatively when sent by the
// peer as a plain text message.
const closeSentinel = "close"

func init() {
	register(KindWS, newWsTransport)
}

type wsTransport struct {
	addr    string
	handler MessageHandler

	lis    net.Listener
	server *http.Server
}

func newWsTransport(addr string, handler MessageHandler) Transport {
	return &wsTransport{addr: addr, handler: handler}
}

func (t *wsTransport) Start() error {
	lis, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: cannot listen on %s: %s", ErrSetup, t.addr, err)
	}
	t.lis = lis

	mux := http.NewServeMux()
	mux.Handle("/", websocket.Handler(t.serveConn))
	t.server = &http.Server{Handler: mux}

	glog.V(1).Infoln("ws transport listening on", t.addr)
	go func() {
		defer err2.Catch(func(err error) error {
			glog.Error("ws transport:", err)
			return nil
		})
		err := t.server.Serve(t.lis)
		if err != nil && err != http.ErrServerClosed {
			glog.Error("ws serve:", err)
		}
	}()
	return nil
}

func (t *wsTransport) Stop() {
	if t.server != nil {
		if err := t.server.Close(); err != nil {
			glog.Warningln("ws transport close:", err)
		}
	}
}

// serveConn runs the receive loop of one websocket session. One bad message
// never tears the session down: the failure goes back as a structured reply
// and the loop continues.
func (t *wsTransport) serveConn(ws *websocket.Conn) {
	defer err2.Catch(func(err error) error {
		glog.Error("ws session:", err)
		return nil
	})

	glog.V(2).Infoln("incoming ws connection from", ws.Request().RemoteAddr)

	reply := func(msg []byte) error {
		return websocket.Message.Send(ws, msg)
	}

	for {
		var data []byte
		if err := websocket.Message.Receive(ws, &data); err != nil {
			glog.V(3).Infoln("ws session closed:", err)
			return
		}
		if string(data) == closeSentinel {
			glog.V(2).Infoln("ws close sentinel received")
			return
		}
		if err := t.handler(data, KindWS, reply); err != nil {
			glog.Warningln("ws transport:", err)
			if werr := reply(FailureJSON(err)); werr != nil {
				glog.V(3).Infoln("ws session closed:", werr)
				return
			}
		}
	}
}

// FailureJSON renders the structured failure reply sent back on the
// originating transport when inbound processing fails.
func FailureJSON(err error) []byte {
	msg := fmt.Sprintf("Error processing message: %v", err)
	if errors.Is(err, didcomm.ErrParse) {
		msg = fmt.Sprintf("Could not parse message json: %v", err)
	}
	return dto.ToJSONBytes(&comm.FailureReply{Success: false, Message: msg})
}
