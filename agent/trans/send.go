package trans

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/net/websocket"
)

// wsOrigin is sent in the ws handshake because the dialer API insists on an
// origin URL even when the server never checks it.
const wsOrigin = "http://localhost/"

// Send delivers an already sealed wire message to the endpoint, selecting the
// sender by the endpoint URL scheme.
func Send(data []byte, endpoint string) (err error) {
	defer err2.Handle(&err, "send to %s", endpoint)

	u := try.To1(url.Parse(endpoint))
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		_, err = comm.SendAndWaitReq(endpoint, bytes.NewReader(data),
			utils.Settings.Timeout())
		return err
	case "ws", "wss":
		return sendWs(data, endpoint)
	default:
		return fmt.Errorf("unsupported endpoint scheme: %s", u.Scheme)
	}
}

func sendWs(data []byte, endpoint string) (err error) {
	defer err2.Handle(&err, "ws send")

	conn := try.To1(websocket.Dial(endpoint, "", wsOrigin))
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			glog.Warningln("ws close:", cerr)
		}
	}()

	return websocket.Message.Send(conn, data)
}
