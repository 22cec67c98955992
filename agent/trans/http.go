package trans

import (
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/lainio/err2"
)

func init() {
	register(KindHTTP, newHTTPTransport)
}

type httpTransport struct {
	addr    string
	handler MessageHandler

	lis    net.Listener
	server *http.Server
}

func newHTTPTransport(addr string, handler MessageHandler) Transport {
	return &httpTransport{addr: addr, handler: handler}
}

// Start binds the listen address synchronously so that an occupied port is
// reported to the caller, and serves in the background after that.
func (t *httpTransport) Start() error {
	lis, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: cannot listen on %s: %s", ErrSetup, t.addr, err)
	}
	t.lis = lis

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.serveMsg)
	t.server = &http.Server{Handler: mux}

	glog.V(1).Infoln("http transport listening on", t.addr)
	go func() {
		defer err2.Catch(func(err error) error {
			glog.Error("http transport:", err)
			return nil
		})
		err := t.server.Serve(t.lis)
		if err != nil && err != http.ErrServerClosed {
			glog.Error("http serve:", err)
		}
	}()
	return nil
}

func (t *httpTransport) Stop() {
	if t.server != nil {
		if err := t.server.Close(); err != nil {
			glog.Warningln("http transport close:", err)
		}
	}
}

func (t *httpTransport) serveMsg(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		glog.Error("http transport handler:", err)
		http.Error(w, "500 server error", http.StatusInternalServerError)
		return nil
	})

	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	glog.V(3).Infof("http transport: %d byte message", len(data))

	// at most one reply per request, delivered as the response body
	replied := false
	reply := func(msg []byte) error {
		if replied {
			return fmt.Errorf("http transport allows a single reply")
		}
		replied = true
		w.Header().Set("Content-Type", "application/ssi-agent-wire")
		_, err := w.Write(msg)
		return err
	}

	if err := t.handler(data, KindHTTP, reply); err != nil {
		glog.Warningln("http transport:", err)
		if !replied {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write(FailureJSON(err))
		}
		return
	}
	if !replied {
		w.WriteHeader(http.StatusOK)
	}
}
