/*
Package trans implements the agent's transport layer: inbound http and
websocket servers which feed the protocol processor, and the outbound
dispatcher which selects a sender by the target endpoint scheme. Transports
are registered by kind to a static registry so the service setup can
instantiate them from configuration names.
*/
package trans

import (
	"errors"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
)

// ErrSetup is wrapped by transport construction and bind failures.
var ErrSetup = errors.New("transport setup error")

// Transport kinds.
const (
	KindHTTP = "http"
	KindWS   = "ws"
)

// MessageHandler processes one inbound wire payload. reply writes back to the
// originating channel when the transport supports it.
type MessageHandler func(data []byte, transportType string, reply comm.ReplyFunc) error

// Transport serves one inbound listener.
type Transport interface {
	Start() error
	Stop()
}

// Constructor builds a transport listening on addr and feeding handler.
type Constructor func(addr string, handler MessageHandler) Transport

// registry is populated during package init and read-only after that.
var registry = map[string]Constructor{}

func register(kind string, c Constructor) {
	registry[kind] = c
}

// New instantiates a registered transport kind.
func New(kind, addr string, handler MessageHandler) (Transport, error) {
	c, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transport kind: %s", ErrSetup, kind)
	}
	return c(addr, handler), nil
}
