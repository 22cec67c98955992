/*
Package didcomm offers the common interfaces for all protocol messages and the
factory which classifies raw wire JSON into typed messages. Message
implementations live in the std sub packages and register themselves to the
Creator during init.
*/
package didcomm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/std/decorator"
)

// ErrParse is wrapped by all message classification failures.
var ErrParse = errors.New("message parse error")

// MessageHdr is the header interface every protocol message implements.
type MessageHdr interface {
	ID() string
	Type() string
	Thread() *decorator.Thread
	JSON() []byte

	// FieldObj returns the underlying message struct for direct field access.
	FieldObj() interface{}
}

// Factor creates a typed message from its wire JSON.
type Factor interface {
	NewMessage(data []byte) (MessageHdr, error)
}

// Creator is the static message type registry. It is populated during package
// init and read-only while serving.
var Creator = &Registry{factors: make(map[string]Factor)}

type Registry struct {
	factors map[string]Factor
}

func (r *Registry) Add(typeURI string, f Factor) {
	r.factors[typeURI] = f
}

// typeHdr is used to peek the declared message type of raw wire JSON.
type typeHdr struct {
	Type string `json:"@type"`
}

// NewFromData classifies a decoded JSON object to a typed message. Unknown
// message types and undecodable payloads fail with a wrapped ErrParse.
func (r *Registry) NewFromData(data []byte) (m MessageHdr, err error) {
	var hdr typeHdr
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	if hdr.Type == "" {
		return nil, fmt.Errorf("%w: message has no @type", ErrParse)
	}
	factor, ok := r.factors[hdr.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown message type: %s", ErrParse, hdr.Type)
	}
	return factor.NewMessage(data)
}
