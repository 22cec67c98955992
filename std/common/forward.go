// Package common implements protocol messages shared by many protocols.
package common

import (
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
)

// Forward instructs a routing intermediary to relay the embedded envelope to
// the named next recipients.
// https://github.com/hyperledger/aries-rfcs/blob/main/concepts/0094-cross-domain-messaging/README.md
type Forward struct {
	Type string   `json:"@type,omitempty"`
	ID   string   `json:"@id,omitempty"`
	To   []string `json:"to,omitempty"`
	Msg  string   `json:"msg,omitempty"` // base64 of the embedded envelope
}

// NewForward wraps an already packed envelope for the given recipients.
func NewForward(to []string, envelope []byte) *Forward {
	return &Forward{
		Type: pltype.RoutingForward,
		ID:   utils.UUID(),
		To:   to,
		Msg:  utils.EncodeB64(envelope),
	}
}

// Payload returns the embedded envelope bytes.
func (m *Forward) Payload() ([]byte, error) {
	return utils.DecodeB64(m.Msg)
}
