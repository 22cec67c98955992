// Package didexchange implements the connection protocol messages: the
// invitation, the request and the signed response.
// https://github.com/hyperledger/aries-rfcs/tree/master/features/0160-connection-protocol
package didexchange

import (
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/catalyst-network/catalyst-agent/std/sov/did"
)

// Invitation is an out-of-band bootstrap for a new connection. It is
// immutable once issued and identified by its first recipient key.
type Invitation struct {
	Type            string   `json:"@type,omitempty"`
	ID              string   `json:"@id,omitempty"`
	Label           string   `json:"label,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
}

// Key returns the invitation's identity key.
func (inv *Invitation) Key() string {
	if len(inv.RecipientKeys) == 0 {
		return ""
	}
	return inv.RecipientKeys[0]
}

// Connection carries the DID and DID document of one handshake party.
type Connection struct {
	DID string   `json:"DID,omitempty"`
	Doc *did.Doc `json:"DIDDoc,omitempty"`
}

// Request is the invitee's half of the handshake.
type Request struct {
	Type       string            `json:"@type,omitempty"`
	ID         string            `json:"@id,omitempty"`
	Label      string            `json:"label,omitempty"`
	Connection *Connection       `json:"connection,omitempty"`
	Thread     *decorator.Thread `json:"~thread,omitempty"`
}

// Response is the inviter's half. The connection field travels only inside
// the detached signature which proves possession of the invitation key.
type Response struct {
	Type                string               `json:"@type,omitempty"`
	ID                  string               `json:"@id,omitempty"`
	ConnectionSignature *ConnectionSignature `json:"connection~sig,omitempty"`
	Thread              *decorator.Thread    `json:"~thread,omitempty"`

	Connection *Connection `json:"-"` // the signed data, never on the wire
}

// ConnectionSignature is the detached signature over the connection field.
type ConnectionSignature struct {
	Type       string `json:"@type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SignedData string `json:"sig_data,omitempty"`
	SignVerKey string `json:"signer,omitempty"`
}

func NewInvitation(label, endpoint string, recipientKeys, routingKeys []string) *Invitation {
	return &Invitation{
		Type:            pltype.ConnectionInvitation,
		ID:              utils.UUID(),
		Label:           label,
		RecipientKeys:   recipientKeys,
		RoutingKeys:     routingKeys,
		ServiceEndpoint: endpoint,
	}
}

func NewRequest(label string, connection *Connection) *Request {
	return &Request{
		Type:       pltype.ConnectionRequest,
		ID:         utils.UUID(),
		Label:      label,
		Connection: connection,
	}
}

func NewResponse(thid string, connection *Connection) *Response {
	id := utils.UUID()
	return &Response{
		Type:       pltype.ConnectionResponse,
		ID:         id,
		Thread:     decorator.NewThread(thid, ""),
		Connection: connection,
	}
}
