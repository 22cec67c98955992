/*
Package comm holds the per message plumbing shared by the connection engine,
the protocol handlers and the transports: the connection record and target
values, the request context built for every inbound message, and the outbound
http helper.
*/
package comm

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
)

// Connection record states.
const (
	StateInvited   = "invited"
	StateRequested = "requested"
	StateResponded = "responded"
	StateComplete  = "complete"
)

// RoleRouter marks a relationship used as a routing intermediary.
const RoleRouter = "router"

// Target is a pure value directing one outbound send. It is always derived
// from a record or a handshake message, never persisted standalone.
type Target struct {
	DID           string
	Endpoint      string
	Label         string
	RecipientKeys []string
	RoutingKeys   []string
	SenderKey     string
}

// Record assembles connection state and target information of one
// relationship.
type Record struct {
	State  string
	Role   string
	Target *Target
}

// Context is the request context of one inbound message. It is built once per
// message and read-only in handlers; the only derived mutation, connection
// promotion, happens through the connection manager's store operation.
type Context struct {
	Wallet ssi.Wallet
	Store  api.Storage

	Message didcomm.MessageHdr

	Connection       *Record
	ConnectionActive bool

	SenderVerKey    string
	RecipientVerKey string
	RecipientDID    string

	TransportType string
}

// ReplyFunc delivers a reply on the channel the message arrived from. The
// http transport supports at most one reply per message, the websocket
// transport as many as the handler sends.
type ReplyFunc func(msg []byte) error

// Handler processes one classified inbound message.
type Handler func(ctx *Context, reply ReplyFunc) error

// FailureReply is the structured failure sent back on the originating
// transport when inbound processing fails.
type FailureReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
