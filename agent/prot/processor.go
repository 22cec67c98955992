/*
Package prot is the inbound message pipeline. The processor expands each wire
payload, classifies it to a typed message, resolves the sending connection and
dispatches to the handler registered for the message type. The built-in
handlers run the connection handshake, relay routed forwards and drive the
credential exchange autonomously.
*/
package prot

import (
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/cred"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pairwise"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/sec"
	"github.com/catalyst-network/catalyst-agent/agent/trans"
	"github.com/catalyst-network/catalyst-agent/std/basicmessage"
	"github.com/catalyst-network/catalyst-agent/std/common"
	"github.com/catalyst-network/catalyst-agent/std/didexchange"
	"github.com/catalyst-network/catalyst-agent/std/issuecredential"
	"github.com/catalyst-network/catalyst-agent/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Processor classifies and dispatches every inbound message.
type Processor struct {
	Connections *pairwise.Manager
	Credentials *cred.Manager

	// RouterVerKey names our router relationship used when accepting
	// invitations, empty for direct connections.
	RouterVerKey string

	handlers map[string]comm.Handler
}

func NewProcessor(cm *pairwise.Manager, crm *cred.Manager) *Processor {
	p := &Processor{
		Connections: cm,
		Credentials: crm,
		handlers:    make(map[string]comm.Handler),
	}
	p.Register(pltype.ConnectionInvitation, p.handleInvitation)
	p.Register(pltype.ConnectionRequest, p.handleRequest)
	p.Register(pltype.ConnectionResponse, p.handleResponse)
	p.Register(pltype.RoutingForward, p.handleForward)
	p.Register(pltype.CredentialOffer, p.handleCredOffer)
	p.Register(pltype.CredentialRequest, p.handleCredRequest)
	p.Register(pltype.CredentialIssue, p.handleCredIssue)
	p.Register(pltype.BasicMessage, p.handleBasicMessage)
	p.Register(pltype.TrustPing, p.handleTrustPing)
	p.Register(pltype.TrustPingResponse, p.handleTrustPingResponse)
	return p
}

// Register binds a message type to its handler. The registry is filled before
// serving starts and read-only after that.
func (p *Processor) Register(typeURI string, h comm.Handler) {
	p.handlers[typeURI] = h
}

// Process runs the pipeline for one wire payload: expand, classify, resolve
// the connection with promotion, dispatch. It is the transports'
// MessageHandler.
func (p *Processor) Process(
	data []byte,
	transportType string,
	reply comm.ReplyFunc,
) (
	err error,
) {
	defer err2.Handle(&err, "process message")

	msg, senderVK, toVK := try.To3(p.Connections.ExpandMessage(data))
	typed := try.To1(didcomm.Creator.NewFromData(msg))
	glog.V(2).Infof("inbound %s via %s", typed.Type(), transportType)

	record := try.To1(p.Connections.ResolveConnection(senderVK, toVK, true))

	ctx := &comm.Context{
		Wallet:           p.Connections.Wallet,
		Store:            p.Connections.Store,
		Message:          typed,
		Connection:       record,
		ConnectionActive: record != nil && record.State == comm.StateComplete,
		SenderVerKey:     senderVK,
		RecipientVerKey:  toVK,
		TransportType:    transportType,
	}
	if info, gerr := p.Connections.Wallet.GetLocalDIDForVerKey(toVK); gerr == nil {
		ctx.RecipientDID = info.DID
	}

	handler, ok := p.handlers[typed.Type()]
	if !ok {
		return fmt.Errorf("no handler for message type: %s", typed.Type())
	}
	return handler(ctx, reply)
}

// SendTo seals msg for the target and dispatches it to the target endpoint.
func (p *Processor) SendTo(msg didcomm.MessageHdr, target *comm.Target) (err error) {
	defer err2.Handle(&err, "send %s", msg.Type())

	data := try.To1(p.Connections.CompactMessage(msg, target))
	return trans.Send(data, target.Endpoint)
}

// handleInvitation stores an invitation received over a transport and accepts
// it right away by sending the connection request.
func (p *Processor) handleInvitation(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle invitation")

	inv := ctx.Message.FieldObj().(*didexchange.Invitation)
	try.To(p.Connections.ReceiveInvitation(inv))

	msg, target := try.To2(p.Connections.AcceptInvitation(inv, p.RouterVerKey))
	return p.SendTo(msg, target)
}

func (p *Processor) handleRequest(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle connection request")

	request := ctx.Message.FieldObj().(*didexchange.Request)
	msg, target := try.To2(p.Connections.AcceptRequest(request, ctx.RecipientVerKey))
	return p.SendTo(msg, target)
}

func (p *Processor) handleResponse(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle connection response")

	response := ctx.Message.FieldObj().(*didexchange.Response)
	_ = try.To1(p.Connections.AcceptResponse(response, ctx.RecipientVerKey))
	return nil
}

// handleForward relays one routing hop. The embedded envelope is delivered to
// the connection holding the named recipient key; when no such connection
// exists the envelope is for a key of our own and re-enters the pipeline.
func (p *Processor) handleForward(ctx *comm.Context, reply comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle forward")

	fwd := ctx.Message.FieldObj().(*common.Forward)
	if len(fwd.To) == 0 {
		return fmt.Errorf("forward without recipients")
	}
	env := try.To1(sec.UnwrapForward(fwd))

	for _, to := range fwd.To {
		pw, gerr := p.Connections.Wallet.GetPairwiseForVerKey(to)
		if gerr != nil {
			glog.V(2).Infoln("forward to own key, processing locally")
			try.To(p.Process(env, ctx.TransportType, reply))
			continue
		}
		record := try.To1(p.Connections.ResolveConnection(to, "", false))
		if record == nil || record.Target.Endpoint == "" {
			return fmt.Errorf("no route to forward recipient %s", pw.TheirDID)
		}
		try.To(trans.Send(env, record.Target.Endpoint))
	}
	return nil
}

// handleCredOffer records the offer and answers it with a credential request,
// the holder's half of the autonomous exchange.
func (p *Processor) handleCredOffer(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle credential offer")

	try.To(requireConnection(ctx))

	offer := ctx.Message.FieldObj().(*issuecredential.Offer)
	thid := ctx.Message.Thread().ID
	_ = try.To1(p.Credentials.ReceiveOffer(ctx.Connection.Target.DID, offer, thid))

	request := try.To1(p.Credentials.CreateRequest(thid, offer.OfferJSON))
	return p.SendTo(issuecredential.NewRequestMsg(request), ctx.Connection.Target)
}

// handleCredRequest records the request and issues right away. The credential
// body is derived from the offer; cryptographic credential material is
// produced outside this core.
func (p *Processor) handleCredRequest(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle credential request")

	try.To(requireConnection(ctx))

	request := ctx.Message.FieldObj().(*issuecredential.Request)
	thid := ctx.Message.Thread().ID
	ex := try.To1(p.Credentials.ReceiveRequest(request, thid))

	issue := try.To1(p.Credentials.Issue(thid, ex.OfferJSON))
	return p.SendTo(issuecredential.NewIssueMsg(issue), ctx.Connection.Target)
}

func (p *Processor) handleCredIssue(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle credential issue")

	try.To(requireConnection(ctx))

	issue := ctx.Message.FieldObj().(*issuecredential.Issue)
	_ = try.To1(p.Credentials.ReceiveIssue(issue, ctx.Message.Thread().ID))
	return nil
}

// handleBasicMessage notifies the controller about the received content.
func (p *Processor) handleBasicMessage(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle basic message")

	try.To(requireConnection(ctx))

	msg := ctx.Message.FieldObj().(*basicmessage.Message)
	glog.V(1).Infof("basic message from %s", ctx.Connection.Target.DID)
	if p.Connections.Bus != nil {
		p.Connections.Bus.Broadcast(pltype.TopicBasicMessages, msg)
	}
	return nil
}

func (p *Processor) handleTrustPing(ctx *comm.Context, _ comm.ReplyFunc) (err error) {
	defer err2.Handle(&err, "handle trust ping")

	try.To(requireConnection(ctx))

	ping := ctx.Message.FieldObj().(*trustping.Ping)
	if !ping.ResponseRequested {
		return nil
	}
	response := trustping.NewPingResponse(ctx.Message.Thread().ID)
	return p.SendTo(trustping.NewPingResponseMsg(response), ctx.Connection.Target)
}

func (p *Processor) handleTrustPingResponse(ctx *comm.Context, _ comm.ReplyFunc) error {
	glog.V(1).Infoln("trust ping response for thread", ctx.Message.Thread().ID)
	return nil
}

func requireConnection(ctx *comm.Context) error {
	if ctx.Connection == nil || ctx.Connection.Target == nil {
		return fmt.Errorf("%s needs an established connection", ctx.Message.Type())
	}
	return nil
}
