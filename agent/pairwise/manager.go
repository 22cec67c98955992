/*
Package pairwise implements the connection protocol engine: invitation
issuing and intake, the request/response handshake on both sides, and the
resolution of inbound sender keys to connection records. It owns the pairwise
and DID metadata in the wallet and the invitation and pending request records
in the store.
*/
package pairwise

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/bus"
	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/sec"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/didexchange"
	"github.com/catalyst-network/catalyst-agent/std/sov/did"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrManager is wrapped by handshake failures which are protocol level, not
// infrastructure level.
var ErrManager = errors.New("connection error")

// Store record types.
const (
	recordSentInvitation     = "sent_invitation"
	recordReceivedInvitation = "received_invitation"
	recordConnectionRequest  = "connection_request"
)

// Manager runs the connection protocol against one wallet and one store.
type Manager struct {
	Wallet ssi.Wallet
	Store  api.Storage
	Bus    *bus.Station
}

// ConnectionEvent is the webhook payload of a connection state change.
type ConnectionEvent struct {
	MyDID      string `json:"my_did,omitempty"`
	TheirDID   string `json:"their_did,omitempty"`
	TheirLabel string `json:"their_label,omitempty"`
	State      string `json:"state"`
}

func (m *Manager) notify(ev *ConnectionEvent) {
	glog.V(1).Infof("connection %s -> %s: %s", ev.MyDID, ev.TheirDID, ev.State)
	if m.Bus != nil {
		m.Bus.Broadcast(pltype.TopicConnections, ev)
	}
}

// CreateInvitation makes a fresh connection invitation with a new recipient
// key and stores it so that the incoming request can be matched to it.
func (m *Manager) CreateInvitation() (inv *didexchange.Invitation, err error) {
	defer err2.Handle(&err, "create invitation")

	key := try.To1(m.Wallet.CreateSigningKey(""))
	inv = didexchange.NewInvitation(
		utils.Settings.Label(),
		utils.Settings.HostAddr(),
		[]string{key.VerKey},
		nil,
	)
	try.To(m.Store.Add(api.Record{
		Type:  recordSentInvitation,
		ID:    inv.Key(),
		Value: string(dto.ToJSONBytes(inv)),
	}))
	m.notify(&ConnectionEvent{State: comm.StateInvited})
	return inv, nil
}

// ReceiveInvitation stores an invitation we got out-of-band so that it can be
// accepted later and resolved while the handshake is in flight.
func (m *Manager) ReceiveInvitation(inv *didexchange.Invitation) (err error) {
	defer err2.Handle(&err, "receive invitation")

	if inv.Key() == "" {
		return fmt.Errorf("%w: invitation without recipient keys", ErrManager)
	}
	try.To(m.Store.Add(api.Record{
		Type:  recordReceivedInvitation,
		ID:    inv.Key(),
		Value: string(dto.ToJSONBytes(inv)),
	}))
	return nil
}

// FindInvitation returns the stored invitation identified by its first
// recipient key, sent or received, or api.ErrNotFound.
func (m *Manager) FindInvitation(verkey string) (inv *didexchange.Invitation, err error) {
	r, err := m.Store.Get(recordSentInvitation, verkey)
	if errors.Is(err, api.ErrNotFound) {
		r, err = m.Store.Get(recordReceivedInvitation, verkey)
	}
	if err != nil {
		return nil, err
	}
	inv = &didexchange.Invitation{}
	dto.FromJSONStr(r.Value, inv)
	return inv, nil
}

// RemoveInvitation deletes the stored invitation from both tables. Missing
// records are not an error.
func (m *Manager) RemoveInvitation(verkey string) (err error) {
	defer err2.Handle(&err, "remove invitation")

	for _, typ := range []string{recordSentInvitation, recordReceivedInvitation} {
		err := m.Store.Delete(typ, verkey)
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			return err
		}
	}
	return nil
}

// AcceptInvitation starts the handshake as the invitee: it creates a new DID
// for the relationship and builds the connection request. routerVerKey, when
// given, names a completed router relationship whose key is published as our
// routing key and whose endpoint as our service endpoint.
func (m *Manager) AcceptInvitation(
	inv *didexchange.Invitation,
	routerVerKey string,
) (
	msg didcomm.MessageHdr,
	target *comm.Target,
	err error,
) {
	defer err2.Handle(&err, "accept invitation")

	myEndpoint := utils.Settings.HostAddr()
	meta := &didMeta{
		State:          comm.StateRequested,
		InvitationKey:  inv.Key(),
		TheirLabel:     inv.Label,
		TheirEndpoint:  inv.ServiceEndpoint,
		MyRouterVerKey: routerVerKey,
	}
	meta.TheirRoutingKeys = append(meta.TheirRoutingKeys, inv.RoutingKeys...)

	var routerEndpoint string
	if routerVerKey != "" {
		routerEndpoint = try.To1(m.routerEndpoint(routerVerKey))
	}

	me := try.To1(m.Wallet.CreateLocalDID("", meta.String()))

	doc := did.NewDoc(me.DID, me.VerKey, myEndpoint)
	if routerVerKey != "" {
		doc.AddRouting(routerVerKey)
		doc.Service[0].ServiceEndpoint = routerEndpoint
		doc.Service[0].RoutingKeys = []string{routerVerKey}
	}

	request := didexchange.NewRequest(utils.Settings.Label(),
		&didexchange.Connection{DID: me.DID, Doc: doc})

	try.To(m.Store.Add(api.Record{
		Type:  recordConnectionRequest,
		ID:    request.ID,
		Value: me.DID,
		Tags:  map[string]string{"invitation_key": inv.Key()},
	}))

	target = &comm.Target{
		Endpoint:      inv.ServiceEndpoint,
		Label:         inv.Label,
		RecipientKeys: inv.RecipientKeys,
		RoutingKeys:   inv.RoutingKeys,
		SenderKey:     me.VerKey,
	}
	m.notify(&ConnectionEvent{
		MyDID:      me.DID,
		TheirLabel: inv.Label,
		State:      comm.StateRequested,
	})
	return didexchange.NewRequestMsg(request), target, nil
}

// routerEndpoint checks that the router relationship exists and is complete
// and returns its delivery endpoint.
func (m *Manager) routerEndpoint(routerVerKey string) (endp string, err error) {
	pw, werr := m.Wallet.GetPairwiseForVerKey(routerVerKey)
	if werr != nil {
		return "", fmt.Errorf("%w: no router connection for key %s",
			ErrManager, routerVerKey)
	}
	meta := pairwiseMetaFrom(pw.Metadata)
	if meta.State != comm.StateComplete {
		return "", fmt.Errorf("%w: router connection %s not complete",
			ErrManager, pw.TheirDID)
	}
	return meta.TheirEndpoint, nil
}

// AcceptRequest answers an inbound connection request as the inviter. The
// toVerKey is the key the request envelope was addressed to, i.e. our
// invitation key when the peer followed one. The response's connection field
// is signed with that key so the peer can tie the response to the invitation.
func (m *Manager) AcceptRequest(
	request *didexchange.Request,
	toVerKey string,
) (
	msg didcomm.MessageHdr,
	target *comm.Target,
	err error,
) {
	defer err2.Handle(&err, "accept request")

	signKey := toVerKey
	_, ierr := m.FindInvitation(toVerKey)
	if ierr != nil {
		if utils.Settings.RequireInvitation() {
			return nil, nil, fmt.Errorf(
				"%w: request without matching invitation", ErrManager)
		}
		glog.V(1).Infoln("connection request without invitation, accepting")
		signKey = ""
	}

	if request.Connection == nil || request.Connection.Doc == nil {
		return nil, nil, fmt.Errorf("%w: request without DIDDoc", ErrManager)
	}
	theirDoc := request.Connection.Doc
	theirVK, theirRouting := theirDoc.PeerKeys()
	if theirVK == "" {
		return nil, nil, fmt.Errorf(
			"%w: no verification key in request DIDDoc", ErrManager)
	}

	me := try.To1(m.Wallet.CreateLocalDID("", ""))
	if signKey == "" {
		signKey = me.VerKey
	}

	meta := &pairwiseMeta{
		State:            comm.StateResponded,
		TheirLabel:       request.Label,
		TheirEndpoint:    theirDoc.Endpoint(),
		TheirRoutingKeys: theirRouting,
	}
	try.To1(m.Wallet.CreatePairwise(
		request.Connection.DID, theirVK, me.DID, meta.String()))

	myDoc := did.NewDoc(me.DID, me.VerKey, utils.Settings.HostAddr())
	thid := request.Thread
	thidID := request.ID
	if thid != nil && thid.ID != "" {
		thidID = thid.ID
	}
	response := didexchange.NewResponse(thidID,
		&didexchange.Connection{DID: me.DID, Doc: myDoc})
	try.To(response.Sign(m.Wallet, signKey))

	target = &comm.Target{
		DID:           request.Connection.DID,
		Endpoint:      theirDoc.Endpoint(),
		Label:         request.Label,
		RecipientKeys: []string{theirVK},
		RoutingKeys:   theirRouting,
		SenderKey:     me.VerKey,
	}
	m.notify(&ConnectionEvent{
		MyDID:      me.DID,
		TheirDID:   request.Connection.DID,
		TheirLabel: request.Label,
		State:      comm.StateResponded,
	})
	return didexchange.NewResponseMsg(response), target, nil
}

// AcceptResponse finishes the handshake as the invitee: it verifies the
// response signature, matches the response to our pending request through the
// thread id, and creates the pairwise. The connection stays responded until
// the first post-handshake message from the peer promotes it.
func (m *Manager) AcceptResponse(
	response *didexchange.Response,
	toVerKey string,
) (
	record *comm.Record,
	err error,
) {
	defer err2.Handle(&err, "accept response")

	conn := try.To1(response.VerifySignature())

	myDID := ""
	thid := response.Thread
	if thid != nil && thid.ID != "" {
		if r, gerr := m.Store.Get(recordConnectionRequest, thid.ID); gerr == nil {
			myDID = r.Value
			try.To(m.Store.Delete(recordConnectionRequest, thid.ID))
		}
	}
	if myDID == "" {
		info, gerr := m.Wallet.GetLocalDIDForVerKey(toVerKey)
		if gerr != nil {
			return nil, fmt.Errorf(
				"%w: no DID associated with the response", ErrManager)
		}
		myDID = info.DID
	}
	me := try.To1(m.Wallet.GetLocalDID(myDID))
	dm := didMetaFrom(me.Metadata)

	if conn.Doc == nil {
		return nil, fmt.Errorf("%w: response without DIDDoc", ErrManager)
	}
	theirVK, theirRouting := conn.Doc.PeerKeys()
	if theirVK == "" {
		return nil, fmt.Errorf(
			"%w: no verification key in response DIDDoc", ErrManager)
	}

	meta := &pairwiseMeta{
		State:            comm.StateResponded,
		TheirLabel:       dm.TheirLabel,
		TheirEndpoint:    conn.Doc.Endpoint(),
		TheirRoutingKeys: theirRouting,
		MyRouterVerKey:   dm.MyRouterVerKey,
	}
	try.To1(m.Wallet.CreatePairwise(conn.DID, theirVK, myDID, meta.String()))

	dm.State = comm.StateResponded
	dm.TheirVerKey = theirVK
	try.To(m.Wallet.ReplaceLocalDIDMetadata(myDID, dm.String()))

	record = &comm.Record{
		State: comm.StateResponded,
		Target: &comm.Target{
			DID:           conn.DID,
			Endpoint:      conn.Doc.Endpoint(),
			Label:         dm.TheirLabel,
			RecipientKeys: []string{theirVK},
			RoutingKeys:   theirRouting,
			SenderKey:     me.VerKey,
		},
	}
	m.notify(&ConnectionEvent{
		MyDID:      myDID,
		TheirDID:   conn.DID,
		TheirLabel: dm.TheirLabel,
		State:      comm.StateResponded,
	})
	return record, nil
}

// ResolveConnection maps the envelope keys of an inbound message to a
// connection record. An established pairwise wins; a handshake still in
// flight resolves through the local DID metadata or a stored invitation to a
// partial record. Resolution of a responded pairwise with promote set
// finishes the handshake: receiving traffic over the connection proves the
// peer processed our half. A pairwise in an impossible state is discarded
// with a log entry, not returned.
func (m *Manager) ResolveConnection(
	senderVerKey, toVerKey string,
	promote bool,
) (
	record *comm.Record,
	err error,
) {
	defer err2.Handle(&err, "resolve connection")

	if pw, gerr := m.Wallet.GetPairwiseForVerKey(senderVerKey); gerr == nil {
		return m.resolvePairwise(pw, promote)
	}

	if info, gerr := m.Wallet.GetLocalDIDForVerKey(toVerKey); gerr == nil {
		dm := didMetaFrom(info.Metadata)
		if dm.State == comm.StateRequested {
			var recipients []string
			if senderVerKey != "" {
				recipients = []string{senderVerKey}
			}
			return &comm.Record{
				State: comm.StateRequested,
				Target: &comm.Target{
					Endpoint:      dm.TheirEndpoint,
					Label:         dm.TheirLabel,
					RecipientKeys: recipients,
					RoutingKeys:   dm.TheirRoutingKeys,
					SenderKey:     info.VerKey,
				},
			}, nil
		}
	}

	// an outstanding invitation tells only that the sender is answering it,
	// there is nothing to address yet
	if _, gerr := m.FindInvitation(toVerKey); gerr == nil {
		return &comm.Record{State: comm.StateInvited}, nil
	}

	return nil, nil
}

func (m *Manager) resolvePairwise(
	pw *ssi.Pairwise,
	promote bool,
) (
	record *comm.Record,
	err error,
) {
	meta := pairwiseMetaFrom(pw.Metadata)

	switch meta.State {
	case comm.StateResponded, comm.StateComplete:
	default:
		glog.Warningf("pairwise %s in unexpected state %q, ignoring",
			pw.TheirDID, meta.State)
		return nil, nil
	}
	if meta.State == comm.StateComplete && meta.TheirEndpoint == "" {
		glog.Warningf("pairwise %s complete without an endpoint, ignoring",
			pw.TheirDID)
		return nil, nil
	}

	if promote && meta.State == comm.StateResponded {
		meta.State = comm.StateComplete
		try.To(m.Wallet.ReplacePairwiseMetadata(pw.TheirDID, meta.String()))
		m.notify(&ConnectionEvent{
			MyDID:      pw.MyDID,
			TheirDID:   pw.TheirDID,
			TheirLabel: meta.TheirLabel,
			State:      comm.StateComplete,
		})
	}

	return &comm.Record{
		State: meta.State,
		Role:  meta.Role,
		Target: &comm.Target{
			DID:           pw.TheirDID,
			Endpoint:      meta.TheirEndpoint,
			Label:         meta.TheirLabel,
			RecipientKeys: []string{pw.TheirVerKey},
			RoutingKeys:   meta.TheirRoutingKeys,
			SenderKey:     pw.MyVerKey,
		},
	}, nil
}

// FindConnection returns the connection record of an established pairwise by
// the peer DID, for outbound initiation. No promotion happens here.
func (m *Manager) FindConnection(theirDID string) (record *comm.Record, err error) {
	defer err2.Handle(&err, "find connection %s", theirDID)

	pw := try.To1(m.Wallet.GetPairwise(theirDID))
	return m.resolvePairwise(pw, false)
}

// MarkRouter tags an established pairwise as our router relationship.
func (m *Manager) MarkRouter(theirVerKey string) (err error) {
	defer err2.Handle(&err, "mark router")

	pw := try.To1(m.Wallet.GetPairwiseForVerKey(theirVerKey))
	meta := pairwiseMetaFrom(pw.Metadata)
	meta.Role = comm.RoleRouter
	return m.Wallet.ReplacePairwiseMetadata(pw.TheirDID, meta.String())
}

// ExpandMessage opens an inbound transport payload. Packed envelopes are
// unpacked with the wallet; anything the wallet rejects is accepted as plain
// JSON when it parses as such, which is how invitations and other
// pre-connection messages arrive. Everything else is a parse error.
func (m *Manager) ExpandMessage(
	data []byte,
) (
	msg []byte, senderVK, toVK string, err error,
) {
	msg, senderVK, toVK, uerr := sec.Unpack(m.Wallet, data)
	if uerr == nil {
		return msg, senderVK, toVK, nil
	}
	if !errors.Is(uerr, sec.ErrUnpack) {
		return nil, "", "", uerr
	}
	if json.Valid(data) {
		glog.V(3).Infoln("inbound message in plaintext")
		return data, "", "", nil
	}
	return nil, "", "", fmt.Errorf("%w: not JSON nor a packed envelope",
		didcomm.ErrParse)
}

// CompactMessage seals an outbound message for its target. Without a sender
// key or recipient keys the message goes out as plain JSON.
func (m *Manager) CompactMessage(
	msg didcomm.MessageHdr,
	target *comm.Target,
) (
	data []byte,
	err error,
) {
	defer err2.Handle(&err, "compact message")

	if target.SenderKey == "" || len(target.RecipientKeys) == 0 {
		glog.V(3).Infoln("sending message in plaintext:", msg.Type())
		return msg.JSON(), nil
	}
	pipe := sec.NewPipe(m.Wallet,
		target.SenderKey, target.RecipientKeys, target.RoutingKeys)
	return pipe.Pack(msg.JSON())
}
