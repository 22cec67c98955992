package didexchange

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/findy-network/findy-common-go/dto"
)

func init() {
	didcomm.Creator.Add(pltype.ConnectionInvitation, invitationFactor{})
	didcomm.Creator.Add(pltype.ConnectionRequest, requestFactor{})
	didcomm.Creator.Add(pltype.ConnectionResponse, responseFactor{})
}

type invitationFactor struct{}

func (f invitationFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Invitation{}
	dto.FromJSON(data, m)
	return &invitationImpl{Invitation: m}, nil
}

// NewInvitationMsg wraps an Invitation to a generic protocol message.
func NewInvitationMsg(inv *Invitation) didcomm.MessageHdr {
	return &invitationImpl{Invitation: inv}
}

type invitationImpl struct {
	*Invitation
}

func (m *invitationImpl) ID() string            { return m.Invitation.ID }
func (m *invitationImpl) Type() string          { return m.Invitation.Type }
func (m *invitationImpl) JSON() []byte          { return dto.ToJSONBytes(m.Invitation) }
func (m *invitationImpl) FieldObj() interface{} { return m.Invitation }
func (m *invitationImpl) Thread() *decorator.Thread {
	return decorator.NewThread(m.Invitation.ID, "")
}

type requestFactor struct{}

func (f requestFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Request{}
	dto.FromJSON(data, m)
	return &requestImpl{Request: m}, nil
}

// NewRequestMsg wraps a Request to a generic protocol message.
func NewRequestMsg(r *Request) didcomm.MessageHdr {
	return &requestImpl{Request: r}
}

type requestImpl struct {
	*Request
}

func (m *requestImpl) ID() string            { return m.Request.ID }
func (m *requestImpl) Type() string          { return m.Request.Type }
func (m *requestImpl) JSON() []byte          { return dto.ToJSONBytes(m.Request) }
func (m *requestImpl) FieldObj() interface{} { return m.Request }
func (m *requestImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Request.Thread, m.Request.ID)
}

type responseFactor struct{}

func (f responseFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Response{}
	dto.FromJSON(data, m)
	return &responseImpl{Response: m}, nil
}

// NewResponseMsg wraps a Response to a generic protocol message.
func NewResponseMsg(r *Response) didcomm.MessageHdr {
	return &responseImpl{Response: r}
}

type responseImpl struct {
	*Response
}

func (m *responseImpl) ID() string            { return m.Response.ID }
func (m *responseImpl) Type() string          { return m.Response.Type }
func (m *responseImpl) JSON() []byte          { return dto.ToJSONBytes(m.Response) }
func (m *responseImpl) FieldObj() interface{} { return m.Response }
func (m *responseImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Response.Thread, m.Response.ID)
}
