package issuecredential

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/findy-network/findy-common-go/dto"
)

func init() {
	didcomm.Creator.Add(pltype.CredentialOffer, offerFactor{})
	didcomm.Creator.Add(pltype.CredentialRequest, requestFactor{})
	didcomm.Creator.Add(pltype.CredentialIssue, issueFactor{})
}

type offerFactor struct{}

func (f offerFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Offer{}
	dto.FromJSON(data, m)
	return &offerImpl{Offer: m}, nil
}

// NewOfferMsg wraps an Offer to a generic protocol message.
func NewOfferMsg(o *Offer) didcomm.MessageHdr {
	return &offerImpl{Offer: o}
}

type offerImpl struct {
	*Offer
}

func (m *offerImpl) ID() string            { return m.Offer.ID }
func (m *offerImpl) Type() string          { return m.Offer.Type }
func (m *offerImpl) JSON() []byte          { return dto.ToJSONBytes(m.Offer) }
func (m *offerImpl) FieldObj() interface{} { return m.Offer }
func (m *offerImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Offer.Thread, m.Offer.ID)
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

type issueFactor struct{}

func (f issueFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Issue{}
	dto.FromJSON(data, m)
	return &issueImpl{Issue: m}, nil
}

// NewIssueMsg wraps an Issue to a generic protocol message.
func NewIssueMsg(i *Issue) didcomm.MessageHdr {
	return &issueImpl{Issue: i}
}

type issueImpl struct {
	*Issue
}

func (m *issueImpl) ID() string            { return m.Issue.ID }
func (m *issueImpl) Type() string          { return m.Issue.Type }
func (m *issueImpl) JSON() []byte          { return dto.ToJSONBytes(m.Issue) }
func (m *issueImpl) FieldObj() interface{} { return m.Issue }
func (m *issueImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Issue.Thread, m.Issue.ID)
}
