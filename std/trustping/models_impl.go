package trustping

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/findy-network/findy-common-go/dto"
)

func init() {
	didcomm.Creator.Add(pltype.TrustPing, pingFactor{})
	didcomm.Creator.Add(pltype.TrustPingResponse, pingResponseFactor{})
}

type pingFactor struct{}

func (f pingFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Ping{}
	dto.FromJSON(data, m)
	return &pingImpl{Ping: m}, nil
}

// NewPingMsg wraps a Ping to a generic protocol message.
func NewPingMsg(p *Ping) didcomm.MessageHdr {
	return &pingImpl{Ping: p}
}

type pingImpl struct {
	*Ping
}

func (m *pingImpl) ID() string            { return m.Ping.ID }
func (m *pingImpl) Type() string          { return m.Ping.Type }
func (m *pingImpl) JSON() []byte          { return dto.ToJSONBytes(m.Ping) }
func (m *pingImpl) FieldObj() interface{} { return m.Ping }
func (m *pingImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Ping.Thread, m.Ping.ID)
}

type pingResponseFactor struct{}

func (f pingResponseFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &PingResponse{}
	dto.FromJSON(data, m)
	return &pingResponseImpl{PingResponse: m}, nil
}

// NewPingResponseMsg wraps a PingResponse to a generic protocol message.
func NewPingResponseMsg(r *PingResponse) didcomm.MessageHdr {
	return &pingResponseImpl{PingResponse: r}
}

type pingResponseImpl struct {
	*PingResponse
}

func (m *pingResponseImpl) ID() string            { return m.PingResponse.ID }
func (m *pingResponseImpl) Type() string          { return m.PingResponse.Type }
func (m *pingResponseImpl) JSON() []byte          { return dto.ToJSONBytes(m.PingResponse) }
func (m *pingResponseImpl) FieldObj() interface{} { return m.PingResponse }
func (m *pingResponseImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.PingResponse.Thread, m.PingResponse.ID)
}
