package common

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/findy-network/findy-common-go/dto"
)

func init() {
	didcomm.Creator.Add(pltype.RoutingForward, forwardFactor{})
}

type forwardFactor struct{}

func (f forwardFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Forward{}
	dto.FromJSON(data, m)
	return &forwardImpl{Forward: m}, nil
}

// NewForwardMsg wraps a Forward to a generic protocol message.
func NewForwardMsg(to []string, envelope []byte) didcomm.MessageHdr {
	return &forwardImpl{Forward: NewForward(to, envelope)}
}

type forwardImpl struct {
	*Forward
}

func (m *forwardImpl) ID() string {
	return m.Forward.ID
}

func (m *forwardImpl) Type() string {
	return m.Forward.Type
}

func (m *forwardImpl) Thread() *decorator.Thread {
	return decorator.NewThread(m.Forward.ID, "")
}

func (m *forwardImpl) JSON() []byte {
	return dto.ToJSONBytes(m.Forward)
}

func (m *forwardImpl) FieldObj() interface{} {
	return m.Forward
}
