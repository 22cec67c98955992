package basicmessage

import (
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/findy-network/findy-common-go/dto"
)

func init() {
	didcomm.Creator.Add(pltype.BasicMessage, messageFactor{})
}

type messageFactor struct{}

func (f messageFactor) NewMessage(data []byte) (didcomm.MessageHdr, error) {
	m := &Message{}
	dto.FromJSON(data, m)
	return &messageImpl{Message: m}, nil
}

// NewMessageMsg wraps a Message to a generic protocol message.
func NewMessageMsg(m *Message) didcomm.MessageHdr {
	return &messageImpl{Message: m}
}

type messageImpl struct {
	*Message
}

func (m *messageImpl) ID() string            { return m.Message.ID }
func (m *messageImpl) Type() string          { return m.Message.Type }
func (m *messageImpl) JSON() []byte          { return dto.ToJSONBytes(m.Message) }
func (m *messageImpl) FieldObj() interface{} { return m.Message }
func (m *messageImpl) Thread() *decorator.Thread {
	return decorator.CheckThread(m.Message.Thread, m.Message.ID)
}
