// Package trustping implements the trust ping protocol used to verify that a
// connection is alive end to end.
package trustping

import (
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
)

type Ping struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`

	ResponseRequested bool `json:"response_requested"`
}

type PingResponse struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
}

func NewPing(comment string) *Ping {
	return &Ping{
		Type:              pltype.TrustPing,
		ID:                utils.UUID(),
		Comment:           comment,
		ResponseRequested: true,
	}
}

func NewPingResponse(thid string) *PingResponse {
	return &PingResponse{
		Type:   pltype.TrustPingResponse,
		ID:     utils.UUID(),
		Thread: decorator.NewThread(thid, ""),
	}
}
