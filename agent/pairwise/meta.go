package pairwise

import (
	"github.com/findy-network/findy-common-go/dto"
)

// didMeta is the JSON metadata stored on a local DID while the handshake is
// still in flight, before a pairwise exists.
type didMeta struct {
	State            string   `json:"state,omitempty"`
	InvitationKey    string   `json:"invitation_key,omitempty"`
	TheirLabel       string   `json:"their_label,omitempty"`
	TheirEndpoint    string   `json:"their_endpoint,omitempty"`
	TheirRoutingKeys []string `json:"their_routing_keys,omitempty"`
	TheirVerKey      string   `json:"their_verkey,omitempty"`
	MyRouterVerKey   string   `json:"my_router_verkey,omitempty"`
}

// pairwiseMeta is the JSON metadata stored on an established pairwise.
type pairwiseMeta struct {
	State            string   `json:"state,omitempty"`
	Role             string   `json:"role,omitempty"`
	TheirLabel       string   `json:"their_label,omitempty"`
	TheirEndpoint    string   `json:"their_endpoint,omitempty"`
	TheirRoutingKeys []string `json:"their_routing_keys,omitempty"`
	MyRouterVerKey   string   `json:"my_router_verkey,omitempty"`
}

func (m *didMeta) String() string      { return string(dto.ToJSONBytes(m)) }
func (m *pairwiseMeta) String() string { return string(dto.ToJSONBytes(m)) }

func didMetaFrom(s string) *didMeta {
	m := &didMeta{}
	if s != "" {
		dto.FromJSONStr(s, m)
	}
	return m
}

func pairwiseMetaFrom(s string) *pairwiseMeta {
	m := &pairwiseMeta{}
	if s != "" {
		dto.FromJSONStr(s, m)
	}
	return m
}
