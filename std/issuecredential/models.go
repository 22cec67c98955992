// Package issuecredential implements the minimal offer, request and issue
// messages of the credential exchange protocol.
package issuecredential

import (
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
)

// Offer starts a credential exchange for one credential definition.
type Offer struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`

	CredentialDefinitionID string `json:"cred_def_id,omitempty"`
	SchemaID               string `json:"schema_id,omitempty"`
	OfferJSON              string `json:"offer_json,omitempty"`
}

// Request answers an offer. It threads to the offer message.
type Request struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`

	CredentialDefinitionID string `json:"cred_def_id,omitempty"`
	RequestJSON            string `json:"request_json,omitempty"`
}

// Issue carries the issued credential. The credential content itself is
// produced outside this core.
type Issue struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`

	CredentialJSON string `json:"credential_json,omitempty"`
}

func NewOffer(credDefID, schemaID string) *Offer {
	id := utils.UUID()
	return &Offer{
		Type:                   pltype.CredentialOffer,
		ID:                     id,
		Thread:                 decorator.NewThread(id, ""),
		CredentialDefinitionID: credDefID,
		SchemaID:               schemaID,
	}
}

func NewRequest(thid, credDefID string) *Request {
	return &Request{
		Type:                   pltype.CredentialRequest,
		ID:                     utils.UUID(),
		Thread:                 decorator.NewThread(thid, ""),
		CredentialDefinitionID: credDefID,
	}
}

func NewIssue(thid, credentialJSON string) *Issue {
	return &Issue{
		Type:           pltype.CredentialIssue,
		ID:             utils.UUID(),
		Thread:         decorator.NewThread(thid, ""),
		CredentialJSON: credentialJSON,
	}
}
