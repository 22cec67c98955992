// Package pltype declares the message type identifiers of the supported
// protocols.
package pltype

// DIDOrgSov is the base of the legacy message type URIs.
const DIDOrgSov = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/"

// Connection protocol message types.
const (
	ConnectionInvitation = DIDOrgSov + "connections/1.0/invitation"
	ConnectionRequest    = DIDOrgSov + "connections/1.0/request"
	ConnectionResponse   = DIDOrgSov + "connections/1.0/response"
)

// Routing protocol message types.
const (
	RoutingForward = DIDOrgSov + "routing/1.0/forward"
)

// Credential exchange protocol message types.
const (
	CredentialOffer   = DIDOrgSov + "credential-issuance/0.1/credential-offer"
	CredentialRequest = DIDOrgSov + "credential-issuance/0.1/credential-request"
	CredentialIssue   = DIDOrgSov + "credential-issuance/0.1/credential-issue"
)

// Basic message protocol message types.
const (
	BasicMessage = DIDOrgSov + "basicmessage/1.0/message"
)

// Trust ping protocol message types.
const (
	TrustPing         = DIDOrgSov + "trust_ping/1.0/ping"
	TrustPingResponse = DIDOrgSov + "trust_ping/1.0/ping_response"
)

// ConnectionSignature is the type of the detached signature decorating the
// connection field of a connection response.
const ConnectionSignature = DIDOrgSov + "signature/1.0/ed25519Sha512_single"

// Webhook topics for the event sink.
const (
	TopicConnections   = "connections"
	TopicCredentials   = "credentials"
	TopicBasicMessages = "basicmessages"
)
