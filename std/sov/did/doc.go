// Package did implements the sov DID document: the public keys and service
// endpoints a DID subject publishes for a relationship.
package did

import (
	"strings"
	"time"
)

// Doc is a DID document.
type Doc struct {
	Context        string               `json:"@context,omitempty"`
	ID             string               `json:"id,omitempty"`
	PublicKey      []PublicKey          `json:"publicKey,omitempty"`
	Service        []Service            `json:"service,omitempty"`
	Authentication []VerificationMethod `json:"authentication,omitempty"`
	Created        *time.Time           `json:"created,omitempty"`
	Updated        *time.Time           `json:"updated,omitempty"`
}

// PublicKey is a DID document public key. Routing keys carry the routingKeyID
// suffix in their ID, the primary signing key is "#1".
type PublicKey struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	Controller      string `json:"controller,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
}

// Service is a DID document service endpoint.
type Service struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	Priority        uint     `json:"priority,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// VerificationMethod is an authentication verification method.
type VerificationMethod struct {
	Type      string `json:"type,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

const (
	keyType      = "Ed25519VerificationKey2018"
	authKeyType  = "Ed25519SignatureAuthentication2018"
	serviceType  = "IndyAgent"
	routingKeyID = "routing"
)

// NewDoc builds a document with one primary signing key and one service.
func NewDoc(did, verkey, endpoint string) *Doc {
	didRef := did + "#1"
	return &Doc{
		Context: "https://w3id.org/did/v1",
		ID:      did,
		PublicKey: []PublicKey{{
			ID:              didRef,
			Type:            keyType,
			Controller:      did,
			PublicKeyBase58: verkey,
		}},
		Service: []Service{{
			ID:              did,
			Type:            serviceType,
			Priority:        0,
			RecipientKeys:   []string{verkey},
			ServiceEndpoint: endpoint,
		}},
		Authentication: []VerificationMethod{{
			Type:      authKeyType,
			PublicKey: didRef,
		}},
	}
}

// AddRouting appends a routing typed key to the document. The service
// endpoint stays as given by the caller, typically the router's.
func (d *Doc) AddRouting(routerVerkey string) {
	d.PublicKey = append(d.PublicKey, PublicKey{
		ID:              d.ID + "#" + routingKeyID,
		Type:            keyType,
		Controller:      d.ID,
		PublicKeyBase58: routerVerkey,
	})
}

// Endpoint returns the document's first service endpoint.
func (d *Doc) Endpoint() string {
	if len(d.Service) == 0 {
		return ""
	}
	return d.Service[0].ServiceEndpoint
}

// PeerKeys splits the document keys to the peer's verification key and its
// routing keys. The first non routing key is authoritative, duplicates are
// ignored. Routing keys keep their document order.
func (d *Doc) PeerKeys() (verkey string, routingKeys []string) {
	routingKeys = make([]string, 0)
	for _, pk := range d.PublicKey {
		if strings.HasSuffix(pk.ID, routingKeyID) {
			routingKeys = append(routingKeys, pk.PublicKeyBase58)
		} else if verkey == "" {
			verkey = pk.PublicKeyBase58
		}
	}
	return verkey, routingKeys
}
