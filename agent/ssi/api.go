/*
Package ssi implements the wallet capability of the agent: per relationship
DID/key pairs, authenticated pack/unpack of byte payloads, and DID metadata
storage. The agent core programs against the Wallet interface; the default
implementation is an in-process enclave (see enclave.go) whose envelope format
is the legacy JWM/1.0 authcrypt (see authcrypt.go).
*/
package ssi

import (
	"errors"
)

// ErrWallet is wrapped by all wallet failures which are not absence signals.
var ErrWallet = errors.New("wallet error")

// ErrNotFound is returned when a key, DID or pairwise doesn't exist in the
// wallet. Callers treat it as an expected absence signal by call site.
var ErrNotFound = errors.New("wallet: not found")

// KeyInfo is a signing key created to the wallet.
type KeyInfo struct {
	VerKey string
}

// DIDInfo is a local DID with its verification key and metadata. Metadata is
// an opaque string owned by the caller, JSON in practice.
type DIDInfo struct {
	DID      string
	VerKey   string
	Metadata string
}

// Pairwise is a relationship between a local DID and a peer DID.
type Pairwise struct {
	MyDID       string
	MyVerKey    string
	TheirDID    string
	TheirVerKey string
	Metadata    string
}

// Wallet is the capability interface the agent core calls into. All methods
// are safe for concurrent use.
type Wallet interface {
	CreateSigningKey(seed string) (*KeyInfo, error)
	CreateLocalDID(seed, metadata string) (*DIDInfo, error)

	GetLocalDID(did string) (*DIDInfo, error)
	GetLocalDIDForVerKey(verkey string) (*DIDInfo, error)
	ReplaceLocalDIDMetadata(did, metadata string) error

	CreatePairwise(theirDID, theirVerkey, myDID, metadata string) (*Pairwise, error)
	GetPairwise(theirDID string) (*Pairwise, error)
	GetPairwiseForVerKey(theirVerkey string) (*Pairwise, error)
	ReplacePairwiseMetadata(theirDID, metadata string) error

	SignMessage(msg []byte, verkey string) ([]byte, error)
	VerifySignature(msg, signature []byte, verkey string) (bool, error)

	PackMessage(msg []byte, recipientKeys []string, senderKey string) ([]byte, error)
	UnpackMessage(data []byte) (msg []byte, fromKey, toKey string, err error)
}
