/*
Package cred implements the credential exchange state machine on top of the
record store. Both the issuer and the holder side track the exchange in one
record keyed by the protocol thread, and every legal transition broadcasts a
credentials event.
*/
package cred

import (
	"errors"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/bus"
	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/issuecredential"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrCred is wrapped by illegal exchange transitions and missing exchanges.
var ErrCred = errors.New("credential exchange error")

// Exchange states.
const (
	StateOfferSent       = "offer_sent"
	StateOfferReceived   = "offer_received"
	StateRequestSent     = "request_sent"
	StateRequestReceived = "request_received"
	StateIssued          = "issued"
	StateStored          = "stored"
)

const recordExchange = "credential_exchange"

// Exchange is one credential exchange in flight, the stored record value.
type Exchange struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connection_id,omitempty"`
	ThreadID     string `json:"thread_id"`
	Initiator    string `json:"initiator"` // self or external
	State        string `json:"state"`

	CredentialDefinitionID string `json:"credential_definition_id,omitempty"`
	SchemaID               string `json:"schema_id,omitempty"`

	OfferJSON      string `json:"offer_json,omitempty"`
	RequestJSON    string `json:"request_json,omitempty"`
	CredentialJSON string `json:"credential_json,omitempty"`
}

// Manager drives the exchanges of one agent.
type Manager struct {
	Store api.Storage
	Bus   *bus.Station
}

func (m *Manager) notify(ex *Exchange) {
	glog.V(1).Infof("credential exchange %s: %s", ex.ThreadID, ex.State)
	if m.Bus != nil {
		m.Bus.Broadcast(pltype.TopicCredentials, ex)
	}
}

func (m *Manager) save(ex *Exchange, create bool) (err error) {
	defer err2.Handle(&err, "save exchange")

	r := api.Record{
		Type:  recordExchange,
		ID:    ex.ID,
		Value: string(dto.ToJSONBytes(ex)),
		Tags: map[string]string{
			"connection_id":            ex.ConnectionID,
			"thread_id":                ex.ThreadID,
			"state":                    ex.State,
			"credential_definition_id": ex.CredentialDefinitionID,
		},
	}
	if create {
		try.To(m.Store.Add(r))
	} else {
		try.To(m.Store.Update(r))
	}
	m.notify(ex)
	return nil
}

// ByThread returns the exchange of a protocol thread or ErrCred.
func (m *Manager) ByThread(thid string) (ex *Exchange, err error) {
	defer err2.Handle(&err, "exchange by thread")

	records := try.To1(m.Store.Search(recordExchange,
		map[string]string{"thread_id": thid}))
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no exchange for thread %s", ErrCred, thid)
	}
	ex = &Exchange{}
	dto.FromJSONStr(records[0].Value, ex)
	return ex, nil
}

// ByConnection returns the exchanges of one connection.
func (m *Manager) ByConnection(connectionID string) (exs []*Exchange, err error) {
	defer err2.Handle(&err, "exchanges by connection")

	records := try.To1(m.Store.Search(recordExchange,
		map[string]string{"connection_id": connectionID}))
	exs = make([]*Exchange, len(records))
	for i, r := range records {
		exs[i] = &Exchange{}
		dto.FromJSONStr(r.Value, exs[i])
	}
	return exs, nil
}

// CreateOffer starts an exchange as the issuer and returns the offer to send.
func (m *Manager) CreateOffer(
	connectionID, credDefID, schemaID, offerJSON string,
) (
	offer *issuecredential.Offer,
	err error,
) {
	defer err2.Handle(&err, "create offer")

	offer = issuecredential.NewOffer(credDefID, schemaID)
	offer.OfferJSON = offerJSON
	ex := &Exchange{
		ID:                     utils.UUID(),
		ConnectionID:           connectionID,
		ThreadID:               offer.Thread.ID,
		Initiator:              "self",
		State:                  StateOfferSent,
		CredentialDefinitionID: credDefID,
		SchemaID:               schemaID,
		OfferJSON:              offerJSON,
	}
	try.To(m.save(ex, true))
	return offer, nil
}

// ReceiveOffer records an inbound offer as the holder.
func (m *Manager) ReceiveOffer(
	connectionID string,
	offer *issuecredential.Offer,
	thid string,
) (
	ex *Exchange,
	err error,
) {
	defer err2.Handle(&err, "receive offer")

	ex = &Exchange{
		ID:                     utils.UUID(),
		ConnectionID:           connectionID,
		ThreadID:               thid,
		Initiator:              "external",
		State:                  StateOfferReceived,
		CredentialDefinitionID: offer.CredentialDefinitionID,
		SchemaID:               offer.SchemaID,
		OfferJSON:              offer.OfferJSON,
	}
	try.To(m.save(ex, true))
	return ex, nil
}

// CreateRequest answers a received offer and returns the request to send.
// Only an exchange in offer_received can be requested.
func (m *Manager) CreateRequest(
	thid, requestJSON string,
) (
	request *issuecredential.Request,
	err error,
) {
	defer err2.Handle(&err, "create request")

	ex := try.To1(m.ByThread(thid))
	if ex.State != StateOfferReceived {
		return nil, fmt.Errorf("%w: cannot request from state %s",
			ErrCred, ex.State)
	}
	request = issuecredential.NewRequest(thid, ex.CredentialDefinitionID)
	request.RequestJSON = requestJSON

	ex.State = StateRequestSent
	ex.RequestJSON = requestJSON
	try.To(m.save(ex, false))
	return request, nil
}

// ReceiveRequest records the holder's request on the issuer side.
func (m *Manager) ReceiveRequest(
	request *issuecredential.Request,
	thid string,
) (
	ex *Exchange,
	err error,
) {
	defer err2.Handle(&err, "receive request")

	ex = try.To1(m.ByThread(thid))
	if ex.State != StateOfferSent {
		return nil, fmt.Errorf("%w: request in state %s", ErrCred, ex.State)
	}
	ex.State = StateRequestReceived
	ex.RequestJSON = request.RequestJSON
	try.To(m.save(ex, false))
	return ex, nil
}

// Issue builds the issue message for a requested exchange. The credential
// content comes from the caller, typically the controller behind the webhook.
func (m *Manager) Issue(
	thid, credentialJSON string,
) (
	issue *issuecredential.Issue,
	err error,
) {
	defer err2.Handle(&err, "issue credential")

	ex := try.To1(m.ByThread(thid))
	if ex.State != StateRequestReceived {
		return nil, fmt.Errorf("%w: cannot issue from state %s",
			ErrCred, ex.State)
	}
	issue = issuecredential.NewIssue(thid, credentialJSON)

	ex.State = StateIssued
	ex.CredentialJSON = credentialJSON
	try.To(m.save(ex, false))
	return issue, nil
}

// ReceiveIssue stores the issued credential on the holder side and closes the
// exchange.
func (m *Manager) ReceiveIssue(
	issue *issuecredential.Issue,
	thid string,
) (
	ex *Exchange,
	err error,
) {
	defer err2.Handle(&err, "receive credential")

	ex = try.To1(m.ByThread(thid))
	if ex.State != StateRequestSent {
		return nil, fmt.Errorf("%w: credential in state %s", ErrCred, ex.State)
	}
	ex.State = StateStored
	ex.CredentialJSON = issue.CredentialJSON
	try.To(m.save(ex, false))
	return ex, nil
}
