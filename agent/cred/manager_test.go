package cred

import (
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/storage/mem"
	"github.com/stretchr/testify/require"
)

func TestExchange_fullFlow(t *testing.T) {
	issuer := &Manager{Store: mem.New()}
	holder := &Manager{Store: mem.New()}

	offer, err := issuer.CreateOffer("conn-1", "cred-def-1", "schema-1",
		`{"attr":"email"}`)
	require.NoError(t, err)
	thid := offer.Thread.ID
	require.NotEmpty(t, thid)

	ex, err := issuer.ByThread(thid)
	require.NoError(t, err)
	require.Equal(t, StateOfferSent, ex.State)
	require.Equal(t, "self", ex.Initiator)

	hex, err := holder.ReceiveOffer("conn-2", offer, thid)
	require.NoError(t, err)
	require.Equal(t, StateOfferReceived, hex.State)
	require.Equal(t, "external", hex.Initiator)

	request, err := holder.CreateRequest(thid, `{"blinded":"secret"}`)
	require.NoError(t, err)
	require.Equal(t, "cred-def-1", request.CredentialDefinitionID)
	require.Equal(t, thid, request.Thread.ID)

	ex, err = issuer.ReceiveRequest(request, thid)
	require.NoError(t, err)
	require.Equal(t, StateRequestReceived, ex.State)

	issue, err := issuer.Issue(thid, `{"cred":"data"}`)
	require.NoError(t, err)
	require.Equal(t, thid, issue.Thread.ID)

	hex, err = holder.ReceiveIssue(issue, thid)
	require.NoError(t, err)
	require.Equal(t, StateStored, hex.State)
	require.Equal(t, `{"cred":"data"}`, hex.CredentialJSON)
}

func TestExchange_illegalTransitions(t *testing.T) {
	m := &Manager{Store: mem.New()}

	// no exchange at all
	_, err := m.CreateRequest("no-thread", "")
	require.ErrorIs(t, err, ErrCred)
	_, err = m.Issue("no-thread", "")
	require.ErrorIs(t, err, ErrCred)

	offer, err := m.CreateOffer("conn-1", "cred-def-1", "schema-1", "{}")
	require.NoError(t, err)
	thid := offer.Thread.ID

	// the issuer cannot request from its own offer
	_, err = m.CreateRequest(thid, "")
	require.ErrorIs(t, err, ErrCred)

	// issuing before the request is illegal
	_, err = m.Issue(thid, "{}")
	require.ErrorIs(t, err, ErrCred)
}

func TestExchange_byConnection(t *testing.T) {
	m := &Manager{Store: mem.New()}

	_, err := m.CreateOffer("conn-1", "cd-1", "s-1", "{}")
	require.NoError(t, err)
	_, err = m.CreateOffer("conn-1", "cd-2", "s-2", "{}")
	require.NoError(t, err)
	_, err = m.CreateOffer("conn-2", "cd-3", "s-3", "{}")
	require.NoError(t, err)

	exs, err := m.ByConnection("conn-1")
	require.NoError(t, err)
	require.Len(t, exs, 2)
	require.Equal(t, "cd-1", exs[0].CredentialDefinitionID)
	require.Equal(t, "cd-2", exs[1].CredentialDefinitionID)
}
