package pairwise

import (
	"os"
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/catalyst-network/catalyst-agent/agent/storage/mem"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/didexchange"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.Settings.SetLabel("test-agent")
	utils.Settings.SetHostAddr("http://localhost:8080")
	os.Exit(m.Run())
}

func newManager() *Manager {
	return &Manager{Wallet: ssi.NewEnclave(), Store: mem.New()}
}

func TestInvitationStore(t *testing.T) {
	m := newManager()

	inv, err := m.CreateInvitation()
	require.NoError(t, err)
	require.NotEmpty(t, inv.Key())
	require.Equal(t, "test-agent", inv.Label)
	require.Equal(t, "http://localhost:8080", inv.ServiceEndpoint)

	found, err := m.FindInvitation(inv.Key())
	require.NoError(t, err)
	require.Equal(t, inv.ID, found.ID)

	require.NoError(t, m.RemoveInvitation(inv.Key()))
	_, err = m.FindInvitation(inv.Key())
	require.ErrorIs(t, err, api.ErrNotFound)

	// removing twice is still fine
	require.NoError(t, m.RemoveInvitation(inv.Key()))
}

func TestReceiveInvitation(t *testing.T) {
	m := newManager()

	err := m.ReceiveInvitation(&didexchange.Invitation{})
	require.ErrorIs(t, err, ErrManager)

	inv := didexchange.NewInvitation("peer", "http://peer:8080",
		[]string{"3Dn1SJNPaCXcvvJvSbsFWP"}, nil)
	require.NoError(t, m.ReceiveInvitation(inv))

	found, err := m.FindInvitation(inv.Key())
	require.NoError(t, err)
	require.Equal(t, "peer", found.Label)
}

func TestHandshake(t *testing.T) {
	alice := newManager()
	bob := newManager()

	inv, err := alice.CreateInvitation()
	require.NoError(t, err)

	reqMsg, bobTarget, err := bob.AcceptInvitation(inv, "")
	require.NoError(t, err)
	require.Equal(t, inv.RecipientKeys, bobTarget.RecipientKeys)
	require.Equal(t, inv.ServiceEndpoint, bobTarget.Endpoint)

	request := reqMsg.FieldObj().(*didexchange.Request)
	require.NotNil(t, request.Connection)
	bobVK, _ := request.Connection.Doc.PeerKeys()
	require.NotEmpty(t, bobVK)

	respMsg, aliceTarget, err := alice.AcceptRequest(request, inv.Key())
	require.NoError(t, err)
	require.Equal(t, []string{bobVK}, aliceTarget.RecipientKeys)

	response := respMsg.FieldObj().(*didexchange.Response)
	require.Equal(t, inv.Key(), response.ConnectionSignature.SignVerKey)
	require.Equal(t, request.ID, response.Thread.ID)

	record, err := bob.AcceptResponse(response, bobTarget.SenderKey)
	require.NoError(t, err)
	require.Equal(t, comm.StateResponded, record.State)
	aliceVK := record.Target.RecipientKeys[0]

	// inbound traffic promotes alice's half of the relationship
	rec, err := alice.ResolveConnection(bobVK, "", true)
	require.NoError(t, err)
	require.Equal(t, comm.StateComplete, rec.State)

	// promotion is monotonic
	rec, err = alice.ResolveConnection(bobVK, "", true)
	require.NoError(t, err)
	require.Equal(t, comm.StateComplete, rec.State)

	// and the same on bob's side
	rec, err = bob.ResolveConnection(aliceVK, "", true)
	require.NoError(t, err)
	require.Equal(t, comm.StateComplete, rec.State)

	// lookup by peer DID for outbound sends
	fc, err := alice.FindConnection(request.Connection.DID)
	require.NoError(t, err)
	require.Equal(t, comm.StateComplete, fc.State)
	require.Equal(t, []string{bobVK}, fc.Target.RecipientKeys)
}

func TestAcceptRequest_withoutInvitation(t *testing.T) {
	alice := newManager()
	bob := newManager()

	inv := didexchange.NewInvitation("nobody", "http://nowhere",
		[]string{"Av9UkoKquvMyAGwBPXD1gh"}, nil)
	reqMsg, _, err := bob.AcceptInvitation(inv, "")
	require.NoError(t, err)
	request := reqMsg.FieldObj().(*didexchange.Request)

	// default policy accepts and signs with a fresh key
	respMsg, _, err := alice.AcceptRequest(request, "Av9UkoKquvMyAGwBPXD1gh")
	require.NoError(t, err)
	response := respMsg.FieldObj().(*didexchange.Response)
	require.NotEqual(t, "Av9UkoKquvMyAGwBPXD1gh",
		response.ConnectionSignature.SignVerKey)

	// strict policy rejects
	utils.Settings.SetRequireInvitation(true)
	defer utils.Settings.SetRequireInvitation(false)

	_, _, err = alice.AcceptRequest(request, "Av9UkoKquvMyAGwBPXD1gh")
	require.ErrorIs(t, err, ErrManager)
}

func TestAcceptRequest_firstKeyWins(t *testing.T) {
	alice := newManager()
	bob := newManager()

	inv, err := alice.CreateInvitation()
	require.NoError(t, err)

	reqMsg, _, err := bob.AcceptInvitation(inv, "")
	require.NoError(t, err)
	request := reqMsg.FieldObj().(*didexchange.Request)

	// a routing key in the peer doc must not become the pairwise key
	request.Connection.Doc.AddRouting("6ZLNnkmnmgWbvHIs4AnZpW")
	primaryVK, routing := request.Connection.Doc.PeerKeys()
	require.Equal(t, []string{"6ZLNnkmnmgWbvHIs4AnZpW"}, routing)

	_, target, err := alice.AcceptRequest(request, inv.Key())
	require.NoError(t, err)
	require.Equal(t, []string{primaryVK}, target.RecipientKeys)
	require.Equal(t, []string{"6ZLNnkmnmgWbvHIs4AnZpW"}, target.RoutingKeys)
}

func TestAcceptResponse_noRequest(t *testing.T) {
	bob := newManager()

	// a response whose thread matches nothing and whose recipient key is
	// foreign cannot be bound to a relationship
	alice := newManager()
	me, err := alice.Wallet.CreateLocalDID("", "")
	require.NoError(t, err)
	response := didexchange.NewResponse("no-such-thread", &didexchange.Connection{})
	require.NoError(t, response.Sign(alice.Wallet, me.VerKey))

	_, err = bob.AcceptResponse(response, "unknown-key")
	require.ErrorIs(t, err, ErrManager)
}

func TestAcceptInvitation_router(t *testing.T) {
	alice := newManager()

	inv := didexchange.NewInvitation("peer", "http://peer:8080",
		[]string{"Av9UkoKquvMyAGwBPXD1gh"}, nil)

	// no router relationship at all
	_, _, err := alice.AcceptInvitation(inv, "BogusRouterKey")
	require.ErrorIs(t, err, ErrManager)

	// router relationship exists but is not complete
	routerKey, err := alice.Wallet.CreateSigningKey("")
	require.NoError(t, err)
	meta := &pairwiseMeta{State: comm.StateResponded, TheirEndpoint: "http://router:8080"}
	_, err = alice.Wallet.CreatePairwise("routerDID", routerKey.VerKey, "", meta.String())
	require.NoError(t, err)

	_, _, err = alice.AcceptInvitation(inv, routerKey.VerKey)
	require.ErrorIs(t, err, ErrManager)

	// completed router relationship gets published in our doc
	meta.State = comm.StateComplete
	require.NoError(t, alice.Wallet.ReplacePairwiseMetadata("routerDID", meta.String()))

	reqMsg, _, err := alice.AcceptInvitation(inv, routerKey.VerKey)
	require.NoError(t, err)

	request := reqMsg.FieldObj().(*didexchange.Request)
	_, routing := request.Connection.Doc.PeerKeys()
	require.Equal(t, []string{routerKey.VerKey}, routing)
	require.Equal(t, "http://router:8080", request.Connection.Doc.Endpoint())
}

func TestResolveConnection_fallbacks(t *testing.T) {
	alice := newManager()
	bob := newManager()

	// nothing known
	rec, err := alice.ResolveConnection("unknown", "unknown", true)
	require.NoError(t, err)
	require.Nil(t, rec)

	// sent invitation resolves to the invited view, nothing to address yet
	inv, err := alice.CreateInvitation()
	require.NoError(t, err)
	rec, err = alice.ResolveConnection("unknown", inv.Key(), true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, comm.StateInvited, rec.State)
	require.Nil(t, rec.Target)

	// a handshake in flight resolves to the requested view addressing the
	// sender key
	senderKey, err := alice.Wallet.CreateSigningKey("")
	require.NoError(t, err)
	_, target, err := bob.AcceptInvitation(inv, "")
	require.NoError(t, err)
	rec, err = bob.ResolveConnection(senderKey.VerKey, target.SenderKey, true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, comm.StateRequested, rec.State)
	require.Equal(t, inv.ServiceEndpoint, rec.Target.Endpoint)
	require.Equal(t, []string{senderKey.VerKey}, rec.Target.RecipientKeys)
}

func TestResolveConnection_completeWithoutEndpoint(t *testing.T) {
	alice := newManager()

	key, err := alice.Wallet.CreateSigningKey("")
	require.NoError(t, err)
	meta := &pairwiseMeta{State: comm.StateComplete, TheirLabel: "broken"}
	_, err = alice.Wallet.CreatePairwise("peerDID", key.VerKey, "", meta.String())
	require.NoError(t, err)

	// a complete record without an endpoint cannot direct a send, it is
	// discarded like any inconsistent record
	rec, err := alice.ResolveConnection(key.VerKey, "", true)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestResolveConnection_badState(t *testing.T) {
	alice := newManager()

	key, err := alice.Wallet.CreateSigningKey("")
	require.NoError(t, err)
	meta := &pairwiseMeta{State: "garbage"}
	_, err = alice.Wallet.CreatePairwise("peerDID", key.VerKey, "", meta.String())
	require.NoError(t, err)

	// impossible states are discarded, not served
	rec, err := alice.ResolveConnection(key.VerKey, "", true)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestExpandCompactMessage(t *testing.T) {
	alice := newManager()
	bob := newManager()

	inv, err := alice.CreateInvitation()
	require.NoError(t, err)
	msg := didexchange.NewInvitationMsg(inv)

	// no keys: plaintext both ways
	data, err := alice.CompactMessage(msg, &comm.Target{})
	require.NoError(t, err)
	require.JSONEq(t, string(msg.JSON()), string(data))

	opened, fromVK, toVK, err := bob.ExpandMessage(data)
	require.NoError(t, err)
	require.Empty(t, fromVK)
	require.Empty(t, toVK)
	require.JSONEq(t, string(msg.JSON()), string(opened))

	// with keys: sealed end to end
	aliceKey, err := alice.Wallet.CreateSigningKey("")
	require.NoError(t, err)
	bobKey, err := bob.Wallet.CreateSigningKey("")
	require.NoError(t, err)

	data, err = alice.CompactMessage(msg, &comm.Target{
		SenderKey:     aliceKey.VerKey,
		RecipientKeys: []string{bobKey.VerKey},
	})
	require.NoError(t, err)
	require.NotContains(t, string(data), inv.ID)

	opened, fromVK, toVK, err = bob.ExpandMessage(data)
	require.NoError(t, err)
	require.Equal(t, aliceKey.VerKey, fromVK)
	require.Equal(t, bobKey.VerKey, toVK)
	require.JSONEq(t, string(msg.JSON()), string(opened))

	// garbage is a parse error
	_, _, _, err = bob.ExpandMessage([]byte("not json at all"))
	require.ErrorIs(t, err, didcomm.ErrParse)
}
