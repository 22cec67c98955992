package sec

import (
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/std/common"
	"github.com/stretchr/testify/require"
)

func TestPipe_roundTrip(t *testing.T) {
	alice := ssi.NewEnclave()
	bob := ssi.NewEnclave()

	aliceKey, err := alice.CreateSigningKey("")
	require.NoError(t, err)
	bobKey, err := bob.CreateSigningKey("")
	require.NoError(t, err)

	p := NewPipe(alice, aliceKey.VerKey, []string{bobKey.VerKey}, nil)

	msg := []byte(`{"@type":"test/1.0/msg","@id":"42"}`)
	data, err := p.Pack(msg)
	require.NoError(t, err)

	opened, from, to, err := Unpack(bob, data)
	require.NoError(t, err)
	require.Equal(t, msg, opened)
	require.Equal(t, aliceKey.VerKey, from)
	require.Equal(t, bobKey.VerKey, to)
}

func TestPipe_noRecipients(t *testing.T) {
	alice := ssi.NewEnclave()
	aliceKey, err := alice.CreateSigningKey("")
	require.NoError(t, err)

	p := NewPipe(alice, aliceKey.VerKey, nil, nil)
	_, err = p.Pack([]byte("x"))
	require.ErrorIs(t, err, ErrPack)
}

// Two routing keys: the wrap addressed to the last routing key ends up
// outermost, so the hops open the envelope in reverse key list order before
// the recipient gets the payload.
func TestPipe_forwardWrap(t *testing.T) {
	alice := ssi.NewEnclave()
	bob := ssi.NewEnclave()
	router1 := ssi.NewEnclave()
	router2 := ssi.NewEnclave()

	aliceKey, err := alice.CreateSigningKey("")
	require.NoError(t, err)
	bobKey, err := bob.CreateSigningKey("")
	require.NoError(t, err)
	rk1, err := router1.CreateSigningKey("")
	require.NoError(t, err)
	rk2, err := router2.CreateSigningKey("")
	require.NoError(t, err)

	p := NewPipe(alice, aliceKey.VerKey,
		[]string{bobKey.VerKey}, []string{rk1.VerKey, rk2.VerKey})

	msg := []byte(`{"@type":"test/1.0/msg"}`)
	data, err := p.Pack(msg)
	require.NoError(t, err)

	// hop 1: the second routing key opens the outermost wrap
	fwd := unwrapHop(t, router2, data)
	require.Equal(t, []string{rk1.VerKey}, fwd.To)
	env, err := UnwrapForward(fwd)
	require.NoError(t, err)

	// hop 2: the first routing key opens the inner wrap
	fwd = unwrapHop(t, router1, env)
	require.Equal(t, []string{bobKey.VerKey}, fwd.To)
	env, err = UnwrapForward(fwd)
	require.NoError(t, err)

	// the recipient opens the innermost envelope
	opened, from, _, err := Unpack(bob, env)
	require.NoError(t, err)
	require.Equal(t, msg, opened)
	require.Equal(t, aliceKey.VerKey, from)
}

func TestPipe_noRoutingKeysNoWrap(t *testing.T) {
	alice := ssi.NewEnclave()
	bob := ssi.NewEnclave()

	aliceKey, err := alice.CreateSigningKey("")
	require.NoError(t, err)
	bobKey, err := bob.CreateSigningKey("")
	require.NoError(t, err)

	p := NewPipe(alice, aliceKey.VerKey, []string{bobKey.VerKey}, []string{})
	data, err := p.Pack([]byte(`{"a":1}`))
	require.NoError(t, err)

	opened, _, _, err := Unpack(bob, data)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(opened))
}

func unwrapHop(t *testing.T, w ssi.Wallet, data []byte) *common.Forward {
	t.Helper()

	opened, _, _, err := Unpack(w, data)
	require.NoError(t, err)

	msg, err := didcomm.Creator.NewFromData(opened)
	require.NoError(t, err)

	fwd, ok := msg.FieldObj().(*common.Forward)
	require.True(t, ok, "hop message must be a forward")
	return fwd
}
