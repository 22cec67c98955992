package ssi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackMessage(t *testing.T) {
	sender := NewEnclave()
	receiver := NewEnclave()

	senderKey, err := sender.CreateSigningKey("")
	require.NoError(t, err)
	receiverKey, err := receiver.CreateSigningKey("")
	require.NoError(t, err)

	msg := []byte(`{"@type":"test","@id":"1"}`)
	env, err := sender.PackMessage(msg, []string{receiverKey.VerKey}, senderKey.VerKey)
	require.NoError(t, err)
	require.NotContains(t, string(env), "test") // payload must be sealed

	opened, fromKey, toKey, err := receiver.UnpackMessage(env)
	require.NoError(t, err)
	require.Equal(t, msg, opened)
	require.Equal(t, senderKey.VerKey, fromKey)
	require.Equal(t, receiverKey.VerKey, toKey)
}

func TestPackMessage_manyRecipients(t *testing.T) {
	sender := NewEnclave()
	r1 := NewEnclave()
	r2 := NewEnclave()

	senderKey, err := sender.CreateSigningKey("")
	require.NoError(t, err)
	k1, err := r1.CreateSigningKey("")
	require.NoError(t, err)
	k2, err := r2.CreateSigningKey("")
	require.NoError(t, err)

	msg := []byte(`{"hello":"world"}`)
	env, err := sender.PackMessage(msg,
		[]string{k1.VerKey, k2.VerKey}, senderKey.VerKey)
	require.NoError(t, err)

	for _, w := range []*Enclave{r1, r2} {
		opened, _, _, err := w.UnpackMessage(env)
		require.NoError(t, err)
		require.Equal(t, msg, opened)
	}
}

func TestPackMessage_errors(t *testing.T) {
	w := NewEnclave()
	key, err := w.CreateSigningKey("")
	require.NoError(t, err)

	// unknown sender key
	_, err = w.PackMessage([]byte("x"), []string{key.VerKey}, "unknown")
	require.Error(t, err)

	// no recipients
	_, err = w.PackMessage([]byte("x"), nil, key.VerKey)
	require.Error(t, err)
}

func TestUnpackMessage_wrongWallet(t *testing.T) {
	sender := NewEnclave()
	receiver := NewEnclave()
	outsider := NewEnclave()

	senderKey, err := sender.CreateSigningKey("")
	require.NoError(t, err)
	receiverKey, err := receiver.CreateSigningKey("")
	require.NoError(t, err)

	env, err := sender.PackMessage([]byte("secret"),
		[]string{receiverKey.VerKey}, senderKey.VerKey)
	require.NoError(t, err)

	_, _, _, err = outsider.UnpackMessage(env)
	require.Error(t, err)

	_, _, _, err = receiver.UnpackMessage([]byte(`{"plain":"json"}`))
	require.Error(t, err)
}

func TestSignMessage(t *testing.T) {
	w := NewEnclave()
	key, err := w.CreateSigningKey("")
	require.NoError(t, err)

	msg := []byte("sign this")
	sig, err := w.SignMessage(msg, key.VerKey)
	require.NoError(t, err)

	ok, err := w.VerifySignature(msg, sig, key.VerKey)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify([]byte("tampered"), sig, key.VerKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateLocalDID_seed(t *testing.T) {
	w := NewEnclave()

	_, err := w.CreateLocalDID("too short", "")
	require.Error(t, err)

	info, err := w.CreateLocalDID("000000000000000000000000Steward1", "")
	require.NoError(t, err)

	again, err := w.GetLocalDIDForVerKey(info.VerKey)
	require.NoError(t, err)
	require.Equal(t, info.DID, again.DID)
}
