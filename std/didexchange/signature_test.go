package didexchange

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/std/sov/did"
	"github.com/stretchr/testify/require"
)

func testConnection(t *testing.T, w ssi.Wallet) *Connection {
	t.Helper()

	info, err := w.CreateLocalDID("", "")
	require.NoError(t, err)
	return &Connection{
		DID: info.DID,
		Doc: did.NewDoc(info.DID, info.VerKey, "http://example.com:8080"),
	}
}

func TestResponseSignature(t *testing.T) {
	w := ssi.NewEnclave()
	signKey, err := w.CreateSigningKey("")
	require.NoError(t, err)

	conn := testConnection(t, w)
	r := NewResponse("thread-1", conn)
	require.NoError(t, r.Sign(w, signKey.VerKey))
	require.Equal(t, signKey.VerKey, r.ConnectionSignature.SignVerKey)

	// the verifier sees only the wire fields
	wire := &Response{
		Type:                r.Type,
		ID:                  r.ID,
		ConnectionSignature: r.ConnectionSignature,
		Thread:              r.Thread,
	}
	got, err := wire.VerifySignature()
	require.NoError(t, err)
	require.Equal(t, conn.DID, got.DID)
	require.Equal(t, conn.Doc.Endpoint(), got.Doc.Endpoint())
	require.Equal(t, got, wire.Connection)
}

func TestResponseSignature_tampered(t *testing.T) {
	w := ssi.NewEnclave()
	signKey, err := w.CreateSigningKey("")
	require.NoError(t, err)

	r := NewResponse("thread-1", testConnection(t, w))
	require.NoError(t, r.Sign(w, signKey.VerKey))

	data, err := base64.URLEncoding.DecodeString(r.ConnectionSignature.SignedData)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	r.ConnectionSignature.SignedData = base64.URLEncoding.EncodeToString(data)

	_, err = r.VerifySignature()
	require.Error(t, err)
}

func TestResponseSignature_expired(t *testing.T) {
	w := ssi.NewEnclave()
	signKey, err := w.CreateSigningKey("")
	require.NoError(t, err)

	r := NewResponse("thread-1", testConnection(t, w))
	require.NoError(t, r.Sign(w, signKey.VerKey))

	// re-sign the same payload with a timestamp from far in the past
	data, err := base64.URLEncoding.DecodeString(r.ConnectionSignature.SignedData)
	require.NoError(t, err)
	old := time.Now().Unix() - int64(connectionSigExpTime) - 60
	binary.BigEndian.PutUint64(data, uint64(old))
	sig, err := w.SignMessage(data, signKey.VerKey)
	require.NoError(t, err)
	r.ConnectionSignature.SignedData = base64.URLEncoding.EncodeToString(data)
	r.ConnectionSignature.Signature = base64.URLEncoding.EncodeToString(sig)

	_, err = r.VerifySignature()
	require.Error(t, err)
}

func TestResponseSignature_missing(t *testing.T) {
	r := &Response{}
	_, err := r.VerifySignature()
	require.Error(t, err)
}
