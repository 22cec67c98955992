/*
Package sec implements the secure envelope codec between DID connections. All
agent to agent communication goes through a Pipe which packs outgoing messages
to authenticated encryption envelopes and wraps them once per routing key for
store-and-forward delivery.
*/
package sec

import (
	"errors"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/std/common"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrPack is wrapped by envelope packing failures.
var ErrPack = errors.New("packing error")

// ErrUnpack is wrapped by envelope opening failures. Callers must treat it as
// "not a packed message" and try plain JSON parsing, not as fatal.
var ErrUnpack = errors.New("unpack error")

// Pipe is the secure way to transport data to one DID connection. It carries
// the key material of one direction: our sender key and the peer's recipient
// and routing keys.
type Pipe struct {
	wallet ssi.Wallet

	SenderKey     string
	RecipientKeys []string
	RoutingKeys   []string
}

func NewPipe(w ssi.Wallet, senderKey string, recipientKeys, routingKeys []string) Pipe {
	return Pipe{
		wallet:        w,
		SenderKey:     senderKey,
		RecipientKeys: recipientKeys,
		RoutingKeys:   routingKeys,
	}
}

// Pack encrypts msg to the pipe's recipients. When the pipe has routing keys
// the envelope is wrapped with one Forward per key so that every hop learns
// only its next destination: the wrap for the first hop ends up outermost on
// the wire.
func (p Pipe) Pack(msg []byte) (data []byte, err error) {
	defer err2.Handle(&err, "sec pipe pack")

	if len(p.RecipientKeys) == 0 {
		return nil, fmt.Errorf("%w: no recipient keys", ErrPack)
	}

	data, werr := p.wallet.PackMessage(msg, p.RecipientKeys, p.SenderKey)
	if werr != nil {
		return nil, fmt.Errorf("%w: %s", ErrPack, werr)
	}

	currentRecipients := p.RecipientKeys
	for _, routingKey := range p.RoutingKeys {
		glog.V(5).Infoln("wrapping forward to:", routingKey)

		fwd := common.NewForward(currentRecipients, data)
		data, werr = p.wallet.PackMessage(
			dto.ToJSONBytes(fwd), []string{routingKey}, p.SenderKey)
		if werr != nil {
			return nil, fmt.Errorf("%w: %s", ErrPack, werr)
		}
		currentRecipients = []string{routingKey}
	}
	return data, nil
}

// Unpack opens an envelope with the wallet and returns the plaintext and the
// envelope's sender and recipient verification keys.
func Unpack(w ssi.Wallet, data []byte) (msg []byte, fromKey, toKey string, err error) {
	defer err2.Handle(&err, "sec unpack")

	msg, fromKey, toKey, werr := w.UnpackMessage(data)
	if werr != nil {
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnpack, werr)
	}
	return msg, fromKey, toKey, nil
}

// UnwrapForward opens one routing hop: it returns the embedded envelope which
// is relayed to the forward's recipients unmodified.
func UnwrapForward(fwd *common.Forward) (env []byte, err error) {
	defer err2.Handle(&err, "unwrap forward")

	env = try.To1(fwd.Payload())
	return env, nil
}
