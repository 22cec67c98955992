package ssi

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
)

// The envelope is the legacy JWM/1.0 authcrypt format: a random content
// encryption key seals the payload with ChaCha20-Poly1305, and the CEK is
// boxed separately to every recipient together with an anonymously sealed
// sender hint.
const (
	encodingType = "JWM/1.0"
	encAlg       = "chacha20poly1305_ietf"
	packAlg      = "Authcrypt"
)

type envelope struct {
	Protected  string `json:"protected"`
	IV         string `json:"iv"`
	CipherText string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

type protected struct {
	Enc        string      `json:"enc"`
	Typ        string      `json:"typ"`
	Alg        string      `json:"alg"`
	Recipients []recipient `json:"recipients"`
}

type recipient struct {
	EncryptedKey string          `json:"encrypted_key"`
	Header       recipientHeader `json:"header"`
}

type recipientHeader struct {
	KID    string `json:"kid"`
	Sender string `json:"sender"`
	IV     string `json:"iv"`
}

func (e *Enclave) PackMessage(
	msg []byte,
	recipientKeys []string,
	senderKey string,
) (
	data []byte, err error,
) {
	defer err2.Handle(&err, "pack message")

	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("%w: no recipient keys", ErrWallet)
	}

	e.l.RLock()
	sender, ok := e.keys[senderKey]
	e.l.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown sender key: %s", ErrWallet, senderKey)
	}

	cek := make([]byte, chacha20poly1305.KeySize)
	try.To1(rand.Read(cek))

	recipients := make([]recipient, len(recipientKeys))
	for i, rk := range recipientKeys {
		curvePub := try.To1(curvePubOf(rk))

		var nonce [24]byte
		try.To1(rand.Read(nonce[:]))
		encCEK := box.Seal(nil, cek, &nonce, &curvePub, &sender.curvePriv)
		hint := try.To1(box.SealAnonymous(
			nil, []byte(senderKey), &curvePub, rand.Reader))

		recipients[i] = recipient{
			EncryptedKey: utils.EncodeB64(encCEK),
			Header: recipientHeader{
				KID:    rk,
				Sender: utils.EncodeB64(hint),
				IV:     utils.EncodeB64(nonce[:]),
			},
		}
	}

	protB64 := utils.EncodeB64(dto.ToJSONBytes(&protected{
		Enc:        encAlg,
		Typ:        encodingType,
		Alg:        packAlg,
		Recipients: recipients,
	}))

	aead := try.To1(chacha20poly1305.New(cek))
	nonce := make([]byte, aead.NonceSize())
	try.To1(rand.Read(nonce))

	sealed := aead.Seal(nil, nonce, msg, []byte(protB64))
	tagAt := len(sealed) - aead.Overhead()

	return dto.ToJSONBytes(&envelope{
		Protected:  protB64,
		IV:         utils.EncodeB64(nonce),
		CipherText: utils.EncodeB64(sealed[:tagAt]),
		Tag:        utils.EncodeB64(sealed[tagAt:]),
	}), nil
}

func (e *Enclave) UnpackMessage(data []byte) (
	msg []byte,
	fromKey string,
	toKey string,
	err error,
) {
	defer err2.Handle(&err, "unpack message")

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", "", fmt.Errorf("%w: not an envelope: %s", ErrWallet, err)
	}
	if env.Protected == "" || env.CipherText == "" {
		return nil, "", "", fmt.Errorf("%w: not an envelope", ErrWallet)
	}

	var prot protected
	protJSON := try.To1(utils.DecodeB64(env.Protected))
	try.To(json.Unmarshal(protJSON, &prot))

	rcpt, kp := e.findRecipient(prot.Recipients)
	if rcpt == nil {
		return nil, "", "", fmt.Errorf("%w: no recipient key of ours", ErrWallet)
	}

	hint := try.To1(utils.DecodeB64(rcpt.Header.Sender))
	senderVK, ok := box.OpenAnonymous(nil, hint, &kp.curvePub, &kp.curvePriv)
	if !ok {
		return nil, "", "", fmt.Errorf("%w: cannot open sender hint", ErrWallet)
	}
	senderCurve := try.To1(curvePubOf(string(senderVK)))

	var nonce24 [24]byte
	copy(nonce24[:], try.To1(utils.DecodeB64(rcpt.Header.IV)))
	encCEK := try.To1(utils.DecodeB64(rcpt.EncryptedKey))
	cek, ok := box.Open(nil, encCEK, &nonce24, &senderCurve, &kp.curvePriv)
	if !ok {
		return nil, "", "", fmt.Errorf("%w: cannot open cek", ErrWallet)
	}

	aead := try.To1(chacha20poly1305.New(cek))
	nonce := try.To1(utils.DecodeB64(env.IV))
	sealed := append(
		try.To1(utils.DecodeB64(env.CipherText)),
		try.To1(utils.DecodeB64(env.Tag))...)

	msg, openErr := aead.Open(nil, nonce, sealed, []byte(env.Protected))
	if openErr != nil {
		return nil, "", "", fmt.Errorf("%w: authentication failed", ErrWallet)
	}
	return msg, string(senderVK), rcpt.Header.KID, nil
}

// findRecipient returns the first envelope recipient whose key we hold.
func (e *Enclave) findRecipient(rs []recipient) (*recipient, *keyPair) {
	e.l.RLock()
	defer e.l.RUnlock()

	for i := range rs {
		if kp, ok := e.keys[rs[i].Header.KID]; ok {
			return &rs[i], kp
		}
	}
	return nil, nil
}
