package ssi

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"sync"

	"filippo.io/edwards25519"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

// Enclave is the default Wallet. Keys never leave the process; the key store
// itself is plain memory which is enough for the agent core and its tests.
type Enclave struct {
	l sync.RWMutex

	keys     map[string]*keyPair  // by verkey
	dids     map[string]*DIDInfo  // by DID
	didVKs   map[string]string    // verkey -> DID
	pairwise map[string]*Pairwise // by their verkey
	pwDIDs   map[string]string    // their DID -> their verkey
}

// keyPair holds one ed25519 key and its montgomery form used for the
// envelope box operations.
type keyPair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey

	curvePub  [32]byte
	curvePriv [32]byte
}

func NewEnclave() *Enclave {
	return &Enclave{
		keys:     make(map[string]*keyPair),
		dids:     make(map[string]*DIDInfo),
		didVKs:   make(map[string]string),
		pairwise: make(map[string]*Pairwise),
		pwDIDs:   make(map[string]string),
	}
}

func (e *Enclave) CreateSigningKey(seed string) (ki *KeyInfo, err error) {
	defer err2.Handle(&err, "create signing key")

	e.l.Lock()
	defer e.l.Unlock()

	kp := try.To1(newKeyPair(seed))
	vk := base58.Encode(kp.pub)
	e.keys[vk] = kp

	glog.V(3).Infoln("created signing key:", vk)
	return &KeyInfo{VerKey: vk}, nil
}

func (e *Enclave) CreateLocalDID(seed, metadata string) (di *DIDInfo, err error) {
	defer err2.Handle(&err, "create local DID")

	e.l.Lock()
	defer e.l.Unlock()

	kp := try.To1(newKeyPair(seed))
	vk := base58.Encode(kp.pub)
	did := base58.Encode(kp.pub[:16])

	e.keys[vk] = kp
	info := &DIDInfo{DID: did, VerKey: vk, Metadata: metadata}
	e.dids[did] = info
	e.didVKs[vk] = did

	glog.V(3).Infoln("created local DID:", did)
	c := *info
	return &c, nil
}

func (e *Enclave) GetLocalDID(did string) (*DIDInfo, error) {
	e.l.RLock()
	defer e.l.RUnlock()

	info, ok := e.dids[did]
	if !ok {
		return nil, ErrNotFound
	}
	c := *info
	return &c, nil
}

func (e *Enclave) GetLocalDIDForVerKey(verkey string) (*DIDInfo, error) {
	e.l.RLock()
	defer e.l.RUnlock()

	did, ok := e.didVKs[verkey]
	if !ok {
		return nil, ErrNotFound
	}
	c := *e.dids[did]
	return &c, nil
}

func (e *Enclave) ReplaceLocalDIDMetadata(did, metadata string) error {
	e.l.Lock()
	defer e.l.Unlock()

	info, ok := e.dids[did]
	if !ok {
		return ErrNotFound
	}
	info.Metadata = metadata
	return nil
}

func (e *Enclave) CreatePairwise(
	theirDID, theirVerkey, myDID, metadata string,
) (
	pw *Pairwise, err error,
) {
	defer err2.Handle(&err, "create pairwise")

	var myInfo *DIDInfo
	if myDID == "" {
		// no local DID given, the relationship gets a fresh one
		myInfo = try.To1(e.CreateLocalDID("", ""))
	} else {
		myInfo = try.To1(e.GetLocalDID(myDID))
	}

	e.l.Lock()
	defer e.l.Unlock()

	p := &Pairwise{
		MyDID:       myInfo.DID,
		MyVerKey:    myInfo.VerKey,
		TheirDID:    theirDID,
		TheirVerKey: theirVerkey,
		Metadata:    metadata,
	}
	e.pairwise[theirVerkey] = p
	e.pwDIDs[theirDID] = theirVerkey

	glog.V(3).Infoln("created pairwise:", myInfo.DID, "<->", theirDID)
	c := *p
	return &c, nil
}

func (e *Enclave) GetPairwise(theirDID string) (*Pairwise, error) {
	e.l.RLock()
	defer e.l.RUnlock()

	vk, ok := e.pwDIDs[theirDID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *e.pairwise[vk]
	return &c, nil
}

func (e *Enclave) GetPairwiseForVerKey(theirVerkey string) (*Pairwise, error) {
	e.l.RLock()
	defer e.l.RUnlock()

	p, ok := e.pairwise[theirVerkey]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (e *Enclave) ReplacePairwiseMetadata(theirDID, metadata string) error {
	e.l.Lock()
	defer e.l.Unlock()

	vk, ok := e.pwDIDs[theirDID]
	if !ok {
		return ErrNotFound
	}
	e.pairwise[vk].Metadata = metadata
	return nil
}

func (e *Enclave) SignMessage(msg []byte, verkey string) (sig []byte, err error) {
	defer err2.Handle(&err, "sign")

	e.l.RLock()
	defer e.l.RUnlock()

	kp, ok := e.keys[verkey]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signing key: %s", ErrWallet, verkey)
	}
	return ed25519.Sign(kp.priv, msg), nil
}

// VerifySignature needs only the verkey, not wallet state, so it works for
// peer keys as well.
func (e *Enclave) VerifySignature(msg, signature []byte, verkey string) (bool, error) {
	return Verify(msg, signature, verkey)
}

// Verify verifies an ed25519 signature against a base58 verkey.
func Verify(msg, signature []byte, verkey string) (ok bool, err error) {
	defer err2.Handle(&err, "verify")

	pub := try.To1(base58.Decode(verkey))
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: bad verkey length", ErrWallet)
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, signature), nil
}

func newKeyPair(seed string) (kp *keyPair, err error) {
	defer err2.Handle(&err, "new key pair")

	var seedBytes []byte
	switch len(seed) {
	case 0:
		seedBytes = make([]byte, ed25519.SeedSize)
		try.To1(rand.Read(seedBytes))
	case ed25519.SeedSize:
		seedBytes = []byte(seed)
	default:
		return nil, fmt.Errorf("%w: seed must be empty or 32 characters", ErrWallet)
	}

	priv := ed25519.NewKeyFromSeed(seedBytes)
	pub := priv.Public().(ed25519.PublicKey)

	kp = &keyPair{pub: pub, priv: priv}
	try.To(kp.deriveCurve())
	return kp, nil
}

// deriveCurve computes the curve25519 form of the key pair: the montgomery
// point of the public key and the clamped sha512 prefix of the seed.
func (kp *keyPair) deriveCurve() (err error) {
	defer err2.Handle(&err, "derive curve25519")

	p := try.To1(new(edwards25519.Point).SetBytes(kp.pub))
	copy(kp.curvePub[:], p.BytesMontgomery())

	h := sha512.Sum512(kp.priv.Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	copy(kp.curvePriv[:], h[:32])
	return nil
}

// curvePubOf returns the montgomery form of a peer verkey we don't hold.
func curvePubOf(verkey string) (pub [32]byte, err error) {
	defer err2.Handle(&err, "curve pub of %s", verkey)

	raw := try.To1(base58.Decode(verkey))
	if len(raw) != ed25519.PublicKeySize {
		return pub, fmt.Errorf("%w: bad verkey length", ErrWallet)
	}
	p := try.To1(new(edwards25519.Point).SetBytes(raw))
	copy(pub[:], p.BytesMontgomery())
	return pub, nil
}
