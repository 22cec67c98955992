package didexchange

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// connectionSigExpTime is the max age of an accepted signature in seconds.
const connectionSigExpTime = 10 * 60 * 60

// Sign builds the response's detached connection signature with the given
// wallet key, the inviter's invitation key in the handshake. The signed data
// is the connection JSON prefixed with a big endian unix timestamp.
func (r *Response) Sign(w ssi.Wallet, verkey string) (err error) {
	defer err2.Handle(&err, "sign connection")

	connJSON := try.To1(json.Marshal(r.Connection))

	signedData := make([]byte, 8+len(connJSON))
	binary.BigEndian.PutUint64(signedData, uint64(time.Now().Unix()))
	copy(signedData[8:], connJSON)

	signature := try.To1(w.SignMessage(signedData, verkey))

	r.ConnectionSignature = &ConnectionSignature{
		Type:       pltype.ConnectionSignature,
		SignedData: base64.URLEncoding.EncodeToString(signedData),
		Signature:  base64.URLEncoding.EncodeToString(signature),
		SignVerKey: verkey,
	}
	return nil
}

// VerifySignature checks the detached signature with the key it names and
// returns the connection data when it holds. The caller matches the key
// against the invitation it sent.
func (r *Response) VerifySignature() (c *Connection, err error) {
	defer err2.Handle(&err, "verify connection sign")

	cs := r.ConnectionSignature
	if cs == nil {
		return nil, fmt.Errorf("response has no connection signature")
	}

	data := try.To1(base64.URLEncoding.DecodeString(cs.SignedData))
	if len(data) <= 8 {
		return nil, fmt.Errorf("missing or invalid signature data")
	}
	signature := try.To1(base64.URLEncoding.DecodeString(cs.Signature))

	ok := try.To1(ssi.Verify(data, signature, cs.SignVerKey))
	if !ok {
		glog.Error("cannot verify connection signature")
		return nil, fmt.Errorf("signature verification failed")
	}

	timestamp := int64(binary.BigEndian.Uint64(data))
	if time.Now().Unix()-timestamp > connectionSigExpTime {
		glog.Error("connection signature timestamp too old")
		return nil, fmt.Errorf("signature timestamp too old")
	}
	glog.V(3).Infoln("verified connection signature w/ ts:", time.Unix(timestamp, 0))

	connection := &Connection{}
	dto.FromJSON(data[8:], connection)
	r.Connection = connection
	return connection, nil
}
