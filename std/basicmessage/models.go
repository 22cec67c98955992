// Package basicmessage implements the basic message protocol: plain text
// content over an established connection.
package basicmessage

import (
	"errors"
	"strings"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/pltype"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ISO8601 is the sent_time wire format. The truncated fraction keeps older
// peer implementations parsing it.
const ISO8601 = "2006-01-02 15:04:05.999999Z"

// AriesTime marshals to the ISO8601 form above and parses RFC3339 as well.
type AriesTime struct {
	time.Time
}

type Message struct {
	Type     string            `json:"@type,omitempty"`
	ID       string            `json:"@id,omitempty"`
	Thread   *decorator.Thread `json:"~thread,omitempty"`
	Content  string            `json:"content"`
	SentTime AriesTime         `json:"sent_time"`
}

func NewMessage(content string) *Message {
	return &Message{
		Type:     pltype.BasicMessage,
		ID:       utils.UUID(),
		Content:  content,
		SentTime: AriesTime{Time: time.Now().UTC()},
	}
}

func validateTimestamp(timeStr string) (t time.Time, err error) {
	acceptedFormats := []string{ISO8601, time.RFC3339}
	for _, format := range acceptedFormats {
		if t, err = time.Parse(format, timeStr); err == nil {
			break
		}
	}
	return
}

func (at *AriesTime) UnmarshalJSON(b []byte) (err error) {
	defer err2.Handle(&err, "parse sent_time")

	t := try.To1(validateTimestamp(strings.Trim(string(b), "\"")))

	*at = AriesTime{Time: t}
	return
}

func (at AriesTime) MarshalJSON() ([]byte, error) {
	t := at.Time
	if y := t.Year(); y < 0 || y >= 10000 {
		return nil, errors.New("Time.MarshalJSON: year outside of range [0,9999]")
	}

	b := make([]byte, 0, len(ISO8601)+2)
	b = append(b, '"')
	b = t.AppendFormat(b, ISO8601)
	b = append(b, '"')
	return b, nil
}

func (at AriesTime) String() string {
	return at.Time.String()
}
