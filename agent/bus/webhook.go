package bus

import (
	"bytes"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
)

// WebhookListener POSTs every broadcast event to the configured controller
// URL as a JSON notification.
type WebhookListener struct {
	URL string
}

// Notification is the wire format of one webhook delivery.
type Notification struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

func NewWebhookListener(url string) *WebhookListener {
	return &WebhookListener{URL: url}
}

func (w *WebhookListener) Notify(topic string, payload interface{}) (err error) {
	defer err2.Handle(&err, "webhook notify")

	if w.URL == "" {
		glog.V(3).Infoln("no webhook URL, dropping event:", topic)
		return nil
	}

	data := dto.ToJSONBytes(&Notification{Topic: topic, Payload: payload})
	_, err = comm.SendAndWaitReq(w.URL, bytes.NewReader(data),
		utils.Settings.Timeout())
	return err
}
