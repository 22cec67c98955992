package bus

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/stretchr/testify/require"
)

type chanListener struct {
	events chan Notification
}

func (l *chanListener) Notify(topic string, payload interface{}) error {
	l.events <- Notification{Topic: topic, Payload: payload}
	return nil
}

type failingListener struct{}

func (failingListener) Notify(string, interface{}) error {
	return errors.New("sink is down")
}

func receive(t *testing.T, ch chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Notification{}
	}
}

func TestBroadcast(t *testing.T) {
	station := &Station{}
	l := &chanListener{events: make(chan Notification, 8)}
	station.AddListener(l)

	station.Broadcast("connections", "pairwise-1")

	n := receive(t, l.events)
	require.Equal(t, "connections", n.Topic)
	require.Equal(t, "pairwise-1", n.Payload)
}

func TestBroadcast_failingListenerDoesNotBlockOthers(t *testing.T) {
	station := &Station{}
	station.AddListener(failingListener{})
	l := &chanListener{events: make(chan Notification, 8)}
	station.AddListener(l)

	station.Broadcast("credentials", "exchange-1")

	n := receive(t, l.events)
	require.Equal(t, "credentials", n.Topic)
}

func TestWebhookNotify(t *testing.T) {
	orig := comm.SendAndWaitReq
	t.Cleanup(func() { comm.SendAndWaitReq = orig })

	posted := make(chan []byte, 1)
	comm.SendAndWaitReq = func(
		urlStr string, msg io.Reader, _ time.Duration,
	) ([]byte, error) {
		require.Equal(t, "http://controller:9000/hook", urlStr)
		data, err := io.ReadAll(msg)
		require.NoError(t, err)
		posted <- data
		return []byte("ok"), nil
	}

	w := NewWebhookListener("http://controller:9000/hook")
	require.NoError(t, w.Notify("connections", map[string]string{"state": "complete"}))

	var n Notification
	dto.FromJSON(<-posted, &n)
	require.Equal(t, "connections", n.Topic)
	require.Equal(t, map[string]interface{}{"state": "complete"}, n.Payload)
}

func TestWebhookNotify_noURL(t *testing.T) {
	orig := comm.SendAndWaitReq
	t.Cleanup(func() { comm.SendAndWaitReq = orig })
	comm.SendAndWaitReq = func(string, io.Reader, time.Duration) ([]byte, error) {
		t.Fatal("must not post without a URL")
		return nil, nil
	}

	w := NewWebhookListener("")
	require.NoError(t, w.Notify("connections", "dropped"))
}
