/*
Package bus is the agent's internal event station. State machines broadcast
their state changes here and listeners, the webhook sink among them, deliver
them onwards. Broadcast never blocks the protocol flow: delivery runs in its
own goroutine and failures are logged, not retried.
*/
package bus

import (
	"sync"

	"github.com/golang/glog"
	"github.com/lainio/err2"
)

// Listener receives broadcast events of all topics.
type Listener interface {
	Notify(topic string, payload interface{}) error
}

// Station fans broadcast events out to its listeners.
type Station struct {
	lk        sync.RWMutex
	listeners []Listener
}

// WantAll is the singleton station of the process.
var WantAll = &Station{}

func (s *Station) AddListener(l Listener) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.listeners = append(s.listeners, l)
}

// Broadcast delivers the event to every listener asynchronously. A failing
// listener is logged and skipped, delivery is at-most-once.
func (s *Station) Broadcast(topic string, payload interface{}) {
	s.lk.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.lk.RUnlock()

	for _, l := range listeners {
		go func(l Listener) {
			defer err2.Catch(func(err error) error {
				glog.Errorf("event delivery (%s): %v", topic, err)
				return nil
			})

			if err := l.Notify(topic, payload); err != nil {
				glog.Errorf("event delivery (%s): %v", topic, err)
			}
		}(l)
	}
}
