// Package decorator implements message decorators common to all protocols.
package decorator

// Thread is the ~thread decorator which correlates a reply message to the
// message that triggered it.
type Thread struct {
	ID  string `json:"thid,omitempty"`
	PID string `json:"pthid,omitempty"`
}

func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

// CheckThread returns a valid thread for a message ID. It keeps the given
// thread when it carries an ID and falls back to the message ID otherwise.
func CheckThread(thread *Thread, ID string) *Thread {
	if thread == nil {
		return &Thread{ID: ID}
	}
	if thread.ID == "" {
		thread.ID = ID
	}
	return thread
}
