package testutil

import (
	"sync"

	"ostadtodo/internal/notify"
)

// Recorder is a notify.Notifier that keeps every notification.
type Recorder struct {
	mu  sync.Mutex
	all []notify.Notification
}

func (r *Recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// Keys returns the keys received so far, in order.
func (r *Recorder) Keys() []notify.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]notify.Key, len(r.all))
	for i, n := range r.all {
		keys[i] = n.Key
	}
	return keys
}

// Last returns the most recent notification.
func (r *Recorder) Last() (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return notify.Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
