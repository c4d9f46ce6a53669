package session

import "sync"

// Holder carries the active session for the vendor client. The client is
// constructed before login happens, so the holder starts empty and is filled
// once the provider has loaded a session.
type Holder struct {
	mu   sync.RWMutex
	sess *Session
}

func (h *Holder) Set(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess = sess
}

func (h *Holder) CookieHeader() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sess.CookieHeader()
}
