package ui

import "time"

// toastState holds the transient status message. Each Show bumps the
// generation so a timer from an older message cannot clear a newer one.
type toastState struct {
	message string
	gen     uint64
	expires time.Time
}

func (t *toastState) show(message string, now time.Time, timeout time.Duration) uint64 {
	t.gen++
	t.message = message
	t.expires = now.Add(timeout)
	return t.gen
}

// dismiss clears the message if gen is still current. It reports whether
// anything changed.
func (t *toastState) dismiss(gen uint64) bool {
	if gen != t.gen || t.message == "" {
		return false
	}
	t.message = ""
	return true
}

func (t *toastState) text(now time.Time) string {
	if t.message == "" || now.After(t.expires) {
		return ""
	}
	return t.message
}
