package notification

import (
	"sync"
)

// MaxSummary caps the body length shown in transient notifications.
const MaxSummary = 200

// Notifier reports a message to the user. Implementations must not block
// the caller for longer than it takes to hand the message off.
type Notifier interface {
	Notify(title, message string)
}

// Summary truncates text to MaxSummary runes.
func Summary(text string) string {
	r := []rune(text)
	if len(r) <= MaxSummary {
		return text
	}
	return string(r[:MaxSummary]) + "..."
}

// Once forwards only the first notification per interaction key. Keys are
// generations, so a key at or below the last reported one is suppressed.
// The top-level error handler uses it so a failing interaction reports
// exactly once.
type Once struct {
	next     Notifier
	mu       sync.Mutex
	last     uint64
	reported bool
}

func NewOnce(next Notifier) *Once {
	return &Once{next: next}
}

// NotifyFor reports for the interaction key unless it already reported.
func (o *Once) NotifyFor(key uint64, title, message string) bool {
	o.mu.Lock()
	if o.reported && key <= o.last {
		o.mu.Unlock()
		return false
	}
	o.last, o.reported = key, true
	o.mu.Unlock()
	o.next.Notify(title, message)
	return true
}
