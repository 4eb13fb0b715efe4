// Package pointer owns the process-wide input hook. It translates raw
// gohook events into pointer and key events and fans them out to
// subscribers without ever blocking the hook.
package pointer

import (
	"log"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// Kind identifies an Event.
type Kind uint8

const (
	PointerDown Kind = iota + 1
	PointerUp
	DoubleClick
	KeyDown
	KeyUp
)

func (k Kind) String() string {
	switch k {
	case PointerDown:
		return "PointerDown"
	case PointerUp:
		return "PointerUp"
	case DoubleClick:
		return "DoubleClick"
	case KeyDown:
		return "KeyDown"
	case KeyUp:
		return "KeyUp"
	default:
		return "Unknown"
	}
}

// Event is a translated input event.
type Event struct {
	Kind Kind
	At   Point
	When time.Time

	// Continuation is set on a PointerDown that is the second (or third)
	// press of a multi-click. It belongs to the gesture already in flight.
	Continuation bool

	// Rawcode is the virtual key code for key events.
	Rawcode uint16
}

// Hook is the native hook surface. The default implementation is gohook.
type Hook interface {
	Start() chan hook.Event
	End()
}

type gohookHook struct{}

func (gohookHook) Start() chan hook.Event { return hook.Start() }
func (gohookHook) End()                   { hook.End() }

const leftButton = 1

type Options struct {
	// Hook defaults to the gohook process hook.
	Hook Hook

	DoubleClickWindow   time.Duration
	DoubleClickDistance int
}

// Source is the single owner of the process-wide hook.
type Source struct {
	hook Hook

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	subs    []chan Event

	installFailed sync.Once

	// Owned by the pump goroutine.
	clicks     *clickTracker
	buttonHeld bool
	pressCount int
}

func NewSource(opts Options) *Source {
	h := opts.Hook
	if h == nil {
		h = gohookHook{}
	}
	window := opts.DoubleClickWindow
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	distance := opts.DoubleClickDistance
	if distance <= 0 {
		distance = 40
	}
	return &Source{
		hook:   h,
		clicks: newClickTracker(window, distance),
	}
}

// Subscribe returns a channel receiving every event from now on. Events are
// dropped for a subscriber whose buffer is full.
func (s *Source) Subscribe(buf int) <-chan Event {
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan Event, buf)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Start installs the hook. Calling it while running is a no-op. It reports
// whether the hook is running; an install failure is logged once and the
// caller carries on without pointer events.
func (s *Source) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return true
	}

	evChan := s.start()
	if evChan == nil {
		s.installFailed.Do(func() {
			log.Printf("ERROR: input hook could not be installed; selection translation is disabled")
		})
		return false
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.pump(evChan, s.stop, s.done)
	log.Printf("Input hook started")
	return true
}

func (s *Source) start() (ch chan hook.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC while starting input hook: %v", r)
			ch = nil
		}
	}()
	return s.hook.Start()
}

// Stop removes the hook and waits for the pump to exit. Safe to call more
// than once.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	s.hook.End()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Printf("WARNING: input hook pump did not exit in time")
	}
	log.Printf("Input hook stopped")
}

// Running reports whether the hook is installed.
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Source) pump(evChan chan hook.Event, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in input hook pump: %v", r)
		}
	}()

	s.clicks.reset()
	s.buttonHeld = false
	s.pressCount = 0

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-evChan:
			if !ok {
				log.Printf("Input hook channel closed")
				return
			}
			for _, out := range s.translate(ev) {
				s.publish(out)
			}
		}
	}
}

// translate maps one raw event to zero or more events. Backends disagree on
// which mouse kind marks a press and which a release, so the held state of
// the left button decides.
func (s *Source) translate(ev hook.Event) []Event {
	when := ev.When
	if when.IsZero() {
		when = time.Now()
	}

	switch ev.Kind {
	case hook.KeyDown:
		return []Event{{Kind: KeyDown, When: when, Rawcode: ev.Rawcode}}
	case hook.KeyUp:
		return []Event{{Kind: KeyUp, When: when, Rawcode: ev.Rawcode}}
	case hook.MouseHold, hook.MouseDown, hook.MouseUp:
	default:
		return nil
	}

	if ev.Button != leftButton {
		return nil
	}
	at := Point{X: int(ev.X), Y: int(ev.Y)}

	if !s.buttonHeld && (ev.Kind == hook.MouseHold || ev.Kind == hook.MouseDown) {
		s.buttonHeld = true
		s.pressCount = s.clicks.recordClick(at, when)
		return []Event{{Kind: PointerDown, At: at, When: when, Continuation: s.pressCount > 1}}
	}

	if s.buttonHeld && (ev.Kind == hook.MouseUp || ev.Kind == hook.MouseDown) {
		s.buttonHeld = false
		out := []Event{{Kind: PointerUp, At: at, When: when}}
		if s.pressCount == 2 {
			out = append(out, Event{Kind: DoubleClick, At: at, When: when})
		}
		return out
	}

	return nil
}

func (s *Source) publish(ev Event) {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			log.Printf("Dropping %s event: subscriber is busy", ev.Kind)
		}
	}
}
