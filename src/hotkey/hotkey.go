package hotkey

import (
	"context"
	"log"

	"screen-translate/src/pointer"
)

// Binding is a parsed key combination with the action it triggers.
type Binding struct {
	Name   string
	Combo  string
	Action func()

	keys []keyState
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// NewBinding parses a combination such as "Ctrl+Alt+T". It returns false
// when no key of the combination can be mapped.
func NewBinding(name, combo string, action func()) (*Binding, bool) {
	keys := parseHotkey(combo)
	log.Printf("Parsed hotkey %s: %v", name, keys)

	b := &Binding{Name: name, Combo: combo, Action: action}
	for _, keyName := range keys {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", keyName)
			continue
		}
		b.keys = append(b.keys, keyState{name: keyName, rawcodes: rawcodes})
	}

	if len(b.keys) == 0 {
		log.Printf("ERROR: No valid keys in hotkey configuration '%s'", combo)
		return nil, false
	}
	return b, true
}

func (b *Binding) press(rawcode uint16) bool {
	for i := range b.keys {
		if b.keys[i].matches(rawcode) {
			b.keys[i].pressed = true
		}
	}
	for i := range b.keys {
		if !b.keys[i].pressed {
			return false
		}
	}
	for i := range b.keys {
		b.keys[i].pressed = false
	}
	return true
}

func (b *Binding) release(rawcode uint16) {
	for i := range b.keys {
		if b.keys[i].matches(rawcode) {
			b.keys[i].pressed = false
		}
	}
}

func (k keyState) matches(rawcode uint16) bool {
	for _, rc := range k.rawcodes {
		if rc == rawcode {
			return true
		}
	}
	return false
}

// Matcher fires bindings from the key events of the shared input hook.
// Registering a second process hook for the keyboard is not needed.
type Matcher struct {
	bindings []*Binding
}

func NewMatcher(bindings ...*Binding) *Matcher {
	m := &Matcher{}
	for _, b := range bindings {
		if b != nil {
			m.bindings = append(m.bindings, b)
		}
	}
	return m
}

// Feed processes one event. Actions run on the caller's goroutine and must
// not block.
func (m *Matcher) Feed(ev pointer.Event) {
	switch ev.Kind {
	case pointer.KeyDown:
		for _, b := range m.bindings {
			if b.press(ev.Rawcode) {
				log.Printf("HOTKEY COMBINATION DETECTED! %s (%s)", b.Combo, b.Name)
				if b.Action != nil {
					b.Action()
				}
			}
		}
	case pointer.KeyUp:
		for _, b := range m.bindings {
			b.release(ev.Rawcode)
		}
	}
}

// Run feeds events until ctx is done or the channel closes.
func (m *Matcher) Run(ctx context.Context, events <-chan pointer.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in hotkey matcher: %v", r)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				log.Printf("Hotkey event channel closed")
				return
			}
			m.Feed(ev)
		}
	}
}
