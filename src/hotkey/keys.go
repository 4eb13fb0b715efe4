package hotkey

import (
	"log"
	"strings"
)

// Virtual key codes as reported in gohook rawcodes.
const (
	vkLetterA = 0x41
	vkDigit0  = 0x30
	vkF1      = 0x70
)

// modifiers list both the left and right key.
var modifiers = map[string][]uint16{
	"ctrl":  {0xA2, 0xA3},
	"alt":   {0xA4, 0xA5},
	"shift": {0xA0, 0xA1},
	"cmd":   {0x5B, 0x5C},
}

var namedKeys = map[string]uint16{
	"space": 0x20, "enter": 0x0D, "return": 0x0D, "esc": 0x1B, "escape": 0x1B,
	"tab": 0x09, "backspace": 0x08, "delete": 0x2E, "del": 0x2E, "insert": 0x2D, "ins": 0x2D,
	"home": 0x24, "end": 0x23, "pageup": 0x21, "pgup": 0x21, "pagedown": 0x22, "pgdn": 0x22,
	"left": 0x25, "up": 0x26, "right": 0x27, "down": 0x28,
}

// canonical folds modifier aliases.
func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "win", "super", "cmd":
		return "cmd"
	case "control":
		return "ctrl"
	}
	return name
}

// parseHotkey splits "Ctrl+Alt+T" into canonical key names.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(combo, "+") {
		if k := canonical(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// keyNameToRawcodes maps a key name to the rawcodes that satisfy it.
func keyNameToRawcodes(name string) []uint16 {
	name = canonical(name)
	if codes, ok := modifiers[name]; ok {
		return codes
	}
	if code, ok := namedKeys[name]; ok {
		return []uint16{code}
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{vkLetterA + uint16(c-'a')}
		case c >= '0' && c <= '9':
			return []uint16{vkDigit0 + uint16(c-'0')}
		}
	}
	if n, ok := functionKey(name); ok {
		return []uint16{vkF1 + uint16(n-1)}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", name)
	return nil
}

// functionKey parses "f1" through "f24".
func functionKey(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "f")
	if !ok || digits == "" || len(digits) > 2 {
		return 0, false
	}
	n := 0
	for _, d := range digits {
		if d < '0' || d > '9' {
			return 0, false
		}
		n = n*10 + int(d-'0')
	}
	return n, n >= 1 && n <= 24
}
