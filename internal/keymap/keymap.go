// Package keymap translates logical key names — Ctrl+/Alt+/Meta+/Shift+
// modifiers, named keys like Enter and F5, and single-character raw
// passthrough — into the byte sequences written to a PTY master.
package keymap

import (
	"strings"

	"github.com/pproenca/agent-tui/internal/rpcerr"
)

var namedKeys = map[string][]byte{
	"Enter":     {'\r'},
	"Return":    {'\r'},
	"Tab":       {'\t'},
	"Escape":    {0x1b},
	"Esc":       {0x1b},
	"Backspace": {0x7f},
	"Delete":    {0x1b, '[', '3', '~'},
	"Space":     {' '},

	"ArrowUp":    {0x1b, '[', 'A'},
	"Up":         {0x1b, '[', 'A'},
	"ArrowDown":  {0x1b, '[', 'B'},
	"Down":       {0x1b, '[', 'B'},
	"ArrowRight": {0x1b, '[', 'C'},
	"Right":      {0x1b, '[', 'C'},
	"ArrowLeft":  {0x1b, '[', 'D'},
	"Left":       {0x1b, '[', 'D'},

	"Home":     {0x1b, '[', 'H'},
	"End":      {0x1b, '[', 'F'},
	"PageUp":   {0x1b, '[', '5', '~'},
	"PageDown": {0x1b, '[', '6', '~'},
	"Insert":   {0x1b, '[', '2', '~'},

	"F1":  {0x1b, 'O', 'P'},
	"F2":  {0x1b, 'O', 'Q'},
	"F3":  {0x1b, 'O', 'R'},
	"F4":  {0x1b, 'O', 'S'},
	"F5":  {0x1b, '[', '1', '5', '~'},
	"F6":  {0x1b, '[', '1', '7', '~'},
	"F7":  {0x1b, '[', '1', '8', '~'},
	"F8":  {0x1b, '[', '1', '9', '~'},
	"F9":  {0x1b, '[', '2', '0', '~'},
	"F10": {0x1b, '[', '2', '1', '~'},
	"F11": {0x1b, '[', '2', '3', '~'},
	"F12": {0x1b, '[', '2', '4', '~'},
}

// ctrlKeys covers the Ctrl+punctuation combinations that do not follow
// the letter&0x1F rule handled in resolveModified.
var ctrlKeys = map[string][]byte{
	`\`: {0x1c},
	"[": {0x1b},
	"]": {0x1d},
	"^": {0x1e},
	"_": {0x1f},
}

// KeyToBytes resolves a key name into the escape sequence (or raw bytes)
// that should be written to the PTY. It returns InvalidKey for anything
// it cannot resolve.
func KeyToBytes(key string) ([]byte, error) {
	b, ok := resolve(key)
	if !ok {
		return nil, rpcerr.InvalidKey(key)
	}
	return b, nil
}

func resolve(key string) ([]byte, bool) {
	if strings.Contains(key, "+") {
		parts := strings.SplitN(key, "+", 2)
		if len(parts) == 2 {
			return resolveModified(parts[0], parts[1])
		}
	}
	if b, ok := namedKeys[key]; ok {
		return b, true
	}
	if runeCount(key) == 1 {
		return []byte(key), true
	}
	return nil, false
}

func resolveModified(modifier, base string) ([]byte, bool) {
	switch strings.ToLower(modifier) {
	case "ctrl", "control":
		if runeCount(base) == 1 {
			r := []rune(base)[0]
			if isAsciiAlpha(r) {
				upper := toUpperASCII(byte(r))
				return []byte{upper - 'A' + 1}, true
			}
		}
		if b, ok := ctrlKeys[strings.ToLower(base)]; ok {
			return b, true
		}
		return nil, false
	case "alt", "meta":
		inner, ok := resolve(base)
		if !ok {
			return nil, false
		}
		out := make([]byte, 0, len(inner)+1)
		out = append(out, 0x1b)
		out = append(out, inner...)
		return out, true
	case "shift":
		if strings.EqualFold(base, "tab") {
			return []byte{0x1b, '[', 'Z'}, true
		}
		if runeCount(base) == 1 {
			return []byte(strings.ToUpper(base)), true
		}
		return nil, false
	default:
		return nil, false
	}
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func isAsciiAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
