package nav

import "fmt"

// Code identifies a non-printable key, or KeyRune for a printable one.
type Code int

const (
	KeyRune Code = iota
	KeyEnter
	KeyEscape
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyBackspace
	KeyTab
	KeyShiftTab
	KeyInterrupt
)

var codeNames = map[Code]string{
	KeyEnter:     "enter",
	KeyEscape:    "esc",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdown",
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeyShiftTab:  "shift+tab",
	KeyInterrupt: "ctrl+c",
}

// Key is one discrete key press.
type Key struct {
	Code Code
	Rune rune
}

// Rune returns the key press for a printable character.
func Rune(r rune) Key { return Key{Code: KeyRune, Rune: r} }

// Press returns the key press for a named key.
func Press(c Code) Key { return Key{Code: c} }

// Keys turns a string into one Rune key per character.
func Keys(s string) []Key {
	out := make([]Key, 0, len(s))
	for _, r := range s {
		out = append(out, Rune(r))
	}
	return out
}

func (k Key) String() string {
	if k.Code == KeyRune {
		return string(k.Rune)
	}
	if name, ok := codeNames[k.Code]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k.Code))
}

func (k Key) is(r rune) bool { return k.Code == KeyRune && k.Rune == r }
