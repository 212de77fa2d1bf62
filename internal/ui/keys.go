package ui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/dbdrill/internal/nav"
)

// namedKeys maps bubbletea keystroke names onto navigation keys.
var namedKeys = map[string]nav.Code{
	"enter":     nav.KeyEnter,
	"esc":       nav.KeyEscape,
	"up":        nav.KeyUp,
	"down":      nav.KeyDown,
	"home":      nav.KeyHome,
	"end":       nav.KeyEnd,
	"pgup":      nav.KeyPageUp,
	"pgdown":    nav.KeyPageDown,
	"backspace": nav.KeyBackspace,
	"tab":       nav.KeyTab,
	"shift+tab": nav.KeyShiftTab,
	"ctrl+c":    nav.KeyInterrupt,
}

// translateKey converts a key press into zero or more navigation keys.
// Printable text yields one Rune key per character.
func translateKey(msg tea.KeyPressMsg) []nav.Key {
	if code, ok := namedKeys[msg.String()]; ok {
		return []nav.Key{nav.Press(code)}
	}
	k := msg.Key()
	if k.Text == "" || k.Mod&(tea.ModCtrl|tea.ModAlt|tea.ModSuper) != 0 {
		return nil
	}
	return nav.Keys(k.Text)
}
