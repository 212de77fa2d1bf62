package ui

import (
	"errors"

	"github.com/atotto/clipboard"
)

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard available (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}
