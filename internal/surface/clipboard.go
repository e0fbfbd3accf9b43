package surface

import "github.com/atotto/clipboard"

// Clipboard is the text sink used by CopySelected.
type Clipboard interface {
	WriteText(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}
