package vault

import "github.com/atotto/clipboard"

// Clipboard abstracts the system clipboard so tests can observe writes
// and the auto-clear deadline can blank it.
type Clipboard interface {
	Write(text string) error
}

// SystemClipboard writes through the OS clipboard.
type SystemClipboard struct{}

// Write implements Clipboard.
func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
