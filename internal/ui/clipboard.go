package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
)

var writeClipboard = clipboard.WriteAll

// CopyHex puts data on the system clipboard as space-separated hex.
func CopyHex(data []byte) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not available on this system")
	}
	if err := writeClipboard(fmt.Sprintf("% X", data)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
