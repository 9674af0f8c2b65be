package auth

import (
	"io"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open and friends write to the terminal the TUI is drawing on.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// OpenBrowser opens u in the default browser.
func OpenBrowser(u string) error {
	return browser.OpenURL(u)
}
