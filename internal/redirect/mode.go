package redirect

import (
	"fmt"
	"strings"
)

// Mode selects how a resolved entry is answered.
type Mode string

const (
	// ModeRedirect answers with an HTTP redirect to the original URL.
	ModeRedirect Mode = "redirect"

	// ModeHTML answers with an interstitial page performing a client-side
	// refresh, keeping the Referer away from the destination.
	ModeHTML Mode = "html"

	// ModePassthrough fetches the origin resource server-side and streams
	// it back under this server's origin.
	ModePassthrough Mode = "passthrough"
)

// Modes lists all valid redirect modes.
var Modes = []Mode{ModeRedirect, ModeHTML, ModePassthrough}

// ParseMode validates a mode string. Matching is case-insensitive and
// ignores surrounding whitespace.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRedirect, ModeHTML, ModePassthrough:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	_, err := ParseMode(string(m))
	return err == nil
}
