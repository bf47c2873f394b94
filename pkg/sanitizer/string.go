package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TrimAndNormalize folds every whitespace run into one space and trims the
// ends. Control and format characters (zero-width spaces, bidi overrides)
// and invalid UTF-8 are dropped.
func TrimAndNormalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r == utf8.RuneError, unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	return b.String()
}
