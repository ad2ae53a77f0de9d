// Package caption bounds user captions by character class.
//
// A character outside the single-byte range counts as wide, everything else
// as narrow. The two counters are independent: a caption may hold up to
// MaxWide wide characters and, separately, up to MaxNarrow narrow ones.
package caption

import "strings"

const (
	MaxWide   = 14
	MaxNarrow = 28
)

// Limit returns the longest accepted prefix of text and whether anything was
// cut. Scanning stops at the first character that would push either counter
// past its bound; that character and everything after it are dropped.
func Limit(text string) (string, bool) {
	var wide, narrow int
	for i, r := range text {
		if IsWide(r) {
			if wide+1 > MaxWide {
				return text[:i], true
			}
			wide++
			continue
		}
		if narrow+1 > MaxNarrow {
			return text[:i], true
		}
		narrow++
	}
	return text, false
}

func IsWide(r rune) bool {
	return r > 0xFF
}

// Trim is the caption that is actually submitted.
func Trim(text string) string {
	return strings.TrimSpace(text)
}
