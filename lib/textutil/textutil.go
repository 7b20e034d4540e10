package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText trims a scraped text node down to a single-line label.
// The portal pads its cells with newlines and non-printable junk.
func CleanText(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		} else {
			// newlines and control junk separate words, they must not
			// fuse the neighbouring runes together
			out.WriteRune(' ')
		}
	}
	cleaned := strings.TrimSpace(out.String())
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}
