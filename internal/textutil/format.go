package textutil

import (
	"strconv"
	"unicode/utf8"
)

// Plural renders n with the singular or plural noun ("1 file", "3 files").
func Plural(n int, singular, plural string) string {
	return strconv.Itoa(n) + " " + Ternary(n == 1, singular, plural)
}

// TruncateMiddle shortens s to at most max runes by replacing its middle
// with an ellipsis, keeping both the start and the file name end of a path
// visible. Values of max below 5 disable truncation.
func TruncateMiddle(s string, max int) string {
	if max < 5 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	keep := max - 1
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// ShortID returns the first eight characters of a run identifier.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
