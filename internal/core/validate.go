package core

import (
	"fmt"
	"unicode/utf8"
)

// CheckLength returns an advisory warning when text falls outside
// [min, max] characters. An empty string means the length is fine.
func CheckLength(text string, min, max int) string {
	n := utf8.RuneCountInString(text)
	switch {
	case min > 0 && n < min:
		return fmt.Sprintf("reply length (%d) is below the recommended minimum (%d)", n, min)
	case max > 0 && n > max:
		return fmt.Sprintf("reply length (%d) exceeds the recommended maximum (%d)", n, max)
	}
	return ""
}
