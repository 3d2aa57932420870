package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

const maxLen = 64

// Make turns a subject name into a file-name-safe slug. Accents are folded
// ("Química" -> "quimica") and the result is capped at 64 bytes.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(foldMarks(input)))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

func foldMarks(input string) string {
	var sb strings.Builder
	for _, r := range norm.NFD.String(input) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
