package publish

import (
	"regexp"
	"strings"
)

// Latin-extended letters folded to their base letter, one to one
var diacritics = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ż", "z", "ź", "z",
	"á", "a", "ä", "a", "č", "c", "ď", "d", "é", "e",
	"ě", "e", "í", "i", "ň", "n", "ö", "o", "ř", "r",
	"š", "s", "ť", "t", "ú", "u", "ů", "u", "ü", "u",
	"ý", "y", "ž", "z",
)

var (
	whitespace  = regexp.MustCompile(`[\s\p{Zs}]+`)
	nonSlugChar = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphens     = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a title into a URL-safe slug.
// The result may be empty, callers substitute their own fallback.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = diacritics.Replace(s)
	s = whitespace.ReplaceAllString(s, "-")
	s = nonSlugChar.ReplaceAllString(s, "")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
