package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
	apostrophes   = strings.NewReplacer("'", "", "’", "", "`", "")
	transliterate = strings.NewReplacer(
		"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
		"é", "e", "è", "e", "á", "a", "à", "a", "ñ", "n",
	)
)

// Generate creates a URL-friendly slug from name: lowercase, apostrophes
// dropped, every run of non-alphanumeric characters collapsed to a single
// hyphen, no leading or trailing hyphen.
//
//	Generate("Men's Running Shoes!!") == "mens-running-shoes"
func Generate(name string) string {
	return normalize(name, "-")
}

// Key derives a storage key from a display label using underscores as the
// separator: Generate("Screen Size") is "screen-size", Key is "screen_size".
func Key(label string) string {
	return normalize(label, "_")
}

func normalize(s, sep string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = transliterate.Replace(s)
	s = apostrophes.Replace(s)
	s = nonAlnum.ReplaceAllString(s, sep)
	return strings.Trim(s, sep)
}
