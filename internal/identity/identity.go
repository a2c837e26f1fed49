// Package identity derives stable filesystem keys from artist display names.
//
// Every card is addressed by the sanitized form of the artist's display
// name. The mapping must be deterministic across runs so repeated pipeline
// passes resolve to the same document; any change to these rules orphans
// existing cards.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxKeyLength caps the sanitized key so it stays a valid filename on
// common filesystems.
const maxKeyLength = 200

var unsafeReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// Key converts an artist display name into its filesystem key.
// Spaces become underscores, ampersands become "and", filesystem-unsafe
// punctuation is stripped, remaining non-word runes are dropped, the result
// is capped at 200 characters and trimmed of trailing dots.
func Key(name string) string {
	key := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	key = unsafeReplacer.Replace(key)
	key = strings.ReplaceAll(key, "&", "and")

	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	key = b.String()

	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}
	return strings.TrimRight(key, ".")
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// DisplayName reverses a filesystem key into a human-readable name.
// Underscores become spaces; casing of the stored key is preserved, and a
// fully lowercase key is title-cased as a fallback for hand-created files.
func DisplayName(key string) string {
	name := strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
	if name == "" {
		return ""
	}
	if name == strings.ToLower(name) {
		return titleCaser.String(name)
	}
	return name
}

// Normalize lowercases a name and strips spaces, underscores, and
// punctuation so two spellings of the same artist compare equal. Used by
// the classifier's title-divergence check.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
