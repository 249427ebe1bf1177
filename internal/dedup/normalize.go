// Package dedup implements URL/title normalization, short content hashes,
// fuzzy title matching and the pre-synthesis duplicate filter.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// hashLen is the truncated hex length of content hashes. Collision risk at
// expected volumes is accepted, not cryptographically defended.
const hashLen = 16

// NormalizeURL reduces equivalent URL spellings to one canonical form:
// scheme and "www." stripped, trailing slashes removed, lowercased.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimRight(s, "/")
	return s
}

// NormalizeTitle strips whitespace and punctuation and lowercases, keeping
// only letters and digits.
func NormalizeTitle(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HashText returns a truncated sha256 hex digest of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// URLHash hashes the normalized form of a URL.
func URLHash(raw string) string {
	return HashText(NormalizeURL(raw))
}

// TitleHash hashes the normalized form of a title.
func TitleHash(raw string) string {
	return HashText(NormalizeTitle(raw))
}
