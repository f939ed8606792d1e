// Package strings provides string helpers, including the width folding used
// when matching Japanese UI text scraped from the reservation back-ends
package strings

import (
	std "strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Contains reports whether sub is within s
func Contains(s, sub string) bool { return std.Contains(s, sub) }

// HasSuffix reports whether s ends with suf
func HasSuffix(s, suf string) bool { return std.HasSuffix(s, suf) }

// MustString returns s if it has non whitespace content otherwise panics
// name is used in the panic message so you can tell what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes and asserts a root path like /run or /clinics
// ensures a single leading slash and no trailing slash except for the root itself
// panics if the input is empty after trimming
func MustPrefix(s string) string {
	s = std.TrimSpace(s)
	s = "/" + std.Trim(s, " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// EmptyToNil returns empty string if s is all whitespace, otherwise returns s
func EmptyToNil(s string) string {
	if std.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" if ps is nil, else *ps.
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// foldChain maps fullwidth forms to ASCII, applies NFKC, and drops format
// characters. Half and fullwidth digits, latin letters, and katakana all
// compare equal after folding, which is what the scraped grids require
var foldChain = transform.Chain(
	norm.NFKC,
	runes.Remove(runes.In(unicode.Cf)),
	width.Fold,
)

// Fold canonicalizes s for comparison: width folded, NFKC, format
// characters removed, surrounding whitespace trimmed
func Fold(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return std.TrimSpace(out)
}

// FoldEqual reports whether a and b are equal after folding
func FoldEqual(a, b string) bool { return Fold(a) == Fold(b) }

// StripInvisible removes non breaking spaces, ideographic spaces, and zero
// width characters. Schedule cells that look empty often carry these
func StripInvisible(s string) string {
	return std.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u200b', '\u200c', '\u200d', '\ufeff', '\u3000':
			return -1
		}
		return r
	}, s)
}
