package activity

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Text normalization shared by identity keys and description cleanup.
//
// The source data is primarily CJK, so case folding is restricted to ASCII
// letters: lowercasing CJK-adjacent scripts (or applying full Unicode folding)
// would alter characters the editors consider distinct. Full-width forms are
// folded to their narrow equivalents first, which also canonicalizes
// full-width digits, colons and commas in time strings.

var foldTransformer = transform.Chain(width.Fold, norm.NFC)

func foldWidth(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// normalizeField trims, folds width, ASCII-lowercases, and collapses internal
// whitespace. Pure; stable across repeated calls.
func normalizeField(s string) string {
	return strings.Join(strings.Fields(asciiLower(foldWidth(s))), " ")
}

// normalizeLine reduces a description line to its comparison form: width
// folded, ASCII-lowercased, with all punctuation, symbols and whitespace
// removed. Two lines with the same comparison form are duplicates.
func normalizeLine(s string) string {
	folded := asciiLower(foldWidth(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
