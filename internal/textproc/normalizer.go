package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	dandaSpacing  = regexp.MustCompile(`\s*।\s*`)
	commaSpacing  = regexp.MustCompile(`\s*,\s*`)
)

// Normalizer cleans raw extracted text before chunking. It applies Unicode
// NFC normalization, strips control and other non-printable characters,
// collapses whitespace runs, and normalizes spacing around Bengali and Latin
// punctuation. Normalize is idempotent.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the cleaned form of s.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)

	// Drop control and non-printable runes; keep every printable script.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == ' ':
			b.WriteRune(' ')
		case unicode.IsControl(r) || !unicode.IsPrint(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	s = whitespaceRun.ReplaceAllString(s, " ")
	// The danda (।) ends a Bengali sentence; keep exactly one space after it.
	s = dandaSpacing.ReplaceAllString(s, "। ")
	s = commaSpacing.ReplaceAllString(s, ", ")

	return strings.TrimSpace(s)
}
