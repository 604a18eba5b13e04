package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"whitespace run", "hello   \t\n  world", "hello world"},
		{"control characters", "hel\x00lo\x07 world", "hel lo world"},
		{"leading trailing", "  পদ্মা নদী  ", "পদ্মা নদী"},
		{"danda spacing", "প্রথম বাক্য।দ্বিতীয় বাক্য", "প্রথম বাক্য। দ্বিতীয় বাক্য"},
		{"comma spacing", "এক ,দুই,তিন", "এক, দুই, তিন"},
		{"mixed scripts kept", "অনুপম was a সুপুরুষ", "অনুপম was a সুপুরুষ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"",
		"plain english text.",
		"অনুপমের ভাষায় সুপুরুষ কাকে বলা হয়েছে?",
		"   mixed   বাংলা and\tenglish।here  ",
		"tabs\tand\nnewlines\r\neverywhere",
		"কথা।।আবার কথা",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalizer_NFC(t *testing.T) {
	n := NewNormalizer()

	// Decomposed e + combining acute must normalize to the composed form.
	assert.Equal(t, "caf\u00e9", n.Normalize("cafe\u0301"))
}
