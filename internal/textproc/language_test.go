package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abirzishan32/Tukhor-AI/models"
)

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(0.7, 0.3, models.LanguageEnglish)

	tests := []struct {
		name string
		text string
		want models.Language
	}{
		{"pure bengali", "অনুপমের ভাষায় সুপুরুষ কাকে বলা হয়েছে?", models.LanguageBengali},
		{"pure english", "Who is called a handsome man?", models.LanguageEnglish},
		{"mixed", "অনুপম said he was a সুপুরুষ truly handsome man যে", models.LanguageMixed},
		{"empty falls back", "", models.LanguageEnglish},
		{"digits only fall back", "12345 !?", models.LanguageEnglish},
		{"bengali with digits", "২০২৬ সালের বাংলা প্রশ্ন", models.LanguageBengali},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestDetector_FallbackConfigurable(t *testing.T) {
	d := NewDetector(0.7, 0.3, models.LanguageBengali)
	assert.Equal(t, models.LanguageBengali, d.Detect("..."))
}

func TestDetector_InvalidConfigUsesDefaults(t *testing.T) {
	d := NewDetector(0, 0.9, models.Language("xx"))
	assert.Equal(t, models.LanguageEnglish, d.Detect(""))
	assert.Equal(t, models.LanguageBengali, d.Detect("শুধু বাংলা লেখা"))
}
