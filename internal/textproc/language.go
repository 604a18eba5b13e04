package textproc

import (
	"github.com/abirzishan32/Tukhor-AI/models"
)

// Detector classifies text as Bengali, English, or mixed by the ratio of
// Bengali-script to Latin-script characters. Characters outside both scripts
// (digits, punctuation, other scripts) are ignored.
type Detector struct {
	majority float64
	minority float64
	fallback models.Language
}

// NewDetector creates a Detector. majority is the Bengali share above which
// text counts as Bengali; below minority it counts as English; anything in
// between is mixed. fallback is returned for text with no classifiable
// characters.
func NewDetector(majority, minority float64, fallback models.Language) *Detector {
	if majority <= 0 || majority > 1 {
		majority = 0.7
	}
	if minority < 0 || minority >= majority {
		minority = 0.3
	}
	if !fallback.Valid() {
		fallback = models.LanguageEnglish
	}
	return &Detector{majority: majority, minority: minority, fallback: fallback}
}

// Detect classifies text. Empty or unclassifiable input returns the
// configured fallback rather than an error.
func (d *Detector) Detect(text string) models.Language {
	var bengali, latin int
	for _, r := range text {
		switch {
		case r >= 0x0980 && r <= 0x09FF:
			bengali++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}

	total := bengali + latin
	if total == 0 {
		return d.fallback
	}

	ratio := float64(bengali) / float64(total)
	switch {
	case ratio > d.majority:
		return models.LanguageBengali
	case ratio < d.minority:
		return models.LanguageEnglish
	default:
		return models.LanguageMixed
	}
}
