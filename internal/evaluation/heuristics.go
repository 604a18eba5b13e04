package evaluation

import (
	"math"
	"strings"
)

// Completeness scores an answer on length and sentence structure. Around
// twenty words and three sentences scores full marks.
func Completeness(answer string) float64 {
	if strings.TrimSpace(answer) == "" {
		return 0
	}

	lengthScore := math.Min(float64(len(strings.Fields(answer)))/20, 1.0)

	sentences := 0
	for _, seg := range strings.FieldsFunc(answer, func(r rune) bool {
		return r == '।' || r == '.' || r == '?' || r == '!'
	}) {
		if strings.TrimSpace(seg) != "" {
			sentences++
		}
	}
	structureScore := math.Min(float64(sentences)/3, 1.0)

	return (lengthScore + structureScore) / 2
}

// LanguageConsistency compares the Bengali script share of the query and
// the answer. Identical shares score 1; a Bengali question answered in
// English scores near 0. When either side has no classifiable letters the
// score is a neutral 0.5.
func LanguageConsistency(query, answer string) float64 {
	queryBengali, queryTotal := scriptCounts(query)
	answerBengali, answerTotal := scriptCounts(answer)

	if queryTotal == 0 || answerTotal == 0 {
		return 0.5
	}

	diff := math.Abs(float64(queryBengali)/float64(queryTotal) - float64(answerBengali)/float64(answerTotal))
	return math.Max(1.0-diff, 0)
}

// SourceUtilization measures lexical overlap between the answer and each
// source, averaged over sources. No sources scores 0.
func SourceUtilization(answer string, sources []string) float64 {
	if len(sources) == 0 {
		return 0
	}

	answerWords := wordSet(answer)
	denominator := float64(len(answerWords))
	if denominator == 0 {
		denominator = 1
	}

	var sum float64
	for _, source := range sources {
		overlap := 0
		for word := range wordSet(source) {
			if _, ok := answerWords[word]; ok {
				overlap++
			}
		}
		sum += float64(overlap) / denominator
	}
	return sum / float64(len(sources))
}

func scriptCounts(text string) (bengali, total int) {
	for _, r := range text {
		switch {
		case r >= 0x09E6 && r <= 0x09EF:
			// Bengali digits carry no script signal.
		case r >= 0x0980 && r <= 0x09FF:
			bengali++
			total++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			total++
		}
	}
	return bengali, total
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
