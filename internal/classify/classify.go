// Package classify derives language, sophistication level and topic category
// from free text using keyword counting. The heuristics only steer prompt
// phrasing; nothing downstream depends on them being right.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/weitblick/internal/model"
)

// germanMarkers are high-frequency German function words. A marker counts
// when a word equals it; markers of compoundMinRunes or more also count as
// the tail of a compound, so "Bewusstsein" counts for "sein".
var germanMarkers = []string{
	"und", "der", "die", "das", "ist", "nicht", "ein", "sich",
	"mit", "auch", "aber", "wird", "sein", "für", "oder", "wenn",
}

// compoundMinRunes keeps short markers like "ist" or "und" from matching
// English words such as "exist" or "found"
const compoundMinRunes = 4

// academicTerms signal philosophical or scientific register
var academicTerms = []string{
	"epistemologie", "epistemology",
	"ontologie", "ontology",
	"empirisch", "empirical",
	"phänomenolog", "phenomenolog",
	"dialektik", "dialectic",
	"metaphysi",
	"transzendental", "transcendental",
	"hermeneuti",
	"paradigma", "paradigm",
	"kausalität", "causality",
	"axiom",
	"falsifizier", "falsifiab",
	"teleolog",
	"normativ",
}

// longSentenceWords is the word count a sentence must exceed to count as long
const longSentenceWords = 15

type categoryRule struct {
	category model.Category
	keywords []string
}

// categoryRules is scanned in order; the first rule with a hit wins
var categoryRules = []categoryRule{
	{model.CategoryTechnology, []string{
		"technolog", "software", "computer", "künstliche intelligenz", "artificial intelligence",
		"algorithm", "internet", "digital", "roboter", "robot", "maschine", "machine",
	}},
	{model.CategoryScience, []string{
		"physik", "physics", "biolog", "chemie", "chemistry", "quanten", "quantum",
		"genetik", "genetic", "experiment", "neuron", "universum", "universe",
	}},
	{model.CategorySociety, []string{
		"gesellschaft", "society", "politik", "politic", "demokratie", "democracy",
		"kultur", "culture", "gemeinschaft", "community", "bildung", "education",
	}},
	{model.CategoryEconomy, []string{
		"wirtschaft", "economy", "economic", "markt", "market", "geld", "money",
		"kapital", "capital", "unternehmen", "business",
	}},
	{model.CategoryEthics, []string{
		"ethik", "ethic", "moral", "gerechtigkeit", "justice", "verantwortung", "responsibility",
	}},
	{model.CategoryPsychology, []string{
		"psycholog", "emotion", "gefühl", "feeling", "verhalten", "behavior", "behaviour",
		"persönlichkeit", "personality",
	}},
	{model.CategoryArt, []string{
		"kunst", "künstler", "artist", "ästhetik", "aesthetic", "musik", "music",
		"literatur", "literature",
	}},
	{model.CategorySpirituality, []string{
		"religion", "spirituell", "spiritual", "meditation", "göttlich", "divine", "glaube", "faith",
	}},
}

// Classify derives the full classification of text
func Classify(text string) model.Classification {
	return model.Classification{
		Language: DetectLanguage(text),
		Level:    DetectLevel(text),
		Category: Categorize(text),
	}
}

// DetectLanguage returns German when at least two distinct marker words occur
func DetectLanguage(text string) model.Language {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	distinct := 0
	for _, marker := range germanMarkers {
		if hasMarker(words, marker) {
			distinct++
		}
		if distinct >= 2 {
			return model.LanguageGerman
		}
	}

	return model.LanguageEnglish
}

func hasMarker(words []string, marker string) bool {
	compound := utf8.RuneCountInString(marker) >= compoundMinRunes
	for _, w := range words {
		if w == marker || (compound && strings.HasSuffix(w, marker)) {
			return true
		}
	}
	return false
}

// DetectLevel grades text by academic term hits and long sentences
func DetectLevel(text string) model.Level {
	hits := countTermHits(strings.ToLower(text))
	long := countLongSentences(text)

	switch {
	case hits >= 3 || long >= 2:
		return model.LevelAdvanced
	case hits >= 1 || long >= 1:
		return model.LevelIntermediate
	default:
		return model.LevelBasic
	}
}

// Categorize returns the first category with a keyword hit, or Philosophy
func Categorize(text string) model.Category {
	lower := strings.ToLower(text)

	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}

	return model.CategoryPhilosophy
}

// countTermHits counts every occurrence of every academic term
func countTermHits(lower string) int {
	count := 0
	for _, term := range academicTerms {
		count += strings.Count(lower, term)
	}
	return count
}

// countLongSentences splits on '.' and counts sentences above the word limit
func countLongSentences(text string) int {
	count := 0
	for _, sentence := range strings.Split(text, ".") {
		if len(strings.Fields(sentence)) > longSentenceWords {
			count++
		}
	}
	return count
}
