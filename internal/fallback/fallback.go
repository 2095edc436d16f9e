// Package fallback produces static, locale-appropriate filler text for
// nodes when no provider delivered usable content.
package fallback

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/weitblick/internal/model"
)

// maxIdeaRunes bounds how much of the idea is echoed back
const maxIdeaRunes = 120

type localized map[model.Language]string

var perspectiveLines = map[model.Perspective]localized{
	model.PerspectiveKant: {
		model.LanguageGerman:  "Prüfung der Erkenntnisbedingungen dieser Hypothese",
		model.LanguageEnglish: "Examining the conditions of knowledge behind this hypothesis",
	},
	model.PerspectiveHeidegger: {
		model.LanguageGerman:  "Existenzielle Verwurzelung im Dasein",
		model.LanguageEnglish: "Existential rootedness in Dasein",
	},
	model.PerspectiveHegel: {
		model.LanguageGerman:  "Dialektisches Potenzial für Synthese",
		model.LanguageEnglish: "Dialectical potential for synthesis",
	},
	model.PerspectiveNagarjuna: {
		model.LanguageGerman:  "Dekonstruktion fixierter Annahmen",
		model.LanguageEnglish: "Deconstruction of fixed assumptions",
	},
	model.PerspectiveWissenschaft: {
		model.LanguageGerman:  "Empirische Überprüfbarkeit",
		model.LanguageEnglish: "Empirical testability",
	},
}

var kindLines = map[model.NodeKind]localized{
	model.KindThesis: {
		model.LanguageGerman:  "THESIS: Die Idee behauptet einen tragenden Grundsatz, der eine etablierte Annahme in Frage stellt",
		model.LanguageEnglish: "THESIS: The idea asserts a founding principle that challenges an established assumption",
	},
	model.KindAntithesis: {
		model.LanguageGerman:  "ANTITHESIS: Gegen die Idee spricht, dass ihre Voraussetzungen selbst bedingt und angreifbar sind",
		model.LanguageEnglish: "ANTITHESIS: Against the idea stands that its premises are themselves conditional and open to attack",
	},
	model.KindQuintessence: {
		model.LanguageGerman:  "QUINTESSENCE: Als gemeinsamer Kern bleibt eine offene Spannung, aus der eine neue Frage entsteht",
		model.LanguageEnglish: "QUINTESSENCE: What remains as a shared core is an open tension from which a new question emerges",
	},
}

var genericLine = localized{
	model.LanguageGerman:  "Eine weitere Betrachtung",
	model.LanguageEnglish: "A further consideration",
}

var levelClosings = map[model.Level]localized{
	model.LevelBasic: {
		model.LanguageGerman:  "Welche einfache Frage ergibt sich daraus als Nächstes?",
		model.LanguageEnglish: "Which simple question follows from this next?",
	},
	model.LevelIntermediate: {
		model.LanguageGerman:  "Welche Zusammenhänge verdienen eine genauere Prüfung?",
		model.LanguageEnglish: "Which connections deserve closer examination?",
	},
	model.LevelAdvanced: {
		model.LanguageGerman:  "Welche begrifflichen Voraussetzungen bleiben dabei unreflektiert?",
		model.LanguageEnglish: "Which conceptual presuppositions remain unexamined here?",
	},
}

var subjectFormats = localized{
	model.LanguageGerman:  "%s: %s, bezogen auf „%s“. %s",
	model.LanguageEnglish: "%s: %s, with regard to \"%s\". %s",
}

// Text returns the filler for one node. It never returns an empty string.
func Text(kind model.NodeKind, p model.Perspective, idea string, language model.Language, level model.Level) string {
	if language != model.LanguageEnglish {
		language = model.LanguageGerman
	}

	label, line := lineFor(kind, p, language)
	closing, ok := levelClosings[level][language]
	if !ok {
		closing = levelClosings[model.LevelBasic][language]
	}

	subject := shorten(idea)
	if subject == "" {
		subject = "…"
	}

	return fmt.Sprintf(subjectFormats[language], label, line, subject, closing)
}

// Perspectives returns the filler for every perspective of a layer
func Perspectives(idea string, language model.Language, level model.Level) map[model.Perspective]string {
	out := make(map[model.Perspective]string, len(model.AllPerspectives))
	for _, p := range model.AllPerspectives {
		out[p] = Text(model.KindPerspective, p, idea, language, level)
	}
	return out
}

func lineFor(kind model.NodeKind, p model.Perspective, language model.Language) (string, string) {
	if kind == model.KindPerspective {
		if lines, ok := perspectiveLines[p]; ok {
			return string(p), lines[language]
		}
		if p != "" {
			return string(p), genericLine[language]
		}
	}

	if lines, ok := kindLines[kind]; ok {
		label, line, _ := strings.Cut(lines[language], ": ")
		return label, line
	}

	return "WEITBLICK", genericLine[language]
}

// shorten collapses whitespace and truncates long ideas on a rune boundary
func shorten(idea string) string {
	idea = strings.Join(strings.Fields(idea), " ")
	if utf8.RuneCountInString(idea) <= maxIdeaRunes {
		return idea
	}
	runes := []rune(idea)
	return strings.TrimSpace(string(runes[:maxIdeaRunes])) + "…"
}
