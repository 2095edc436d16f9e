// Package prompt renders the single instruction string sent to every provider.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/weitblick/internal/model"
)

var (
	ErrUnknownPersona  = errors.New("unknown persona")
	ErrUnknownLevel    = errors.New("unknown level")
	ErrUnknownLanguage = errors.New("unknown language")
)

// BuildError reports which key could not be resolved
type BuildError struct {
	Key string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build prompt: %v: %q", e.Err, e.Key)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Task personas besides the five perspectives
const (
	TaskThesis       = "thesis"
	TaskAntithesis   = "antithesis"
	TaskQuintessence = "quintessence"
	TaskDiscourse    = "discourse"
	TaskPhase        = "phase"
)

type localized map[model.Language]string

var languageInstructions = localized{
	model.LanguageGerman:  "Antworte auf Deutsch in einem akademischen aber verständlichen Stil.",
	model.LanguageEnglish: "Respond in English in an academic but understandable style.",
}

var levelInstructions = map[model.Level]localized{
	model.LevelBasic: {
		model.LanguageGerman:  "Erkläre es einfach und verständlich, ohne zu viele Fachbegriffe.",
		model.LanguageEnglish: "Explain it simply and clearly, without too many technical terms.",
	},
	model.LevelIntermediate: {
		model.LanguageGerman:  "Verwende eine durchdachte Analyse mit einigen philosophischen Begriffen.",
		model.LanguageEnglish: "Use a thoughtful analysis with some philosophical terms.",
	},
	model.LevelAdvanced: {
		model.LanguageGerman:  "Führe eine tiefgreifende philosophische Analyse durch, verwende Fachterminologie präzise.",
		model.LanguageEnglish: "Conduct a deep philosophical analysis, use terminology precisely.",
	},
}

// depthAdjectives fills the closing instruction
var depthAdjectives = map[model.Level]localized{
	model.LevelBasic:        {model.LanguageGerman: "verständliche", model.LanguageEnglish: "clear"},
	model.LevelIntermediate: {model.LanguageGerman: "durchdachte", model.LanguageEnglish: "thoughtful"},
	model.LevelAdvanced:     {model.LanguageGerman: "tiefgreifende", model.LanguageEnglish: "in-depth"},
}

var personaInstructions = map[string]localized{
	string(model.PerspectiveKant): {
		model.LanguageGerman:  "Analysiere aus Kants erkenntnistheoretischer Perspektive: Erkenntnisbedingungen, transzendentale Kategorien, Grenzen der Vernunft.",
		model.LanguageEnglish: "Analyze from Kant's epistemological perspective: conditions of knowledge, transcendental categories, limits of reason.",
	},
	string(model.PerspectiveHeidegger): {
		model.LanguageGerman:  "Analysiere aus Heideggers existenzial-ontologischer Perspektive: Dasein, In-der-Welt-sein, Geworfenheit, existenziale Verfasstheit.",
		model.LanguageEnglish: "Analyze from Heidegger's existential-ontological perspective: Dasein, Being-in-the-world, thrownness, existential constitution.",
	},
	string(model.PerspectiveHegel): {
		model.LanguageGerman:  "Analysiere aus Hegels dialektischer Perspektive: These-Antithese-Synthese, Weltgeist, Aufhebung von Widersprüchen.",
		model.LanguageEnglish: "Analyze from Hegel's dialectical perspective: thesis-antithesis-synthesis, world spirit, resolution of contradictions.",
	},
	string(model.PerspectiveNagarjuna): {
		model.LanguageGerman:  "Analysiere aus Nagarjunas Perspektive der Madhyamaka-Philosophie: Sunyata (Leerheit), abhängige Entstehung (Pratityasamutpada), Dekonstruktion fester Begriffe.",
		model.LanguageEnglish: "Analyze from Nagarjuna's Madhyamaka perspective: Sunyata (emptiness), dependent origination (Pratityasamutpada), deconstruction of fixed concepts.",
	},
	string(model.PerspectiveWissenschaft): {
		model.LanguageGerman:  "Analysiere aus wissenschaftlicher Perspektive: Empirische Überprüfbarkeit, Falsifizierbarkeit, messbare Korrelationen, Forschungsmethodik.",
		model.LanguageEnglish: "Analyze from a scientific perspective: empirical testability, falsifiability, measurable correlations, research methodology.",
	},
	TaskThesis: {
		model.LanguageGerman:  "Formuliere die Kernthese des Textes: Welches fundamentale Prinzip liegt ihm zugrunde, und welche etablierte Annahme stellt er in Frage?",
		model.LanguageEnglish: "State the core thesis of the text: which fundamental principle underlies it, and which established assumption does it challenge?",
	},
	TaskAntithesis: {
		model.LanguageGerman:  "Formuliere die stärkste Gegenposition zum Text: Welche Einwände, Risiken und blinden Flecken übersieht er?",
		model.LanguageEnglish: "State the strongest counter-position to the text: which objections, risks and blind spots does it overlook?",
	},
	TaskQuintessence: {
		model.LanguageGerman:  "Verdichte die folgenden Positionen zu einer Quintessenz: Was bleibt als gemeinsamer Kern, welche Spannung bleibt offen, welche neue Frage entsteht?",
		model.LanguageEnglish: "Condense the following positions into a quintessence: what remains as a shared core, which tension stays open, which new question emerges?",
	},
	TaskPhase: {
		model.LanguageGerman:  "Prüfe die Antwort auf die gestellte Frage im Licht der Idee: Was trägt, was fehlt, welche Chancen und welche Risiken folgen daraus?",
		model.LanguageEnglish: "Examine the answer to the question in the light of the idea: what holds, what is missing, which opportunities and which risks follow from it?",
	},
}

// phaseFormats lays out the text of a guided phase
var phaseFormats = localized{
	model.LanguageGerman:  "Idee: %s\nFrage: %s\nAntwort: %s",
	model.LanguageEnglish: "Idea: %s\nQuestion: %s\nAnswer: %s",
}

// PhaseInput composes the text analysed for one guided phase
func PhaseInput(idea, question, answer string, language model.Language) string {
	format, ok := phaseFormats[language]
	if !ok {
		format = phaseFormats[model.LanguageGerman]
	}
	return fmt.Sprintf(format, strings.TrimSpace(idea), question, strings.TrimSpace(answer))
}

// Build renders the instruction for one persona or task. Unknown keys fail
// instead of leaving a blank segment in the prompt.
func Build(text, persona string, level model.Level, language model.Language) (string, error) {
	langInstr, ok := languageInstructions[language]
	if !ok {
		return "", &BuildError{Key: string(language), Err: ErrUnknownLanguage}
	}

	levels, ok := levelInstructions[level]
	if !ok {
		return "", &BuildError{Key: string(level), Err: ErrUnknownLevel}
	}

	personas, ok := personaInstructions[persona]
	if !ok {
		return "", &BuildError{Key: persona, Err: ErrUnknownPersona}
	}

	var b strings.Builder
	b.WriteString(langInstr)
	b.WriteString("\n\n")
	b.WriteString(levels[language])
	b.WriteString("\n\n")
	b.WriteString(personas[language])
	b.WriteString("\n\n")
	writeSubject(&b, text, language)
	b.WriteString("\n\n")

	adjective := depthAdjectives[level][language]
	if language == model.LanguageGerman {
		fmt.Fprintf(&b, "Beginne deine Antwort mit \"%s:\" und gib eine strukturierte, %s Analyse aus dieser Perspektive.", tag(persona), adjective)
	} else {
		fmt.Fprintf(&b, "Begin your answer with \"%s:\" and give a structured, %s analysis from this perspective.", tag(persona), adjective)
	}

	return b.String(), nil
}

// Discourse renders the multi-party prompt. The reply must contain one
// "NAME: ..." segment per perspective, segments separated by '|'.
func Discourse(text string, perspectives []model.Perspective, level model.Level, language model.Language) (string, error) {
	langInstr, ok := languageInstructions[language]
	if !ok {
		return "", &BuildError{Key: string(language), Err: ErrUnknownLanguage}
	}
	levels, ok := levelInstructions[level]
	if !ok {
		return "", &BuildError{Key: string(level), Err: ErrUnknownLevel}
	}
	if len(perspectives) == 0 {
		return "", &BuildError{Key: TaskDiscourse, Err: ErrUnknownPersona}
	}

	var b strings.Builder
	b.WriteString(langInstr)
	b.WriteString("\n\n")
	b.WriteString(levels[language])
	b.WriteString("\n\n")

	if language == model.LanguageGerman {
		b.WriteString("Simuliere einen Diskurs, in dem jede der folgenden Stimmen genau einmal spricht:\n")
	} else {
		b.WriteString("Simulate a discourse in which each of the following voices speaks exactly once:\n")
	}
	for _, p := range perspectives {
		instr, ok := personaInstructions[string(p)]
		if !ok {
			return "", &BuildError{Key: string(p), Err: ErrUnknownPersona}
		}
		fmt.Fprintf(&b, "- %s: %s\n", Tag(p), instr[language])
	}
	b.WriteString("\n")
	writeSubject(&b, text, language)
	b.WriteString("\n\n")

	if language == model.LanguageGerman {
		b.WriteString("Format: Beginne jeden Beitrag mit dem Namen der Stimme in Großbuchstaben und einem Doppelpunkt (z.B. \"KANT:\"). Trenne die Beiträge ausschließlich mit \"|\". Verwende \"|\" sonst nirgends.")
	} else {
		b.WriteString("Format: Start each contribution with the voice's name in capitals followed by a colon (e.g. \"KANT:\"). Separate contributions only with \"|\". Do not use \"|\" anywhere else.")
	}

	return b.String(), nil
}

// Tag is the upper-case marker a perspective's segment starts with
func Tag(p model.Perspective) string {
	return strings.ToUpper(string(p))
}

func tag(persona string) string {
	if model.Perspective(persona).IsValid() {
		return persona
	}
	return strings.ToUpper(persona)
}

func writeSubject(b *strings.Builder, text string, language model.Language) {
	if language == model.LanguageGerman {
		b.WriteString("Analysiere folgenden Text:\n")
	} else {
		b.WriteString("Analyze the following text:\n")
	}
	fmt.Fprintf(b, "\"%s\"", text)
}
