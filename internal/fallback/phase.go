package fallback

import (
	"fmt"

	"github.com/ppiankov/weitblick/internal/model"
)

type localizedList map[model.Language][]string

// phaseNotes are the static annotations of each guided phase, by index
var phaseNotes = []struct {
	risks         localizedList
	opportunities localizedList
}{
	{},
	{
		risks: localizedList{
			model.LanguageGerman:  {"Mögliche unvorhergesehene Nebenwirkungen"},
			model.LanguageEnglish: {"Possible unforeseen side effects"},
		},
		opportunities: localizedList{
			model.LanguageGerman:  {"Neue Forschungsfelder werden möglich", "Bestehende Grenzen werden überwunden"},
			model.LanguageEnglish: {"New fields of research become possible", "Existing limits are overcome"},
		},
	},
	{
		risks: localizedList{
			model.LanguageGerman:  {"Systemische Instabilität"},
			model.LanguageEnglish: {"Systemic instability"},
		},
		opportunities: localizedList{
			model.LanguageGerman:  {"Gesellschaftliche Transformation", "Wissenschaftliche Revolution", "Neue Technologien"},
			model.LanguageEnglish: {"Social transformation", "Scientific revolution", "New technologies"},
		},
	},
	{
		risks: localizedList{
			model.LanguageGerman:  {"Ethische Dilemmata", "Missbrauchspotenzial", "Unerwünschte Konsequenzen"},
			model.LanguageEnglish: {"Ethical dilemmas", "Potential for misuse", "Unintended consequences"},
		},
	},
}

// PhaseNotes returns the static perspective lines, risks and opportunities
// of a guided phase. Only the core hypothesis phase carries perspective
// lines. An unknown phase has no notes.
func PhaseNotes(phase int, language model.Language) (perspectives, risks, opportunities []string) {
	if phase < 0 || phase >= len(phaseNotes) {
		return nil, nil, nil
	}
	if language != model.LanguageEnglish {
		language = model.LanguageGerman
	}

	if phase == 0 {
		for _, p := range model.AllPerspectives {
			perspectives = append(perspectives, fmt.Sprintf("%s: %s", p, perspectiveLines[p][language]))
		}
	}

	notes := phaseNotes[phase]
	risks = append([]string(nil), notes.risks[language]...)
	opportunities = append([]string(nil), notes.opportunities[language]...)
	return perspectives, risks, opportunities
}

// PhaseText returns filler analysis for the answer to a guided phase. It
// never returns an empty string.
func PhaseText(phase int, answer string, language model.Language, level model.Level) string {
	if language != model.LanguageEnglish {
		language = model.LanguageGerman
	}

	label, line := "WEITBLICK", genericLine[language]
	if phase >= 0 && phase < len(model.Phases) {
		label = model.Phases[phase].TitleIn(language)
		line = model.Phases[phase].DescriptionIn(language)
	}

	closing, ok := levelClosings[level][language]
	if !ok {
		closing = levelClosings[model.LevelBasic][language]
	}

	subject := shorten(answer)
	if subject == "" {
		subject = "…"
	}

	return fmt.Sprintf(subjectFormats[language], label, line, subject, closing)
}
