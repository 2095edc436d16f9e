package model

import "time"

// Phase is one step of the guided exploration. Every text is keyed by
// language; German is used when a language has no entry.
type Phase struct {
	Key         string
	Title       map[Language]string
	Description map[Language]string
	Question    map[Language]string
}

// TitleIn returns the phase title in the given language
func (p Phase) TitleIn(language Language) string {
	return localize(p.Title, language)
}

// DescriptionIn returns the phase subtitle in the given language
func (p Phase) DescriptionIn(language Language) string {
	return localize(p.Description, language)
}

// QuestionIn returns the phase question in the given language
func (p Phase) QuestionIn(language Language) string {
	return localize(p.Question, language)
}

func localize(texts map[Language]string, language Language) string {
	if s, ok := texts[language]; ok {
		return s
	}
	return texts[LanguageGerman]
}

// Phases is the fixed order of the guided exploration
var Phases = []Phase{
	{
		Key: "core",
		Title: map[Language]string{
			LanguageGerman:  "Kernhypothese",
			LanguageEnglish: "Core hypothesis",
		},
		Description: map[Language]string{
			LanguageGerman:  "Das Axiom der Revolution",
			LanguageEnglish: "The axiom of the revolution",
		},
		Question: map[Language]string{
			LanguageGerman:  "Was ist die eine fundamentale Eigenschaft oder das Prinzip, das Ihre Idee zur Grundlage macht? Welche etablierte Annahme wird dadurch in Frage gestellt?",
			LanguageEnglish: "What is the one fundamental property or principle your idea rests on? Which established assumption does it call into question?",
		},
	},
	{
		Key: "solution",
		Title: map[Language]string{
			LanguageGerman:  "Direkte Problemlösung",
			LanguageEnglish: "Direct problem solving",
		},
		Description: map[Language]string{
			LanguageGerman:  "Kausale Ebene 1",
			LanguageEnglish: "Causal level 1",
		},
		Question: map[Language]string{
			LanguageGerman:  "Welches spezifische Problem löst Ihre Hypothese unmittelbar? Was funktioniert dadurch plötzlich, was vorher nicht funktionierte?",
			LanguageEnglish: "Which specific problem does your hypothesis solve directly? What suddenly works that did not work before?",
		},
	},
	{
		Key: "cascade",
		Title: map[Language]string{
			LanguageGerman:  "Kaskade der Möglichkeiten",
			LanguageEnglish: "Cascade of possibilities",
		},
		Description: map[Language]string{
			LanguageGerman:  "Kausale Ebenen 2-N",
			LanguageEnglish: "Causal levels 2-N",
		},
		Question: map[Language]string{
			LanguageGerman:  "Wenn das Problem gelöst ist - welche völlig neuen Möglichkeiten entstehen dadurch? Was wird dadurch erst denkbar?",
			LanguageEnglish: "Once the problem is solved, which entirely new possibilities emerge? What only becomes conceivable through it?",
		},
	},
	{
		Key: "resilience",
		Title: map[Language]string{
			LanguageGerman:  "Resilienz-Prüfung",
			LanguageEnglish: "Resilience check",
		},
		Description: map[Language]string{
			LanguageGerman:  "Der Advocatus Diaboli",
			LanguageEnglish: "The devil's advocate",
		},
		Question: map[Language]string{
			LanguageGerman:  "Welche neuen Risiken entstehen? Was ist das größte Missbrauchspotenzial? Welches ethische Prinzip muss im Kern verankert sein?",
			LanguageEnglish: "Which new risks arise? What is the greatest potential for misuse? Which ethical principle must be anchored at the core?",
		},
	},
}

// PhaseAnalysis records one answered phase
type PhaseAnalysis struct {
	Phase         int        `json:"phase"` // Index into Phases
	Title         string     `json:"title"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Analysis      string     `json:"analysis"`
	Provider      ProviderID `json:"provider,omitempty"` // Empty when fallback text was used
	Perspectives  []string   `json:"perspectives,omitempty"`
	Risks         []string   `json:"risks,omitempty"`
	Opportunities []string   `json:"opportunities,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsFallback reports whether the analysis came from the fallback generator
func (a PhaseAnalysis) IsFallback() bool {
	return a.Provider == ""
}

// GuideSnapshot is a read-only copy of a guided exploration
type GuideSnapshot struct {
	Idea           string          `json:"idea"`
	Classification Classification  `json:"classification"`
	Current        int             `json:"current_phase"` // len(Phases) once every phase is answered
	Complete       bool            `json:"complete"`
	Analyses       []PhaseAnalysis `json:"analyses"`
	InFlight       bool            `json:"in_flight"`
}

// Progress returns the share of answered phases in percent
func (s GuideSnapshot) Progress() int {
	return len(s.Analyses) * 100 / len(Phases)
}
