package model

// Language is the detected language of the user's input
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
)

// Level is the coarse sophistication tier of the input text
type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Category is the topic bucket an idea falls into
type Category string

const (
	CategoryTechnology   Category = "Technology"
	CategoryScience      Category = "Science"
	CategorySociety      Category = "Society"
	CategoryEconomy      Category = "Economy"
	CategoryEthics       Category = "Ethics"
	CategoryPsychology   Category = "Psychology"
	CategoryArt          Category = "Art"
	CategorySpirituality Category = "Spirituality"
	CategoryPhilosophy   Category = "Philosophy" // Default when nothing matches
)

// Classification is the derived, repeatable description of an input text
type Classification struct {
	Language Language `json:"language" yaml:"language"`
	Level    Level    `json:"level" yaml:"level"`
	Category Category `json:"category" yaml:"category"`
}

// Perspective is one of the five fixed analytical personas
type Perspective string

const (
	PerspectiveKant         Perspective = "Kant"
	PerspectiveHeidegger    Perspective = "Heidegger"
	PerspectiveHegel        Perspective = "Hegel"
	PerspectiveNagarjuna    Perspective = "Nagarjuna"
	PerspectiveWissenschaft Perspective = "Wissenschaft"
)

// AllPerspectives is the fixed perspective order used for every layer
var AllPerspectives = []Perspective{
	PerspectiveKant,
	PerspectiveHeidegger,
	PerspectiveHegel,
	PerspectiveNagarjuna,
	PerspectiveWissenschaft,
}

// Description returns the short German description of the perspective
func (p Perspective) Description() string {
	switch p {
	case PerspectiveKant:
		return "Erkenntnisbedingungen"
	case PerspectiveHeidegger:
		return "Existenzielle Verwurzelung"
	case PerspectiveHegel:
		return "Dialektische Synthese"
	case PerspectiveNagarjuna:
		return "Ontologische Dekonstruktion"
	case PerspectiveWissenschaft:
		return "Empirische Korrelationen"
	default:
		return ""
	}
}

// IsValid reports whether p is one of AllPerspectives
func (p Perspective) IsValid() bool {
	for _, known := range AllPerspectives {
		if known == p {
			return true
		}
	}
	return false
}
