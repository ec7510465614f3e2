package domain

type AddressStyle string

const (
	AddressBoss   AddressStyle = "boss"
	AddressSir    AddressStyle = "sir"
	AddressName   AddressStyle = "name"
	AddressCasual AddressStyle = "casual"
)

type AccentStyle string

const (
	AccentBritish  AccentStyle = "british"
	AccentAmerican AccentStyle = "american"
	AccentNeutral  AccentStyle = "neutral"
)

// PersonalityConfig steers the style of remote assistant replies.
// It never affects local command responses.
type PersonalityConfig struct {
	Formality        int          `json:"formality" yaml:"formality"`
	Wit              int          `json:"wit" yaml:"wit"`
	Verbosity        int          `json:"verbosity" yaml:"verbosity"`
	TechnicalLevel   int          `json:"technicalLevel" yaml:"technical_level"`
	AddressStyle     AddressStyle `json:"addressStyle" yaml:"address_style"`
	AccentStyle      AccentStyle  `json:"accentStyle" yaml:"accent_style"`
	EnableHumor      bool         `json:"enableHumor" yaml:"enable_humor"`
	EnableReferences bool         `json:"enableReferences" yaml:"enable_references"`
	CustomGreeting   string       `json:"customGreeting" yaml:"custom_greeting"`
	CustomSignoff    string       `json:"customSignoff" yaml:"custom_signoff"`
}

// DefaultPersonality returns the stock J.A.R.V.I.S. personality.
func DefaultPersonality() PersonalityConfig {
	return PersonalityConfig{
		Formality:        70,
		Wit:              60,
		Verbosity:        50,
		TechnicalLevel:   60,
		AddressStyle:     AddressSir,
		AccentStyle:      AccentBritish,
		EnableHumor:      true,
		EnableReferences: true,
	}
}

// Normalized clamps the numeric dials to 0..100 and replaces unknown
// enum values with the defaults.
func (p PersonalityConfig) Normalized() PersonalityConfig {
	def := DefaultPersonality()

	p.Formality = clamp(p.Formality, 0, 100)
	p.Wit = clamp(p.Wit, 0, 100)
	p.Verbosity = clamp(p.Verbosity, 0, 100)
	p.TechnicalLevel = clamp(p.TechnicalLevel, 0, 100)

	switch p.AddressStyle {
	case AddressBoss, AddressSir, AddressName, AddressCasual:
	default:
		p.AddressStyle = def.AddressStyle
	}
	switch p.AccentStyle {
	case AccentBritish, AccentAmerican, AccentNeutral:
	default:
		p.AccentStyle = def.AccentStyle
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
