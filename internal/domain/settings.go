package domain

const (
	MinSpeechRate     = 0.5
	MaxSpeechRate     = 2.0
	DefaultSpeechRate = 1.0
	DefaultSuit       = "mark-85"
)

// UserSettings holds the durable per-user preferences of the HUD.
type UserSettings struct {
	UserID       UserID
	Personality  PersonalityConfig
	VoiceEnabled bool
	AutoSpeak    bool
	SpeechRate   float64
	Suit         string
	UpdatedAt    Timestamp
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings(userID UserID) *UserSettings {
	return &UserSettings{
		UserID:       userID,
		Personality:  DefaultPersonality(),
		VoiceEnabled: true,
		SpeechRate:   DefaultSpeechRate,
		Suit:         DefaultSuit,
	}
}

// Normalize clamps the settings into their valid ranges in place.
func (s *UserSettings) Normalize() {
	s.Personality = s.Personality.Normalized()
	switch {
	case s.SpeechRate == 0:
		s.SpeechRate = DefaultSpeechRate
	case s.SpeechRate < MinSpeechRate:
		s.SpeechRate = MinSpeechRate
	case s.SpeechRate > MaxSpeechRate:
		s.SpeechRate = MaxSpeechRate
	}
	if s.Suit == "" {
		s.Suit = DefaultSuit
	}
}
