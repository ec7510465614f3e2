package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

const baseSystemPrompt = `
You are J.A.R.V.I.S., the AI assistant built into Tony Stark's suits and workshop HUD.

Your role:
- You answer questions, run quick analyses and keep the user company while they work.
- You are loyal, calm under pressure and quietly confident.
- You never claim to have performed physical actions you cannot perform.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Replies are read aloud by the HUD, so avoid markdown tables and long code blocks.
- Keep answers focused on what was asked.
`

// BuildSystemPrompt renders the personality dials into instructions.
func BuildSystemPrompt(p domain.PersonalityConfig) string {
	p = p.Normalized()

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\nPersonality:\n")
	fmt.Fprintf(&b, "- Formality: %s (%d/100).\n", dial(p.Formality, "relaxed and conversational", "balanced", "crisp and formal"), p.Formality)
	fmt.Fprintf(&b, "- Wit: %s (%d/100).\n", dial(p.Wit, "earnest, no jokes", "occasional dry remark", "sharp, dry British wit"), p.Wit)
	fmt.Fprintf(&b, "- Verbosity: %s (%d/100).\n", dial(p.Verbosity, "one or two sentences", "a short paragraph", "thorough explanations"), p.Verbosity)
	fmt.Fprintf(&b, "- Technical depth: %s (%d/100).\n", dial(p.TechnicalLevel, "plain language", "some technical detail", "engineer-level detail"), p.TechnicalLevel)
	fmt.Fprintf(&b, "- Address the user %s.\n", addressInstruction(p.AddressStyle))
	fmt.Fprintf(&b, "- Use %s.\n", accentInstruction(p.AccentStyle))

	if p.EnableHumor {
		b.WriteString("- Light humor is welcome when the moment allows it.\n")
	} else {
		b.WriteString("- Do not make jokes.\n")
	}
	if p.EnableReferences {
		b.WriteString("- You may reference the Iron Man films and Stark Industries lore.\n")
	} else {
		b.WriteString("- Do not reference films or fictional lore.\n")
	}
	if g := strings.TrimSpace(p.CustomGreeting); g != "" {
		fmt.Fprintf(&b, "- When greeted, answer with: %q.\n", g)
	}
	if s := strings.TrimSpace(p.CustomSignoff); s != "" {
		fmt.Fprintf(&b, "- When the user says goodbye, sign off with: %q.\n", s)
	}
	return b.String()
}

func dial(v int, low, mid, high string) string {
	switch {
	case v < 34:
		return low
	case v < 67:
		return mid
	default:
		return high
	}
}

func addressInstruction(a domain.AddressStyle) string {
	switch a {
	case domain.AddressBoss:
		return `as "boss"`
	case domain.AddressName:
		return "by their first name"
	case domain.AddressCasual:
		return "casually, without honorifics"
	default:
		return `as "sir"`
	}
}

func accentInstruction(a domain.AccentStyle) string {
	switch a {
	case domain.AccentAmerican:
		return "American spelling and idioms"
	case domain.AccentNeutral:
		return "neutral international English"
	default:
		return "British spelling and idioms"
	}
}
