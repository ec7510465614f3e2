package commands

import "strings"

// Intent is a recognized category of user request that is answered locally.
type Intent int

const (
	IntentNone Intent = iota
	IntentTime
	IntentDate
	IntentStatus
	IntentHelp
	IntentBrowser
	IntentOpenURL
	IntentMode
	IntentSuit
)

func (i Intent) String() string {
	switch i {
	case IntentTime:
		return "time"
	case IntentDate:
		return "date"
	case IntentStatus:
		return "status"
	case IntentHelp:
		return "help"
	case IntentBrowser:
		return "browser"
	case IntentOpenURL:
		return "open_url"
	case IntentMode:
		return "mode"
	case IntentSuit:
		return "suit"
	default:
		return "none"
	}
}

// IntentDef binds an intent to the literal phrases that trigger it.
// Patterns match anywhere in the input; Exact phrases only match the whole
// input.
type IntentDef struct {
	Kind     Intent
	Patterns []string
	Exact    []string
}

// DefaultCatalog is the built-in intent list. Order matters: the first
// definition with a matching phrase wins.
func DefaultCatalog() []IntentDef {
	return []IntentDef{
		{Kind: IntentTime, Patterns: []string{"what time", "current time", "time"}},
		{Kind: IntentDate, Patterns: []string{"what day", "today's date", "date"}, Exact: []string{"today"}},
		{Kind: IntentStatus, Patterns: []string{"system status", "system check", "diagnostics", "how are you"}, Exact: []string{"status"}},
		{Kind: IntentHelp, Patterns: []string{"what can you do", "list commands"}, Exact: []string{"help", "commands"}},
		{Kind: IntentBrowser, Patterns: []string{"open chrome", "open browser", "launch chrome", "start chrome"}},
		{Kind: IntentOpenURL, Patterns: []string{"open ", "launch ", "go to "}},
		{Kind: IntentMode, Patterns: []string{"combat mode", "stealth mode", "analysis mode", "normal mode"}},
		{Kind: IntentSuit, Patterns: []string{"suit up", "switch suit", "change suit", "mark ", "hulkbuster", "war machine"}},
	}
}

// Matcher maps free text to an intent by substring containment.
type Matcher struct {
	defs []IntentDef
}

// NewMatcher builds a matcher over defs. Patterns are lowercased once here
// so Match only has to normalize the input.
func NewMatcher(defs []IntentDef) *Matcher {
	out := make([]IntentDef, 0, len(defs))
	for _, d := range defs {
		out = append(out, IntentDef{
			Kind:     d.Kind,
			Patterns: lowerAll(d.Patterns, false),
			Exact:    lowerAll(d.Exact, true),
		})
	}
	return &Matcher{defs: out}
}

// lowerAll drops blank phrases. Exact phrases are also trimmed since they
// are compared against normalized input.
func lowerAll(phrases []string, trim bool) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(p)
		if trim {
			p = strings.TrimSpace(p)
		}
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match returns the first intent whose exact phrase equals the input or
// whose pattern is contained in it.
func (m *Matcher) Match(input string) (Intent, bool) {
	text := Normalize(input)
	if text == "" {
		return IntentNone, false
	}

	for _, d := range m.defs {
		for _, p := range d.Exact {
			if text == p {
				return d.Kind, true
			}
		}
		for _, p := range d.Patterns {
			if strings.Contains(text, p) {
				return d.Kind, true
			}
		}
	}
	return IntentNone, false
}

// Normalize lowercases and trims input.
func Normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
