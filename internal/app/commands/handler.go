package commands

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

// Effects receives the UI side effects requested by local commands.
type Effects interface {
	Emit(action domain.Action)
}

// Site is a named destination for "open" commands.
type Site struct {
	Name string
	URL  string
}

// DefaultSites is the catalog searched when an "open" command carries no
// literal URL. The first name contained in the input wins.
func DefaultSites() []Site {
	return []Site{
		{Name: "youtube", URL: "https://www.youtube.com"},
		{Name: "google maps", URL: "https://maps.google.com"},
		{Name: "maps", URL: "https://maps.google.com"},
		{Name: "gmail", URL: "https://mail.google.com"},
		{Name: "google", URL: "https://www.google.com"},
		{Name: "github", URL: "https://github.com"},
		{Name: "wikipedia", URL: "https://www.wikipedia.org"},
	}
}

var modes = []string{"combat", "stealth", "analysis", "normal"}

var (
	urlPattern  = regexp.MustCompile(`(https?://\S+|www\.\S+)`)
	markPattern = regexp.MustCompile(`mark\s*(\d+)`)
)

// Handler answers matched intents without contacting any backend.
type Handler struct {
	matcher *Matcher
	sites   []Site
	effects Effects
	now     func() time.Time
	started time.Time
}

type Option func(*Handler)

// WithClock overrides the time source used for time/date/status replies.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
		h.started = now()
	}
}

func WithSites(sites []Site) Option {
	return func(h *Handler) { h.sites = sites }
}

func WithCatalog(defs []IntentDef) Option {
	return func(h *Handler) { h.matcher = NewMatcher(defs) }
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		matcher: NewMatcher(DefaultCatalog()),
		sites:   DefaultSites(),
		now:     time.Now,
	}
	h.started = h.now()
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithEffects returns a copy of h that reports side effects to fx.
func (h *Handler) WithEffects(fx Effects) *Handler {
	cp := *h
	cp.effects = fx
	return &cp
}

// Execute runs input through the intent catalog. Unmatched or malformed
// input yields an unhandled result so the caller can fall through to the
// remote backend.
func (h *Handler) Execute(input string) (res domain.LocalCommandResult) {
	defer func() {
		if r := recover(); r != nil {
			observability.WithFields("component", "commands").Error("local command panicked", "input", input, "panic", r)
			res = domain.LocalCommandResult{}
		}
	}()

	intent, ok := h.matcher.Match(input)
	if !ok {
		return domain.LocalCommandResult{}
	}
	text := Normalize(input)

	switch intent {
	case IntentTime:
		now := h.now()
		return handled(fmt.Sprintf("The current time is %s, sir. Today is %s.",
			now.Format("3:04 PM"), now.Format(dateLayout)), nil)
	case IntentDate:
		return handled(fmt.Sprintf("Today is %s, sir.", h.now().Format(dateLayout)), nil)
	case IntentStatus:
		uptime := h.now().Sub(h.started).Truncate(time.Second)
		return handled(fmt.Sprintf(
			"All systems operational. Arc reactor output stable, uplink nominal, uptime %s.", uptime), nil)
	case IntentHelp:
		return handled(helpText, nil)
	case IntentBrowser:
		return handled(browserText, nil)
	case IntentOpenURL:
		return h.open(input, text)
	case IntentMode:
		return h.mode(text)
	case IntentSuit:
		return h.suit(text)
	}
	return domain.LocalCommandResult{}
}

const dateLayout = "Monday, January 2, 2006"

const helpText = "Available commands: \"what time is it\", \"what's the date\", \"system status\", " +
	"\"open <site or url>\", \"<combat|stealth|analysis|normal> mode\", \"mark <number>\", \"suit up\". " +
	"Anything else goes straight to me."

// browserText answers requests to launch native applications, which the HUD
// has no way to do from a browser tab.
const browserText = "I'm afraid I can't launch applications on your device, sir. " +
	"The interface runs inside a browser, and browser security prevents it from starting external programs. " +
	"I can open web pages in a new tab, or look things up for you, instead."

func (h *Handler) open(raw, text string) domain.LocalCommandResult {
	var target, label string

	if m := urlPattern.FindString(raw); m != "" {
		target = strings.TrimRight(m, ".,!?")
		if strings.HasPrefix(strings.ToLower(target), "www.") {
			target = "https://" + target
		}
		label = target
	} else {
		for _, s := range h.sites {
			if strings.Contains(text, s.Name) {
				target, label = s.URL, s.Name
				break
			}
		}
	}

	if target == "" {
		return domain.LocalCommandResult{}
	}

	action := domain.Action{Kind: domain.ActionOpenURL, Value: target}
	h.emit(action)
	return handled(fmt.Sprintf("Opening %s.", label), &action)
}

func (h *Handler) mode(text string) domain.LocalCommandResult {
	for _, m := range modes {
		if strings.Contains(text, m) {
			action := domain.Action{Kind: domain.ActionSetMode, Value: m}
			h.emit(action)
			return handled(fmt.Sprintf("Switching to %s mode.", m), &action)
		}
	}
	return domain.LocalCommandResult{}
}

func (h *Handler) suit(text string) domain.LocalCommandResult {
	var suit string
	switch {
	case strings.Contains(text, "hulkbuster"):
		suit = "hulkbuster"
	case strings.Contains(text, "war machine"):
		suit = "war-machine"
	default:
		if m := markPattern.FindStringSubmatch(text); m != nil {
			suit = "mark-" + m[1]
		}
	}

	if suit == "" {
		if !strings.Contains(text, "suit") {
			return domain.LocalCommandResult{}
		}
		suit = domain.DefaultSuit
	}

	action := domain.Action{Kind: domain.ActionSetSuit, Value: suit}
	h.emit(action)
	return handled(fmt.Sprintf("Deploying %s.", strings.ToUpper(suit)), &action)
}

func (h *Handler) emit(action domain.Action) {
	if h.effects != nil {
		h.effects.Emit(action)
	}
}

func handled(response string, action *domain.Action) domain.LocalCommandResult {
	return domain.LocalCommandResult{Handled: true, Response: response, Action: action}
}
