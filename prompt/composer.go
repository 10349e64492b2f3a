package prompt

import (
	"fmt"
	"time"

	"github.com/fabwinter/Sydneykids/message"
	"github.com/fabwinter/Sydneykids/profile"
)

// Tokenizer counts tokens so history can be trimmed to a budget.
type Tokenizer interface {
	CountTokens(text string) int
}

// naiveTokenizer approximates four bytes per token. It keeps history
// roughly inside the window when no real tokenizer is wired.
type naiveTokenizer struct{}

func (naiveTokenizer) CountTokens(text string) int {
	return len(text)/4 + 1
}

// messageOverhead is the per-message token cost of the chat wrapper.
const messageOverhead = 4

// defaultPersona is the assistant persona. The trailing instruction is
// what makes replies carry the quick-replies annotation the app strips
// back out.
const defaultPersona = `You are the Sydneykids assistant, a friendly local guide helping parents
find things to do with their kids in Sydney.
{{if .Name}}You are talking to {{.Name}}.
{{end}}{{if .Suburb}}They are based around {{.Suburb}}; prefer suggestions nearby.
{{end}}Today is {{.Today}}.
Keep answers short, concrete and specific to Sydney.
At the very end of every reply, on the same line, append two or three
suggested follow-ups in exactly this form:
<!--QUICK_REPLIES:["first suggestion","second suggestion"]-->`

// Context carries everything the system prompt may mention.
type Context struct {
	User     *profile.UserContext
	Saved    []profile.SavedItem
	CheckIns []profile.CheckIn
	Events   []profile.CalendarEvent
	Today    time.Time
}

// Composer renders the system prompt from profile context and trims
// conversation history to a token budget.
type Composer struct {
	persona   *Template
	tokenizer Tokenizer
	budget    int
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithTokenizer sets the tokenizer used for history budgeting.
func WithTokenizer(t Tokenizer) ComposerOption {
	return func(c *Composer) {
		if t != nil {
			c.tokenizer = t
		}
	}
}

// WithHistoryBudget caps the token count of the history sent upstream.
// Zero disables trimming.
func WithHistoryBudget(tokens int) ComposerOption {
	return func(c *Composer) {
		c.budget = tokens
	}
}

// WithPersona replaces the persona template.
func WithPersona(tmpl *Template) ComposerOption {
	return func(c *Composer) {
		if tmpl != nil {
			c.persona = tmpl
		}
	}
}

// NewComposer creates a composer with the default persona.
func NewComposer(opts ...ComposerOption) *Composer {
	persona, err := NewTemplate("persona", defaultPersona)
	if err != nil {
		// The default template is a constant; a parse failure here is a
		// programming error.
		panic(err)
	}
	c := &Composer{
		persona:   persona,
		tokenizer: naiveTokenizer{},
		budget:    2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// System renders the system prompt for one request.
func (c *Composer) System(pc Context) (string, error) {
	today := pc.Today
	if today.IsZero() {
		today = time.Now()
	}

	vars := map[string]any{
		"Name":   "",
		"Suburb": "",
		"Today":  today.Format("Monday 2 January 2006"),
	}
	if pc.User != nil {
		vars["Name"] = pc.User.DisplayName
		if pc.User.HasLocation {
			vars["Suburb"] = pc.User.Suburb
		}
	}

	head, err := c.persona.Render(vars)
	if err != nil {
		return "", fmt.Errorf("failed to render persona: %w", err)
	}

	b := NewBuilder().AddLine(head)
	b.AddList("Saved activities", savedLines(pc.Saved))
	b.AddList("Recent visits", checkInLines(pc.CheckIns))
	b.AddList("Upcoming on the calendar", eventLines(pc.Events))
	return b.Build(), nil
}

// TrimHistory drops the oldest messages until the rest fit the token
// budget. The newest message always survives.
func (c *Composer) TrimHistory(msgs []*message.Message) []*message.Message {
	if c.budget <= 0 || len(msgs) == 0 {
		return msgs
	}

	total := 0
	cut := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := c.tokenizer.CountTokens(msgs[i].Content) + messageOverhead
		if total+cost > c.budget {
			break
		}
		total += cost
		cut = i
	}
	if cut == len(msgs) {
		cut = len(msgs) - 1
	}
	return msgs[cut:]
}

func savedLines(items []profile.SavedItem) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		line := item.Title
		if item.Category != "" {
			line += " (" + item.Category + ")"
		}
		if item.Note != "" {
			line += ": " + item.Note
		}
		lines = append(lines, line)
	}
	return lines
}

func checkInLines(visits []profile.CheckIn) []string {
	lines := make([]string, 0, len(visits))
	for _, visit := range visits {
		line := visit.Place
		if visit.Suburb != "" {
			line += ", " + visit.Suburb
		}
		line += " on " + visit.VisitedAt.Format("Mon 2 Jan")
		lines = append(lines, line)
	}
	return lines
}

func eventLines(events []profile.CalendarEvent) []string {
	lines := make([]string, 0, len(events))
	for _, event := range events {
		line := event.Title
		if event.Location != "" {
			line += " at " + event.Location
		}
		line += " on " + event.StartsAt.Format("Mon 2 Jan 15:04")
		lines = append(lines, line)
	}
	return lines
}
