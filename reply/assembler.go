package reply

import "strings"

// State tracks where a reply is in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateFinalized State = "finalized"
)

// Assembler accumulates the fragments of one assistant reply and keeps
// the derived view current. The view is recomputed over the whole
// accumulated text on every append, so an annotation split across
// fragments resolves as soon as its last byte lands. A finalized
// assembler drops further fragments.
type Assembler struct {
	state State
	text  strings.Builder
	view  View
}

// NewAssembler returns an assembler in the idle state.
func NewAssembler() *Assembler {
	return &Assembler{state: StateIdle}
}

// Append adds a fragment and recomputes the view. It reports false once
// the reply is finalized; the fragment is dropped and the last view
// returned unchanged.
func (a *Assembler) Append(fragment string) (View, bool) {
	if a.state == StateFinalized {
		return a.view, false
	}
	a.state = StateStreaming
	a.text.WriteString(fragment)
	a.view = Extract(a.text.String())
	return a.view, true
}

// Finalize seals the reply and returns the final view. Calling it again
// is a no-op.
func (a *Assembler) Finalize() View {
	if a.state != StateFinalized {
		a.view = Extract(a.text.String())
		a.state = StateFinalized
	}
	return a.view
}

// View returns the most recently derived view.
func (a *Assembler) View() View {
	return a.view
}

// Text returns the raw accumulated text, annotation included.
func (a *Assembler) Text() string {
	return a.text.String()
}

// State reports the lifecycle state.
func (a *Assembler) State() State {
	return a.state
}

// Reset returns the assembler to idle for the next reply.
func (a *Assembler) Reset() {
	a.state = StateIdle
	a.text.Reset()
	a.view = View{}
}
