package prompt

import (
	"fmt"
	"strings"
)

// Builder assembles a prompt from parts
type Builder struct {
	parts []string
}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{
		parts: make([]string, 0),
	}
}

// Add adds a part to the prompt
func (b *Builder) Add(part string) *Builder {
	b.parts = append(b.parts, part)
	return b
}

// AddFormat adds a formatted part to the prompt
func (b *Builder) AddFormat(format string, args ...any) *Builder {
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
	return b
}

// AddLine adds a part with a newline
func (b *Builder) AddLine(part string) *Builder {
	b.parts = append(b.parts, part+"\n")
	return b
}

// AddSection adds a section with title and content
func (b *Builder) AddSection(title, content string) *Builder {
	b.parts = append(b.parts, fmt.Sprintf("## %s\n%s\n", title, content))
	return b
}

// AddList adds a section whose content is one bullet per line. Empty
// lists add nothing, so optional context sections drop out cleanly.
func (b *Builder) AddList(title string, lines []string) *Builder {
	if len(lines) == 0 {
		return b
	}
	var content strings.Builder
	for _, line := range lines {
		content.WriteString("- ")
		content.WriteString(line)
		content.WriteString("\n")
	}
	b.parts = append(b.parts, fmt.Sprintf("## %s\n%s", title, content.String()))
	return b
}

// Build returns the final prompt string
func (b *Builder) Build() string {
	return strings.Join(b.parts, "")
}

// Reset clears all parts
func (b *Builder) Reset() *Builder {
	b.parts = make([]string, 0)
	return b
}
