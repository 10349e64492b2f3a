// Package reply assembles a single assistant reply from streamed
// fragments and derives its presentation form: the clean text and the
// quick-reply suggestions the model appends as a trailing annotation.
package reply

import (
	"encoding/json"
	"regexp"
	"strings"
)

// markerPattern matches the quick-replies annotation the model is
// prompted to append. Non-greedy so the match closes at the first
// terminator and only the first annotation is consumed.
var markerPattern = regexp.MustCompile(`<!--QUICK_REPLIES:\[(.*?)\]-->`)

// markerOpen is the literal head of the annotation.
const markerOpen = "<!--QUICK_REPLIES:["

// View is the presentation form of a reply: the text with the annotation
// removed and the suggestions parsed from it.
type View struct {
	Content      string
	QuickReplies []string
}

// Extract derives the view from raw reply text. The first annotation is
// parsed as a JSON string array; on success the matched substring is
// removed and the remainder trimmed. If there is no annotation, or its
// body does not parse, the text comes back untouched with no
// suggestions. Extract is pure: running it again over its own output
// changes nothing.
func Extract(text string) View {
	m := markerPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return View{Content: text}
	}
	var replies []string
	if err := json.Unmarshal([]byte("["+text[m[2]:m[3]]+"]"), &replies); err != nil {
		return View{Content: text}
	}
	content := strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return View{Content: content, QuickReplies: replies}
}

// Holdback reports how many trailing bytes of text may belong to an
// annotation that is still arriving. Renderers can keep that suffix off
// screen so a marker never flashes up mid-stream; the assembled text and
// the extracted view are unaffected.
func Holdback(text string) int {
	if i := strings.LastIndex(text, markerOpen); i >= 0 && !strings.Contains(text[i:], "-->") {
		return len(text) - i
	}
	limit := len(markerOpen) - 1
	if limit > len(text) {
		limit = len(text)
	}
	for n := limit; n > 0; n-- {
		if strings.HasSuffix(text, markerOpen[:n]) {
			return n
		}
	}
	return 0
}
