package sse

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventKind classifies a decoded feed record.
type EventKind int

const (
	// EventIgnorable carries nothing to apply: keep-alive comments,
	// blank records, records without the data prefix, and payloads
	// without a content delta.
	EventIgnorable EventKind = iota
	// EventData carries one content fragment of the reply.
	EventData
	// EventDone is the end-of-reply sentinel.
	EventDone
	// EventMalformed is a data record whose payload failed to parse.
	EventMalformed
)

// Event is the decoded form of a single feed record.
type Event struct {
	Kind    EventKind
	Content string // fragment text, set for EventData
	Raw     string // original record, set for EventMalformed
}

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// payload mirrors the chat-completions delta shape. Only the first
// choice's content delta matters; the pointer distinguishes an absent
// content field from an empty fragment.
type payload struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decode classifies one record. The rules apply in order: blank records
// and comment lines are ignorable, as is anything without the exact
// "data: " prefix; a payload equal to the sentinel after trimming ends
// the reply; valid JSON with a string content delta yields a fragment;
// valid JSON without one is ignorable; anything else is malformed and
// keeps the original record for recovery.
func Decode(record string) Event {
	if record == "" || strings.HasPrefix(record, ":") {
		return Event{Kind: EventIgnorable}
	}
	if !strings.HasPrefix(record, dataPrefix) {
		return Event{Kind: EventIgnorable}
	}
	body := record[len(dataPrefix):]
	if strings.TrimSpace(body) == doneSentinel {
		return Event{Kind: EventDone}
	}
	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		// A shape mismatch is still valid JSON: nothing to apply, but
		// nothing to recover either.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Event{Kind: EventIgnorable}
		}
		return Event{Kind: EventMalformed, Raw: record}
	}
	if len(p.Choices) == 0 || p.Choices[0].Delta.Content == nil {
		return Event{Kind: EventIgnorable}
	}
	return Event{Kind: EventData, Content: *p.Choices[0].Delta.Content}
}
