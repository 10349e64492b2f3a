package message

import "time"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a conversation
type Message struct {
	ID           string         `json:"id"`
	Role         Role           `json:"role"`
	Content      string         `json:"content"`
	QuickReplies []string       `json:"quick_replies,omitempty"` // Suggested follow-ups extracted from an assistant reply
	Completed    bool           `json:"completed"`               // False while the reply is still streaming
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewMessage creates a new message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Completed: true,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// NewStreamingMessage creates an assistant message that is still being
// assembled. The ID stays stable for the lifetime of the reply so the
// conversation can replace it in place as fragments arrive.
func NewStreamingMessage() *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Completed: false,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// Clone creates a deep copy of the message.
func Clone(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	cloned := *msg
	if msg.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			cloned.Metadata[k] = v
		}
	}
	if len(msg.QuickReplies) > 0 {
		cloned.QuickReplies = make([]string, len(msg.QuickReplies))
		copy(cloned.QuickReplies, msg.QuickReplies)
	}
	return &cloned
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}

// generateID generates a unique message ID
func generateID() string {
	// Simple implementation using timestamp
	// In production, consider using UUID
	return time.Now().Format("20060102150405.000000")
}
