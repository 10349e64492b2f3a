package conversation

import (
	"sync"
	"time"

	"github.com/fabwinter/Sydneykids/message"
)

// UpdateFunc is notified after every mutation with a clone of the message
// that changed. Renderers subscribe here to repaint the transcript.
type UpdateFunc func(*message.Message)

// Conversation owns the ordered message history of one chat. All access
// goes through its methods; callers only ever see clones, so a streaming
// reply can be replaced in place without anyone holding a stale pointer
// into the list.
type Conversation struct {
	id        string
	mu        sync.Mutex
	messages  []*message.Message
	onUpdate  UpdateFunc
	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty conversation with the supplied identifier.
func New(id string) *Conversation {
	return &Conversation{
		id:        id,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// OnUpdate registers the update callback. The callback runs outside the
// conversation lock with its own clone.
func (c *Conversation) OnUpdate(fn UpdateFunc) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Append adds a message to the end of the history.
func (c *Conversation) Append(msg *message.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, message.Clone(msg))
	c.updatedAt = time.Now()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn(message.Clone(msg))
	}
}

// Upsert replaces the message with the same ID in place, keeping its
// position, or appends if no message has that ID. This is how a
// streaming assistant reply updates: one message per reply ID, mutated
// where it stands.
func (c *Conversation) Upsert(msg *message.Message) {
	c.mu.Lock()
	replaced := false
	for i, existing := range c.messages {
		if existing.ID == msg.ID {
			c.messages[i] = message.Clone(msg)
			replaced = true
			break
		}
	}
	if !replaced {
		c.messages = append(c.messages, message.Clone(msg))
	}
	c.updatedAt = time.Now()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn(message.Clone(msg))
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []*message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return message.CloneMessages(c.messages)
}

// Last returns a clone of the most recent message, or nil when empty.
func (c *Conversation) Last() *message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return message.Clone(c.messages[len(c.messages)-1])
}

// Len reports how many messages the conversation holds.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Clear removes all messages.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

// Replace swaps the whole history, used when restoring a persisted
// conversation at startup.
func (c *Conversation) Replace(msgs []*message.Message) {
	c.mu.Lock()
	c.messages = message.CloneMessages(msgs)
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

// UpdatedAt returns the time of the last mutation.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}
