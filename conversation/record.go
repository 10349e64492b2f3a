package conversation

import (
	"context"
	"time"

	"github.com/fabwinter/Sydneykids/message"
)

// Record is the serializable snapshot of a conversation, the unit that
// storage backends persist and load.
type Record struct {
	ID        string             `json:"id"`
	Messages  []*message.Message `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		ID:        r.ID,
		Messages:  message.CloneMessages(r.Messages),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Store defines the interface for conversation storage backends that
// operate on serializable records.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Snapshot captures the conversation as a record for persistence.
func (c *Conversation) Snapshot() *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Record{
		ID:        c.id,
		Messages:  message.CloneMessages(c.messages),
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
}

// Restore replaces the conversation history from a persisted record.
func (c *Conversation) Restore(record *Record) {
	if record == nil {
		return
	}
	c.mu.Lock()
	c.messages = message.CloneMessages(record.Messages)
	if !record.CreatedAt.IsZero() {
		c.createdAt = record.CreatedAt
	}
	c.updatedAt = time.Now()
	c.mu.Unlock()
}
