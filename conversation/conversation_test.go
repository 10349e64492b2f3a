package conversation

import (
	"testing"

	"github.com/fabwinter/Sydneykids/message"
)

func TestAppendAndMessages(t *testing.T) {
	c := New("conv-1")

	c.Append(message.NewMessage(message.RoleUser, "hi"))
	c.Append(message.NewMessage(message.RoleAssistant, "hello"))

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hi" || msgs[1].Content != "hello" {
		t.Errorf("Unexpected contents: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestMessagesReturnsClones(t *testing.T) {
	c := New("conv-1")
	c.Append(message.NewMessage(message.RoleUser, "original"))

	msgs := c.Messages()
	msgs[0].Content = "mutated"

	if c.Messages()[0].Content != "original" {
		t.Error("Expected external mutation to leave history untouched")
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	c := New("conv-1")
	c.Append(message.NewMessage(message.RoleUser, "question"))

	streaming := message.NewStreamingMessage()
	streaming.Content = "part"
	c.Upsert(streaming)

	streaming.Content = "partial reply grown"
	c.Upsert(streaming)

	streaming.Content = "partial reply grown further"
	streaming.Completed = true
	c.Upsert(streaming)

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected exactly one assistant message after repeated upserts, got %d messages", len(msgs))
	}
	if msgs[1].ID != streaming.ID {
		t.Errorf("Expected stable reply ID %s, got %s", streaming.ID, msgs[1].ID)
	}
	if msgs[1].Content != "partial reply grown further" {
		t.Errorf("Expected latest content, got %q", msgs[1].Content)
	}
	if !msgs[1].Completed {
		t.Error("Expected final upsert to mark the reply completed")
	}
}

func TestUpsertKeepsPosition(t *testing.T) {
	c := New("conv-1")
	reply := message.NewStreamingMessage()
	reply.Content = "first"
	c.Upsert(reply)
	c.Append(message.NewMessage(message.RoleUser, "follow-up"))

	reply.Content = "first revised"
	c.Upsert(reply)

	msgs := c.Messages()
	if msgs[0].Content != "first revised" {
		t.Errorf("Expected upsert to keep position 0, got %q", msgs[0].Content)
	}
	if msgs[1].Content != "follow-up" {
		t.Errorf("Expected later message untouched, got %q", msgs[1].Content)
	}
}

func TestOnUpdate(t *testing.T) {
	c := New("conv-1")
	var seen []string
	c.OnUpdate(func(msg *message.Message) {
		seen = append(seen, msg.Content)
	})

	c.Append(message.NewMessage(message.RoleUser, "one"))
	reply := message.NewStreamingMessage()
	reply.Content = "two"
	c.Upsert(reply)

	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Errorf("Expected updates for both mutations, got %q", seen)
	}
}

func TestClear(t *testing.T) {
	c := New("conv-1")
	c.Append(message.NewMessage(message.RoleUser, "gone soon"))

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty conversation, got %d messages", c.Len())
	}
}

func TestReplace(t *testing.T) {
	c := New("conv-1")
	c.Append(message.NewMessage(message.RoleUser, "stale"))

	restored := []*message.Message{
		message.NewMessage(message.RoleUser, "saved question"),
		message.NewMessage(message.RoleAssistant, "saved answer"),
	}
	c.Replace(restored)

	msgs := c.Messages()
	if len(msgs) != 2 || msgs[0].Content != "saved question" {
		t.Errorf("Expected restored history, got %d messages", len(msgs))
	}
}

func TestLast(t *testing.T) {
	c := New("conv-1")

	if c.Last() != nil {
		t.Error("Expected nil last message for empty conversation")
	}

	c.Append(message.NewMessage(message.RoleUser, "only"))
	if last := c.Last(); last == nil || last.Content != "only" {
		t.Errorf("Expected last message 'only', got %+v", last)
	}
}
